// Package downloads is the release-to-download reconciliation engine.
//
// Service.GrabRelease records a release, submits it to the download client
// tagged with the owning game, and resolves the torrent hash: synchronously
// for magnet links, otherwise through a bounded background poll. Reconcile
// lists the client's torrents, matches every pending or downloading release
// against them with the matching package, and applies the resulting status
// transitions through a WritePlan. Completed games are marked downloaded,
// placed into a library and announced once per pass.
//
// The engine depends on small interfaces (TorrentClient, Store, Settings)
// so tests substitute fakes; internal/qbittorrent, internal/store and
// internal/settings provide the production implementations.
package downloads
