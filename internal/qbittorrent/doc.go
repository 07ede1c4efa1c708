// Package qbittorrent wraps the go-qbittorrent Web API client for the
// download engine.
//
// Client converts qBittorrent torrents into torrents.Snapshot values with
// lowercase hashes and maps failures onto the services error sentinels:
// a missing URL or rejected credentials surface as ErrConfiguration and
// everything else as ErrExternalClient. Sessions are established lazily and
// renewed once per call when the Web API answers with an authorization
// failure.
package qbittorrent
