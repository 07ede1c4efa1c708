// Package torrents describes the download client's view of a torrent and the
// conventions gamearr uses to correlate those torrents with tracked games.
//
// A Snapshot is a point-in-time fact reported by the client; it is fetched
// fresh on every reconciliation pass and never persisted. The tag helpers
// produce and parse the "game-{id}" marker that gamearr attaches on
// submission, and MagnetHash extracts an info hash from magnet links so a
// grab can learn its torrent hash without asking the client.
package torrents
