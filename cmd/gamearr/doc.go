// Command gamearr grabs game releases into qBittorrent and keeps their
// download state in sync.
//
// `gamearr serve` runs the reconciliation daemon with its status and
// metrics endpoints. The remaining commands operate on the local database
// and download client directly, so they work whether or not the daemon is
// running.
package main
