// Package matching correlates tracked releases with the torrents a download
// client reports.
//
// The client offers no foreign key back to the game that requested a torrent,
// so the Matcher re-derives the link from weaker signals in priority order:
// a stored info hash, the "game-{id}" tag gamearr attaches on submission, and
// finally a multi-criteria comparison of normalized names and sizes. Every
// result carries a confidence tier; only exact, high and medium results are
// ever returned, and the absence of a match is an expected outcome that
// callers retry on the next pass.
//
// Everything here is pure: no I/O, deterministic for a given input.
package matching
