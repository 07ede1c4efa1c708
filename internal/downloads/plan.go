package downloads

import (
	"gamearr/internal/matching"
	"gamearr/internal/store"
	"gamearr/internal/torrents"
)

// Observation pairs an active release with the torrent matched to it this pass.
type Observation struct {
	Release *store.Release
	Match   matching.Result
}

// HashWrite persists a newly learned hash, with the status change observed
// in the same pass when there is one.
type HashWrite struct {
	ReleaseID int64
	Hash      string
	Status    *store.ReleaseStatus
}

// Retag asks the client to attach the game tags to a torrent matched by name.
type Retag struct {
	ReleaseID int64
	GameID    int64
	Hash      string
}

// WritePlan is everything one reconciliation pass will write. Hash writes
// are applied one release at a time; status-only writes are applied as one
// batch per target status.
type WritePlan struct {
	HashWrites     []HashWrite
	StatusWrites   map[store.ReleaseStatus][]int64
	CompletedGames []int64
	Retags         []Retag

	completions []completion
}

type completion struct {
	releaseID int64
	gameID    int64
}

// Empty reports whether the plan writes nothing.
func (p WritePlan) Empty() bool {
	return len(p.HashWrites) == 0 && len(p.StatusWrites) == 0 && len(p.Retags) == 0
}

// Transitions counts releases moving into each status, across hash and
// status-only writes.
func (p WritePlan) Transitions() map[store.ReleaseStatus]int {
	counts := make(map[store.ReleaseStatus]int)
	for _, w := range p.HashWrites {
		if w.Status != nil {
			counts[*w.Status]++
		}
	}
	for status, ids := range p.StatusWrites {
		counts[status] += len(ids)
	}
	return counts
}

// BuildWritePlan derives the writes for a set of matched releases. It never
// moves a release out of completed or failed and never replaces a stored hash.
func BuildWritePlan(observations []Observation) WritePlan {
	plan := WritePlan{StatusWrites: make(map[store.ReleaseStatus][]int64)}
	seenGames := make(map[int64]struct{})

	for _, obs := range observations {
		rel := obs.Release
		if rel == nil || rel.Status.IsTerminal() {
			continue
		}
		torrent := obs.Match.Torrent
		target := targetStatus(torrent)
		changed := target != rel.Status

		switch {
		case rel.TorrentHash == "" && torrent.Hash != "":
			write := HashWrite{ReleaseID: rel.ID, Hash: torrent.Hash}
			if changed {
				status := target
				write.Status = &status
			}
			plan.HashWrites = append(plan.HashWrites, write)
		case changed:
			plan.StatusWrites[target] = append(plan.StatusWrites[target], rel.ID)
		}

		if changed && target == store.ReleaseCompleted {
			plan.completions = append(plan.completions, completion{releaseID: rel.ID, gameID: rel.GameID})
			if _, ok := seenGames[rel.GameID]; !ok {
				seenGames[rel.GameID] = struct{}{}
				plan.CompletedGames = append(plan.CompletedGames, rel.GameID)
			}
		}

		if obs.Match.Method == matching.MethodName && torrent.Hash != "" && !torrents.HasGameTag(torrent.Tags, rel.GameID) {
			plan.Retags = append(plan.Retags, Retag{ReleaseID: rel.ID, GameID: rel.GameID, Hash: torrent.Hash})
		}
	}
	if len(plan.StatusWrites) == 0 {
		plan.StatusWrites = nil
	}
	return plan
}

// Without drops every write planned for the given releases. A game stays in
// CompletedGames only while another kept release still completes it.
func (p WritePlan) Without(releaseIDs map[int64]struct{}) WritePlan {
	if len(releaseIDs) == 0 {
		return p
	}
	dropped := func(id int64) bool {
		_, ok := releaseIDs[id]
		return ok
	}
	out := WritePlan{}
	for _, w := range p.HashWrites {
		if !dropped(w.ReleaseID) {
			out.HashWrites = append(out.HashWrites, w)
		}
	}
	for status, ids := range p.StatusWrites {
		for _, id := range ids {
			if dropped(id) {
				continue
			}
			if out.StatusWrites == nil {
				out.StatusWrites = make(map[store.ReleaseStatus][]int64)
			}
			out.StatusWrites[status] = append(out.StatusWrites[status], id)
		}
	}
	seenGames := make(map[int64]struct{})
	for _, c := range p.completions {
		if dropped(c.releaseID) {
			continue
		}
		out.completions = append(out.completions, c)
		if _, ok := seenGames[c.gameID]; !ok {
			seenGames[c.gameID] = struct{}{}
			out.CompletedGames = append(out.CompletedGames, c.gameID)
		}
	}
	for _, r := range p.Retags {
		if !dropped(r.ReleaseID) {
			out.Retags = append(out.Retags, r)
		}
	}
	return out
}

func targetStatus(t torrents.Snapshot) store.ReleaseStatus {
	switch {
	case t.IsComplete():
		return store.ReleaseCompleted
	case t.IsErrored():
		return store.ReleaseFailed
	default:
		return store.ReleaseDownloading
	}
}
