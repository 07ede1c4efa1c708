package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const releaseColumns = "id, game_id, title, size_bytes, seeders, download_url, indexer, quality, torrent_hash, status, grabbed_at, updated_at"

func scanRelease(scanner interface{ Scan(dest ...any) error }) (*Release, error) {
	var (
		rel     Release
		size    sql.NullInt64
		seeders sql.NullInt64
		quality sql.NullString
		hash    sql.NullString
		status  string
		grabbed sql.NullString
		updated sql.NullString
	)
	if err := scanner.Scan(
		&rel.ID,
		&rel.GameID,
		&rel.Title,
		&size,
		&seeders,
		&rel.DownloadURL,
		&rel.Indexer,
		&quality,
		&hash,
		&status,
		&grabbed,
		&updated,
	); err != nil {
		return nil, err
	}
	rel.Size = int64Ptr(size)
	rel.Seeders = intPtr(seeders)
	rel.Quality = quality.String
	rel.TorrentHash = hash.String
	rel.Status = ReleaseStatus(status)
	rel.GrabbedAt = parseTime(grabbed)
	rel.UpdatedAt = parseTime(updated)
	return &rel, nil
}

func (s *Store) queryReleases(ctx context.Context, where string, args ...any) ([]*Release, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+releaseColumns+` FROM releases`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var releases []*Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, rel)
	}
	return releases, rows.Err()
}

// CreateRelease records a grab. Status defaults to pending.
func (s *Store) CreateRelease(ctx context.Context, in NewRelease) (*Release, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("release title is required")
	}
	status := in.Status
	if status == "" {
		status = ReleasePending
	}
	ts := nowString()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO releases (
            game_id, title, size_bytes, seeders, download_url, indexer, quality,
            status, grabbed_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.GameID,
		in.Title,
		nullableInt64(in.Size),
		nullableInt(in.Seeders),
		in.DownloadURL,
		in.Indexer,
		nullableString(in.Quality),
		status,
		ts,
		ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert release: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRelease(ctx, id)
}

// GetRelease fetches a release by identifier. A missing release returns nil, nil.
func (s *Store) GetRelease(ctx context.Context, id int64) (*Release, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+releaseColumns+` FROM releases WHERE id = ?`, id)
	rel, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get release: %w", err)
	}
	return rel, nil
}

// UpdateRelease applies a partial update to one release.
func (s *Store) UpdateRelease(ctx context.Context, id int64, update ReleaseUpdate) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	if update.TorrentHash != nil {
		sets = append(sets, "torrent_hash = ?")
		args = append(args, nullableString(strings.ToLower(strings.TrimSpace(*update.TorrentHash))))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, nowString(), id)
	if _, err := s.execWithRetry(ctx,
		`UPDATE releases SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	); err != nil {
		return fmt.Errorf("update release: %w", err)
	}
	return nil
}

// SetReleaseHash records the client hash for a release, together with an
// optional status change. The write applies only while the release has no
// hash or already holds the same one; applied is false when another hash is
// stored, and the status is left untouched in that case. Terminal releases
// keep their status.
func (s *Store) SetReleaseHash(ctx context.Context, id int64, hash string, status *ReleaseStatus) (bool, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return false, fmt.Errorf("set release hash: empty hash")
	}
	sets := []string{"torrent_hash = ?"}
	args := []any{hash}
	if status != nil {
		if status.IsTerminal() {
			sets = append(sets, "status = ?")
			args = append(args, *status)
		} else {
			sets = append(sets, "status = CASE WHEN status IN (?, ?) THEN status ELSE ? END")
			args = append(args, ReleaseCompleted, ReleaseFailed, *status)
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, nowString(), id, hash)
	res, err := s.execWithRetry(ctx,
		`UPDATE releases SET `+strings.Join(sets, ", ")+
			` WHERE id = ? AND (torrent_hash IS NULL OR torrent_hash = '' OR torrent_hash = ?)`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("set release hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set release hash: %w", err)
	}
	return n > 0, nil
}

// UpdateReleaseStatus sets one release's status.
func (s *Store) UpdateReleaseStatus(ctx context.Context, id int64, status ReleaseStatus) error {
	return s.UpdateRelease(ctx, id, ReleaseUpdate{Status: &status})
}

// BatchUpdateReleaseStatus sets the status of several releases in one
// statement. Releases already in a terminal status are never moved back to
// pending or downloading.
func (s *Store) BatchUpdateReleaseStatus(ctx context.Context, ids []int64, status ReleaseStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE releases SET status = ?, updated_at = ? WHERE id IN (` + makePlaceholders(len(ids)) + `)`
	args := append([]any{status, nowString()}, int64Args(ids)...)
	if !status.IsTerminal() {
		query += ` AND status NOT IN (?, ?)`
		args = append(args, ReleaseCompleted, ReleaseFailed)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("batch update release status: %w", err)
	}
	return res.RowsAffected()
}

// ActiveReleases returns releases reconciliation still watches.
func (s *Store) ActiveReleases(ctx context.Context) ([]*Release, error) {
	releases, err := s.ListReleases(ctx, ActiveReleaseStatuses...)
	if err != nil {
		return nil, fmt.Errorf("active releases: %w", err)
	}
	return releases, nil
}

// ListReleases returns releases filtered by status (all when none given).
func (s *Store) ListReleases(ctx context.Context, statuses ...ReleaseStatus) ([]*Release, error) {
	if len(statuses) == 0 {
		releases, err := s.queryReleases(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("list releases: %w", err)
		}
		return releases, nil
	}
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	releases, err := s.queryReleases(ctx, ` WHERE status IN (`+makePlaceholders(len(statuses))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	return releases, nil
}

// ReleasesForGame returns every release recorded for a game.
func (s *Store) ReleasesForGame(ctx context.Context, gameID int64) ([]*Release, error) {
	releases, err := s.queryReleases(ctx, ` WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, fmt.Errorf("releases for game: %w", err)
	}
	return releases, nil
}

// FindReleaseByHash returns the newest release carrying hash, compared
// case-insensitively. A miss returns nil, nil.
func (s *Store) FindReleaseByHash(ctx context.Context, hash string) (*Release, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+releaseColumns+` FROM releases WHERE torrent_hash = ? ORDER BY id DESC LIMIT 1`, hash)
	rel, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find release by hash: %w", err)
	}
	return rel, nil
}
