package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const gameColumns = "id, title, platform, status, library_id, created_at, updated_at"

func scanGame(scanner interface{ Scan(dest ...any) error }) (*Game, error) {
	var (
		game      Game
		platform  sql.NullString
		status    string
		libraryID sql.NullInt64
		created   sql.NullString
		updated   sql.NullString
	)
	if err := scanner.Scan(&game.ID, &game.Title, &platform, &status, &libraryID, &created, &updated); err != nil {
		return nil, err
	}
	game.Platform = platform.String
	game.Status = GameStatus(status)
	game.LibraryID = int64Ptr(libraryID)
	game.CreatedAt = parseTime(created)
	game.UpdatedAt = parseTime(updated)
	return &game, nil
}

// CreateGame inserts a wanted game.
func (s *Store) CreateGame(ctx context.Context, in NewGame) (*Game, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.New("game title is required")
	}
	ts := nowString()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO games (title, platform, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		title, nullableString(strings.TrimSpace(in.Platform)), GameWanted, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetGame(ctx, id)
}

// GetGame fetches a game by identifier. A missing game returns nil, nil.
func (s *Store) GetGame(ctx context.Context, id int64) (*Game, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// GetGames fetches several games keyed by id. Unknown ids are omitted.
func (s *Store) GetGames(ctx context.Context, ids []int64) (map[int64]*Game, error) {
	out := make(map[int64]*Game, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+gameColumns+` FROM games WHERE id IN (`+makePlaceholders(len(ids))+`)`,
		int64Args(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("get games: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out[game.ID] = game
	}
	return out, rows.Err()
}

// ListGames returns games filtered by status (all games when none given).
func (s *Store) ListGames(ctx context.Context, statuses ...GameStatus) ([]*Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games`
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// UpdateGameStatus sets one game's status.
func (s *Store) UpdateGameStatus(ctx context.Context, id int64, status GameStatus) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE games SET status = ?, updated_at = ? WHERE id = ?`,
		status, nowString(), id,
	); err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	return nil
}

// BatchUpdateGameStatus sets the status of several games in one statement.
func (s *Store) BatchUpdateGameStatus(ctx context.Context, ids []int64, status GameStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := append([]any{status, nowString()}, int64Args(ids)...)
	res, err := s.execWithRetry(ctx,
		`UPDATE games SET status = ?, updated_at = ? WHERE id IN (`+makePlaceholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("batch update game status: %w", err)
	}
	return res.RowsAffected()
}

// SetGameLibrary assigns a game to a library.
func (s *Store) SetGameLibrary(ctx context.Context, gameID, libraryID int64) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE games SET library_id = ?, updated_at = ? WHERE id = ?`,
		libraryID, nowString(), gameID,
	); err != nil {
		return fmt.Errorf("set game library: %w", err)
	}
	return nil
}
