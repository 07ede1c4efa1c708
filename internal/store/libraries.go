package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const libraryColumns = "id, name, platform, download_category, is_default, created_at"

func scanLibrary(scanner interface{ Scan(dest ...any) error }) (*Library, error) {
	var (
		lib       Library
		platform  sql.NullString
		category  sql.NullString
		isDefault int
		created   sql.NullString
	)
	if err := scanner.Scan(&lib.ID, &lib.Name, &platform, &category, &isDefault, &created); err != nil {
		return nil, err
	}
	lib.Platform = platform.String
	lib.DownloadCategory = category.String
	lib.IsDefault = isDefault != 0
	lib.CreatedAt = parseTime(created)
	return &lib, nil
}

// CreateLibrary inserts a library. Marking it default clears the flag on every
// other library so at most one default exists.
func (s *Store) CreateLibrary(ctx context.Context, in NewLibrary) (*Library, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.New("library name is required")
	}
	ctx = ensureContext(ctx)
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if in.IsDefault {
			if _, err := tx.ExecContext(ctx, `UPDATE libraries SET is_default = 0`); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO libraries (name, platform, download_category, is_default, created_at) VALUES (?, ?, ?, ?, ?)`,
			name,
			nullableString(strings.TrimSpace(in.Platform)),
			nullableString(strings.TrimSpace(in.DownloadCategory)),
			boolToInt(in.IsDefault),
			nowString(),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert library: %w", err)
	}
	return s.GetLibrary(ctx, id)
}

// GetLibrary fetches a library by identifier. A missing library returns nil, nil.
func (s *Store) GetLibrary(ctx context.Context, id int64) (*Library, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+libraryColumns+` FROM libraries WHERE id = ?`, id)
	lib, err := scanLibrary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get library: %w", err)
	}
	return lib, nil
}

// ListLibraries returns every library ordered by id.
func (s *Store) ListLibraries(ctx context.Context) ([]*Library, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+libraryColumns+` FROM libraries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	defer rows.Close()

	var libs []*Library
	for rows.Next() {
		lib, err := scanLibrary(rows)
		if err != nil {
			return nil, err
		}
		libs = append(libs, lib)
	}
	return libs, rows.Err()
}

// DefaultLibrary returns the library flagged as default, or nil when none is.
func (s *Store) DefaultLibrary(ctx context.Context) (*Library, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+libraryColumns+` FROM libraries WHERE is_default = 1 ORDER BY id LIMIT 1`)
	lib, err := scanLibrary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("default library: %w", err)
	}
	return lib, nil
}
