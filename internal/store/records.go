package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/mechsave/internal/lexicon"
	"github.com/roach88/mechsave/internal/record"
	"github.com/roach88/mechsave/internal/savedata"
)

// Compile-time checks that Store can back the registry.
var (
	_ record.Store    = (*Store)(nil)
	_ lexicon.Backing = (*Store)(nil)
)

// Write stores data as the record for id, replacing any previous record.
func (s *Store) Write(ctx context.Context, id string, data []byte) error {
	if err := savedata.ValidateID(id); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if data == nil {
		data = []byte{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, payload, written_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, written_at = excluded.written_at
	`,
		id,
		data,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write record %s: %w", id, err)
	}
	return nil
}

// Read returns the stored record for id.
// Returns an error wrapping savedata.ErrNotFound if no row exists.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	if err := savedata.ValidateID(id); err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read record %s: %w", id, savedata.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the record for id. Absent records are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := savedata.ValidateID(id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

// Exists reports whether a record row exists for id without reading its payload.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if err := savedata.ValidateID(id); err != nil {
		return false, fmt.Errorf("stat record: %w", err)
	}
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("stat record %s: %w", id, err)
	}
	return count > 0, nil
}

// List returns every stored record ID in binary order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM records ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return ids, nil
}

// ReadDocument returns the lexicon document, or nil if none has been written.
func (s *Store) ReadDocument(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM lexicon WHERE slot = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// WriteDocument replaces the lexicon document in full.
func (s *Store) WriteDocument(ctx context.Context, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lexicon (slot, document)
		VALUES (1, ?)
		ON CONFLICT(slot) DO UPDATE SET document = excluded.document
	`, data)
	if err != nil {
		return fmt.Errorf("write lexicon: %w", err)
	}
	return nil
}
