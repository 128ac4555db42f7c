package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Table names, one document table per entity kind.
const (
	TableAuthors  = "authors"
	TableBooks    = "books"
	TableChapters = "chapters"
)

// Record is a stored document plus its store-only fields. CreatedAt and
// UpdatedAt never take part in business equality; callers that compare
// records use the projected payload instead.
type Record[T any] struct {
	ASIN      string
	Region    string
	Payload   T
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshRef identifies one stored entity for the background sweep.
type RefreshRef struct {
	ASIN   string
	Region string
}

// Store is a key-addressed document store over one sqlite table.
// The payload column holds the canonical record as JSON.
type Store[T any] struct {
	db    *sql.DB
	table string
}

func New[T any](db *sql.DB, table string) *Store[T] {
	return &Store[T]{db: db, table: table}
}

// FindOne returns the full record including store fields, or nil when
// the entity is not present.
func (s *Store[T]) FindOne(ctx context.Context, asin string) (*Record[T], error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT asin, region, payload, created_at, updated_at FROM `+s.table+` WHERE asin = ?`, asin)

	var (
		rec     Record[T]
		payload string
	)
	if err := row.Scan(&rec.ASIN, &rec.Region, &payload, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s %s: %w", s.table, asin, err)
	}

	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal %s %s: %w", s.table, asin, err)
	}
	return &rec, nil
}

// FindOneProjected returns the public projection of a stored entity:
// the payload without any store-only fields. Nil when absent.
func (s *Store[T]) FindOneProjected(ctx context.Context, asin string) (*T, error) {
	rec, err := s.FindOne(ctx, asin)
	if err != nil || rec == nil {
		return nil, err
	}
	return &rec.Payload, nil
}

// Insert creates a new record, stamping created_at and updated_at.
func (s *Store[T]) Insert(ctx context.Context, asin, region string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", s.table, asin, err)
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO `+s.table+` (asin, region, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		asin, region, string(data), now, now,
	); err != nil {
		return fmt.Errorf("insert %s %s: %w", s.table, asin, err)
	}
	return nil
}

// Update replaces the payload of an existing record with a fresh
// updated_at stamp. created_at is write-once and left alone.
func (s *Store[T]) Update(ctx context.Context, asin string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", s.table, asin, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE `+s.table+` SET payload = ?, updated_at = ? WHERE asin = ?`,
		string(data), time.Now().UTC(), asin,
	); err != nil {
		return fmt.Errorf("update %s %s: %w", s.table, asin, err)
	}
	return nil
}

// Delete removes a record. Returns false when nothing was deleted.
func (s *Store[T]) Delete(ctx context.Context, asin string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE asin = ?`, asin)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", s.table, asin, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected %s %s: %w", s.table, asin, err)
	}
	return n > 0, nil
}

// ListForRefresh returns id+region for every stored entity, least
// recently updated first, for the background sweep.
func (s *Store[T]) ListForRefresh(ctx context.Context) ([]RefreshRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT asin, region FROM `+s.table+` ORDER BY updated_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []RefreshRef
	for rows.Next() {
		var ref RefreshRef
		if err := rows.Scan(&ref.ASIN, &ref.Region); err != nil {
			return nil, fmt.Errorf("scan ref %s: %w", s.table, err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err %s: %w", s.table, err)
	}
	return out, nil
}
