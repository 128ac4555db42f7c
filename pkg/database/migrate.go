package database

import (
	"database/sql"
	"fmt"
)

// One document table per entity kind. The payload column holds the full
// canonical record as JSON; created_at/updated_at are store-only fields
// and never take part in business equality.
const schema = `
CREATE TABLE IF NOT EXISTS authors (
  asin TEXT PRIMARY KEY,
  region TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_authors_updated_at ON authors(updated_at);

CREATE TABLE IF NOT EXISTS books (
  asin TEXT PRIMARY KEY,
  region TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_books_updated_at ON books(updated_at);

CREATE TABLE IF NOT EXISTS chapters (
  asin TEXT PRIMARY KEY,
  region TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chapters_updated_at ON chapters(updated_at);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
