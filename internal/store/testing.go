package store

import (
	"database/sql"
	"fmt"
)

// OpenMemory creates a Store backed by a private in-memory database.
// This is only intended for use in tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// every pooled connection would otherwise see its own empty database
	db.SetMaxOpenConns(1)

	return prepare(db)
}
