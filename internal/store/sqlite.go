package store

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store is the fetch audit log: one row per provider call plus the raw
// response archive.
type Store struct {
	db  *sql.DB
	log logrus.FieldLogger
}

func New(db *sql.DB, log logrus.FieldLogger) *Store {
	return &Store{db: db, log: log}
}

// Open opens (creating if needed) the sqlite database at path and migrates it.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := New(db, log)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
