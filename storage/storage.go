// Package storage is the durable-state collaborator of the engine: typed CRUD
// over SQLite for surveys, data entries, responses, admin users and sessions.
// Handlers receive a *Store explicitly; no global handle exists.
package storage

import (
	"database/sql"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func newID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "generate id")
	}
	return id.String(), nil
}

// notFoundIfNoRows maps sql.ErrNoRows onto ErrNotFound, wrapping anything
// else with the given operation code.
func notFoundIfNoRows(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, op)
}

// checkAffected turns a zero-row write into ErrNotFound.
func checkAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}
