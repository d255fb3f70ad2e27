package db

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("person not found")

// PersistenceError reports a failed local storage read or write. The
// operation that returned it had no effect.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
