package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record matches the requested key.
	ErrNotFound = errors.New("rookery: record not found")

	// ErrParentNotFound is returned when a required ancestor record does not exist.
	ErrParentNotFound = errors.New("rookery: parent record not found")

	// ErrAlreadyExists is returned when an insert targets an existing key.
	ErrAlreadyExists = errors.New("rookery: record already exists")

	// ErrMultipleRecords is returned by FetchOne when the filters match more than one record.
	ErrMultipleRecords = errors.New("rookery: filters match more than one record")

	// ErrIncompleteKey is returned when a write does not carry every key attribute of its table.
	ErrIncompleteKey = errors.New("rookery: incomplete record key")

	// ErrUnknownTable is returned for tables that are not part of the registry.
	ErrUnknownTable = errors.New("rookery: unknown table")
)

// OpError records a failed connector call and the table it targeted.
type OpError struct {
	Op    string
	Table string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Table: table, Err: err}
}
