// Package memstore implements store.Connector in memory on go-memdb. It
// backs the service tests and the "memory" backend of the CLI.
package memstore

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/store"
)

const idIndex = "id"

// row is the object stored in every memdb table. Rows are never mutated
// after insertion; updates replace them.
type row struct {
	Key    string
	Record record.Record
}

// Store is an in-memory Connector.
type Store struct {
	db       *memdb.MemDB
	registry *store.Registry
}

var _ store.Connector = (*Store)(nil)

// New creates an empty Store with one table per registry level.
func New(registry *store.Registry) (*Store, error) {
	tables := make(map[string]*memdb.TableSchema)
	for _, l := range registry.Levels() {
		tables[l.Table] = &memdb.TableSchema{
			Name: l.Table,
			Indexes: map[string]*memdb.IndexSchema{
				idIndex: {
					Name:    idIndex,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Key"},
				},
			},
		}
	}

	db, err := memdb.NewMemDB(&memdb.DBSchema{Tables: tables})
	if err != nil {
		return nil, fmt.Errorf("memstore: schema: %w", err)
	}
	return &Store{db: db, registry: registry}, nil
}

func (s *Store) level(table string) (store.Level, error) {
	l, ok := s.registry.ByTable(table)
	if !ok {
		return store.Level{}, fmt.Errorf("%w: %s", store.ErrUnknownTable, table)
	}
	return l, nil
}

func opErr(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &store.OpError{Op: op, Table: table, Err: err}
}

// Fetch returns the records of table matching filters in key order.
func (s *Store) Fetch(ctx context.Context, table string, filters store.Filters) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, opErr("fetch", table, err)
	}
	records, err := s.scan(table, filters)
	return records, opErr("fetch", table, err)
}

// FetchOne returns the single record of table matching filters.
func (s *Store) FetchOne(ctx context.Context, table string, filters store.Filters) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, opErr("fetch_one", table, err)
	}
	records, err := s.scan(table, filters)
	if err != nil {
		return nil, opErr("fetch_one", table, err)
	}
	switch len(records) {
	case 0:
		return nil, opErr("fetch_one", table, store.ErrNotFound)
	case 1:
		return records[0], nil
	}
	return nil, opErr("fetch_one", table, store.ErrMultipleRecords)
}

func (s *Store) scan(table string, filters store.Filters) ([]record.Record, error) {
	l, err := s.level(table)
	if err != nil {
		return nil, err
	}
	filters = filters.Compact()

	txn := s.db.Txn(false)
	defer txn.Abort()

	if l.HasFullKey(filters) {
		key, _ := l.Key(filters)
		raw, err := txn.First(table, idIndex, key)
		if err != nil {
			return nil, err
		}
		if raw == nil || !filters.Matches(raw.(*row).Record) {
			return nil, nil
		}
		return []record.Record{raw.(*row).Record.Clone()}, nil
	}

	it, err := txn.Get(table, idIndex)
	if err != nil {
		return nil, err
	}
	var records []record.Record
	for obj := it.Next(); obj != nil; obj = it.Next() {
		r := obj.(*row).Record
		if filters.Matches(r) {
			records = append(records, r.Clone())
		}
	}
	return records, nil
}

// Insert stores a new record.
func (s *Store) Insert(ctx context.Context, table string, fields record.Record) error {
	if err := ctx.Err(); err != nil {
		return opErr("insert", table, err)
	}
	l, err := s.level(table)
	if err != nil {
		return opErr("insert", table, err)
	}
	key, err := l.Key(l.KeyOf(fields))
	if err != nil {
		return opErr("insert", table, err)
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(table, idIndex, key)
	if err != nil {
		return opErr("insert", table, err)
	}
	if existing != nil {
		return opErr("insert", table, store.ErrAlreadyExists)
	}
	if err := txn.Insert(table, &row{Key: key, Record: fields.Clone()}); err != nil {
		return opErr("insert", table, err)
	}
	txn.Commit()
	return nil
}

// Update overwrites fields of an existing record.
func (s *Store) Update(ctx context.Context, table string, filters store.Filters, fields record.Record) error {
	err := s.modify(ctx, table, filters, func(l store.Level, r record.Record) {
		for k, v := range fields {
			if contains(l.KeyAttrs, k) {
				continue
			}
			r[k] = v.Clone()
		}
	})
	return opErr("update", table, err)
}

// MergeMap sets entries inside the map held in field and overwrites fields.
func (s *Store) MergeMap(ctx context.Context, table string, filters store.Filters, field string, entries map[string]record.Value, fields record.Record) error {
	err := s.modify(ctx, table, filters, func(l store.Level, r record.Record) {
		merged := make(map[string]record.Value)
		for k, v := range r[field].Entries() {
			merged[k] = v
		}
		for k, v := range entries {
			merged[k] = v.Clone()
		}
		r[field] = record.Map(merged)

		for k, v := range fields {
			if k == field || contains(l.KeyAttrs, k) {
				continue
			}
			r[k] = v.Clone()
		}
	})
	return opErr("merge_map", table, err)
}

// modify applies fn to a copy of the record identified by filters and
// stores the result.
func (s *Store) modify(ctx context.Context, table string, filters store.Filters, fn func(store.Level, record.Record)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l, err := s.level(table)
	if err != nil {
		return err
	}
	key, err := l.Key(filters.Compact())
	if err != nil {
		return err
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(table, idIndex, key)
	if err != nil {
		return err
	}
	if raw == nil {
		return store.ErrNotFound
	}

	r := raw.(*row).Record.Clone()
	fn(l, r)
	if err := txn.Insert(table, &row{Key: key, Record: r}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
