// Package search implements the read path: request parsing, the deep
// matcher and the planner choosing between a direct key lookup and a
// scan-and-filter over the candidate records.
package search

import (
	"context"
	"errors"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/store"
)

// Planner runs searches against a connector.
type Planner struct {
	conn store.Connector
}

// NewPlanner creates a Planner reading from conn.
func NewPlanner(conn store.Connector) *Planner {
	return &Planner{conn: conn}
}

// Search returns the normalized records of level matching ids and req.
//
// When fuzzy mode is off and ids name the complete key of the level, the
// record is fetched directly and any other criteria are ignored; a missing
// record yields an empty result. Otherwise every record matching the
// supplied ids is read and kept when any criterion matches it.
//
// Connector errors are returned unchanged; callers decide how to report them.
func (p *Planner) Search(ctx context.Context, level store.Level, ids IDs, req Request) ([]record.Record, error) {
	filters := ids.Filters()

	if !req.Fuzzy && level.HasFullKey(filters) {
		r, err := p.conn.FetchOne(ctx, level.Table, filters)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []record.Record{record.Normalize(r)}, nil
	}

	candidates, err := p.conn.Fetch(ctx, level.Table, filters)
	if err != nil {
		return nil, err
	}

	criteria := req.Criteria()
	var out []record.Record
	for _, c := range candidates {
		r := record.Normalize(c)
		if Evaluate(r, criteria, req.Fuzzy) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Evaluate reports whether r satisfies any criterion. Fields absent or
// empty in r are skipped. With no criteria every record is kept.
func Evaluate(r record.Record, criteria []Criterion, fuzzy bool) bool {
	if len(criteria) == 0 {
		return true
	}
	for _, c := range criteria {
		v, ok := r[c.Field]
		if !ok || v.IsEmpty() {
			continue
		}
		if Matches(v, c.Value, fuzzy) {
			return true
		}
	}
	return false
}
