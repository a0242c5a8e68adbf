package search_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/search"
	"github.com/jacentio/rookery/store"
	"github.com/jacentio/rookery/store/memstore"
)

// countingConnector records which connector calls a search made.
type countingConnector struct {
	store.Connector
	fetches   int
	fetchOnes int
	failWith  error
}

func (c *countingConnector) Fetch(ctx context.Context, table string, filters store.Filters) ([]record.Record, error) {
	c.fetches++
	if c.failWith != nil {
		return nil, &store.OpError{Op: "fetch", Table: table, Err: c.failWith}
	}
	return c.Connector.Fetch(ctx, table, filters)
}

func (c *countingConnector) FetchOne(ctx context.Context, table string, filters store.Filters) (record.Record, error) {
	c.fetchOnes++
	if c.failWith != nil {
		return nil, &store.OpError{Op: "fetch_one", Table: table, Err: c.failWith}
	}
	return c.Connector.FetchOne(ctx, table, filters)
}

func seed(t *testing.T) (*countingConnector, *store.Registry) {
	t.Helper()
	reg := store.DefaultRegistry(store.DefaultConfig())
	mem, err := memstore.New(reg)
	require.NoError(t, err)

	ctx := context.Background()
	entities, _ := reg.Level(store.LevelEntity)
	devices, _ := reg.Level(store.LevelDevice)

	require.NoError(t, mem.Insert(ctx, entities.Table, record.Record{
		"ent_id": record.String("e1"),
		"tags":   record.Strings("prod"),
		"vars":   record.Map(map[string]record.Value{"note": record.String("alpha,beta,gamma")}),
	}))
	require.NoError(t, mem.Insert(ctx, entities.Table, record.Record{
		"ent_id": record.String("e2"),
		"tags":   record.Strings("staging"),
		"vars":   record.Map(map[string]record.Value{"cfg": record.String(`{"region":"eu-west-1"}`)}),
	}))
	require.NoError(t, mem.Insert(ctx, devices.Table, record.Record{
		"ent_id": record.String("e1"),
		"env_id": record.String("v1"),
		"dev_id": record.String("d1"),
		"ports":  record.Strings("22", "443"),
	}))
	require.NoError(t, mem.Insert(ctx, devices.Table, record.Record{
		"ent_id": record.String("e1"),
		"env_id": record.String("v1"),
		"dev_id": record.String("d2"),
		"ports":  record.Strings("80"),
	}))
	return &countingConnector{Connector: mem}, reg
}

func level(t *testing.T, reg *store.Registry, name string) store.Level {
	t.Helper()
	l, ok := reg.Level(name)
	require.True(t, ok)
	return l
}

func ids(records []record.Record, attr string) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Str(attr))
	}
	return out
}

func TestPlanner_FuzzyVarToken(t *testing.T) {
	conn, reg := seed(t)
	p := search.NewPlanner(conn)

	got, err := p.Search(context.Background(), level(t, reg, store.LevelEntity), search.IDs{},
		search.Request{Fuzzy: true, Hints: search.Hints{Var: "BET"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids(got, "ent_id"))

	exact, err := p.Search(context.Background(), level(t, reg, store.LevelEntity), search.IDs{},
		search.Request{Hints: search.Hints{Var: "BET"}})
	require.NoError(t, err)
	assert.Empty(t, exact)
}

func TestPlanner_NormalizesCandidates(t *testing.T) {
	conn, reg := seed(t)
	p := search.NewPlanner(conn)

	got, err := p.Search(context.Background(), level(t, reg, store.LevelEntity), search.IDs{},
		search.Request{Hints: search.Hints{Var: "eu-west-1"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e2", got[0].Str("ent_id"))
	assert.Equal(t, record.KindMap, got[0]["vars"].Entries()["cfg"].Kind())
}

func TestPlanner_ExactKeyBypass(t *testing.T) {
	conn, reg := seed(t)
	p := search.NewPlanner(conn)

	req := search.Request{
		Hints:       search.Hints{Port: "nope"},
		Constraints: map[string]record.Value{"owner": record.String("nobody")},
	}
	got, err := p.Search(context.Background(), level(t, reg, store.LevelDevice),
		search.IDs{EntID: "e1", EnvID: "v1", DevID: "d1"}, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids(got, "dev_id"))
	assert.Equal(t, 1, conn.fetchOnes)
	assert.Equal(t, 0, conn.fetches)

	missing, err := p.Search(context.Background(), level(t, reg, store.LevelDevice),
		search.IDs{EntID: "e1", EnvID: "v1", DevID: "d9"}, req)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestPlanner_PartialIDsScan(t *testing.T) {
	conn, reg := seed(t)
	p := search.NewPlanner(conn)

	all, err := p.Search(context.Background(), level(t, reg, store.LevelDevice),
		search.IDs{EntID: "e1", EnvID: "v1"}, search.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, ids(all, "dev_id"))
	assert.Equal(t, 0, conn.fetchOnes)

	byPort, err := p.Search(context.Background(), level(t, reg, store.LevelDevice),
		search.IDs{EntID: "e1"}, search.Request{Hints: search.Hints{Port: "443"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids(byPort, "dev_id"))
}

func TestPlanner_FuzzyWithFullKeyScans(t *testing.T) {
	conn, reg := seed(t)
	p := search.NewPlanner(conn)

	got, err := p.Search(context.Background(), level(t, reg, store.LevelDevice),
		search.IDs{EntID: "e1", EnvID: "v1", DevID: "d1"},
		search.Request{Fuzzy: true, Hints: search.Hints{Port: "8"}})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, conn.fetches)
	assert.Equal(t, 0, conn.fetchOnes)
}

func TestPlanner_OrAcrossCriteria(t *testing.T) {
	conn, reg := seed(t)
	p := search.NewPlanner(conn)

	got, err := p.Search(context.Background(), level(t, reg, store.LevelEntity), search.IDs{},
		search.Request{
			Hints:       search.Hints{Tag: "staging"},
			Constraints: map[string]record.Value{"ent_id": record.String("e1")},
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, ids(got, "ent_id"))
}

func TestPlanner_ConnectorError(t *testing.T) {
	conn, reg := seed(t)
	conn.failWith = errors.New("throttled")
	p := search.NewPlanner(conn)

	_, err := p.Search(context.Background(), level(t, reg, store.LevelEntity), search.IDs{}, search.Request{})
	var opErr *store.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "fetch", opErr.Op)

	_, err = p.Search(context.Background(), level(t, reg, store.LevelEntity), search.IDs{EntID: "e1"}, search.Request{})
	assert.ErrorContains(t, err, "throttled")
}

func TestEvaluate(t *testing.T) {
	r := record.Record{
		"tags":  record.Strings("a"),
		"owner": record.String(""),
	}
	assert.True(t, search.Evaluate(r, nil, false))
	assert.False(t, search.Evaluate(r, []search.Criterion{{Field: "owner", Value: record.String("")}}, false))
	assert.False(t, search.Evaluate(r, []search.Criterion{{Field: "missing", Value: record.String("a")}}, false))
	assert.True(t, search.Evaluate(r, []search.Criterion{
		{Field: "missing", Value: record.String("a")},
		{Field: "tags", Value: record.String("a")},
	}, false))
}
