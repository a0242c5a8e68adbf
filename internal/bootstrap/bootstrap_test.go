package bootstrap_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/rookery/internal/bootstrap"
	"github.com/jacentio/rookery/internal/config"
	"github.com/jacentio/rookery/search"
	"github.com/jacentio/rookery/store"
	"github.com/jacentio/rookery/store/memstore"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		Backend:  backend,
		DynamoDB: config.DynamoDBConfig{Region: "eu-west-1", Endpoint: "http://localhost:8000", ScanSegments: 2},
		Tables:   config.TablesConfig{Entities: "ents", Environments: "envs", Devices: "devs"},
		Service:  config.ServiceConfig{Endpoint: "https://x"},
	}
}

func TestNewConnector_Memory(t *testing.T) {
	conn, registry, err := bootstrap.NewConnector(context.Background(), testConfig(config.BackendMemory))
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, conn)

	devices, ok := registry.Level(store.LevelDevice)
	require.True(t, ok)
	assert.Equal(t, "devs", devices.Table)
}

func TestNewConnector_DynamoDB(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	conn, _, err := bootstrap.NewConnector(context.Background(), testConfig(config.BackendDynamoDB))
	require.NoError(t, err)
	s, ok := conn.(*store.Store)
	require.True(t, ok)
	_, ok = s.Registry().ByTable("envs")
	assert.True(t, ok)
}

func TestNewConnector_UnknownBackend(t *testing.T) {
	_, _, err := bootstrap.NewConnector(context.Background(), testConfig("cassandra"))
	assert.Error(t, err)
}

func TestNewService(t *testing.T) {
	ctx := context.Background()
	svc, err := bootstrap.NewService(ctx, testConfig(config.BackendMemory), nil)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, svc.PutEntity(ctx, "e1", nil).Status)
	assert.Len(t, svc.SearchEntities(ctx, "", search.Request{}), 1)
}
