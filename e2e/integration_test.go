//go:build e2e

// Package e2e contains end-to-end integration tests using real DynamoDB tables.
// Run with: go test -tags=e2e -v ./e2e/...
//
// The AWS profile, region and endpoint come from ROOKERY_DYNAMODB_PROFILE,
// ROOKERY_DYNAMODB_REGION and ROOKERY_DYNAMODB_ENDPOINT (e.g. DynamoDB Local).
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/rookery/internal/bootstrap"
	"github.com/jacentio/rookery/internal/config"
	"github.com/jacentio/rookery/inventory"
	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/search"
	"github.com/jacentio/rookery/store"
)

// Table names - unique per test run to avoid conflicts
const tablePrefix = "rookery-e2e-test"

var (
	testID    string
	storeCfg  store.Config
	ddbClient *dynamodb.Client
	testStore *store.Store
	service   *inventory.Service
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	// Generate unique test ID
	testID = uuid.New().String()[:8]
	storeCfg = store.Config{
		EntitiesTable:     fmt.Sprintf("%s-%s-entities", tablePrefix, testID),
		EnvironmentsTable: fmt.Sprintf("%s-%s-environments", tablePrefix, testID),
		DevicesTable:      fmt.Sprintf("%s-%s-devices", tablePrefix, testID),
		ScanSegments:      4,
	}

	fmt.Printf("Test ID: %s\n", testID)

	ctx := context.Background()
	client, err := bootstrap.NewDynamoDBClient(ctx, config.DynamoDBConfig{
		Profile:  os.Getenv("ROOKERY_DYNAMODB_PROFILE"),
		Region:   os.Getenv("ROOKERY_DYNAMODB_REGION"),
		Endpoint: os.Getenv("ROOKERY_DYNAMODB_ENDPOINT"),
	})
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}
	ddbClient = client

	if err := createTables(ctx); err != nil {
		fmt.Printf("Failed to create tables: %v\n", err)
		os.Exit(1)
	}

	testStore = store.New(ddbClient, storeCfg)
	service, err = inventory.New(testStore, testStore.Registry(), inventory.Config{Endpoint: "https://e2e.example.com"}, nil)
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := deleteTables(ctx); err != nil {
		fmt.Printf("Failed to delete tables: %v\n", err)
	}

	os.Exit(code)
}

func tables() []string {
	return []string{storeCfg.EntitiesTable, storeCfg.EnvironmentsTable, storeCfg.DevicesTable}
}

func createTables(ctx context.Context) error {
	fmt.Println("Creating test tables...")

	for _, tableName := range tables() {
		_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(tableName),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			},
			BillingMode: types.BillingModePayPerRequest,
		})
		if err != nil {
			return fmt.Errorf("create table %s: %w", tableName, err)
		}
	}

	// Wait for all tables to be active
	for _, tableName := range tables() {
		waiter := dynamodb.NewTableExistsWaiter(ddbClient)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", tableName, err)
		}
	}

	fmt.Println("All tables created and active")
	return nil
}

func deleteTables(ctx context.Context) error {
	fmt.Println("Deleting test tables...")

	for _, tableName := range tables() {
		_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", tableName, err)
		}
	}

	fmt.Println("Tables deleted")
	return nil
}

func newID() string {
	return uuid.New().String()
}

// --- Write Tests ---

func TestPut_Hierarchy(t *testing.T) {
	ctx := context.Background()
	ent, env, dev := newID(), newID(), newID()

	res := service.PutEntity(ctx, ent, record.Record{
		"tags": record.Strings("prod"),
		"vars": record.Map(map[string]record.Value{
			"cfg": record.Map(map[string]record.Value{"replicas": record.Int(3)}),
		}),
	})
	require.Equal(t, http.StatusOK, res.Status, res.Error)

	res = service.PutEnvironment(ctx, ent, env, nil)
	require.Equal(t, http.StatusOK, res.Status, res.Error)

	res = service.PutDevice(ctx, ent, env, dev, record.Record{"ports": record.Strings("22", "443")})
	require.Equal(t, http.StatusOK, res.Status, res.Error)

	ents := service.SearchEntities(ctx, ent, search.Request{})
	require.Len(t, ents, 1)
	assert.Equal(t, record.Map(map[string]record.Value{"replicas": record.Int(3)}), ents[0]["vars"].Entries()["cfg"])
	assert.Contains(t, ents[0]["links"].Keys(), env)

	envs := service.SearchEnvironments(ctx, ent, env, search.Request{})
	require.Len(t, envs, 1)
	assert.Equal(t,
		record.String(fmt.Sprintf("https://e2e.example.com/entities/%s/environments/%s/devices/%s", ent, env, dev)),
		envs[0]["links"].Entries()[dev])
}

func TestPut_ParentNotFound(t *testing.T) {
	ctx := context.Background()
	ent := newID()
	require.Equal(t, http.StatusOK, service.PutEntity(ctx, ent, nil).Status)

	res := service.PutDevice(ctx, ent, newID(), newID(), nil)
	assert.Equal(t, http.StatusPreconditionFailed, res.Status)
}

func TestPut_TagUnion(t *testing.T) {
	ctx := context.Background()
	ent := newID()

	require.Equal(t, http.StatusOK, service.PutEntity(ctx, ent, record.Record{"tags": record.Strings("a", "b")}).Status)
	require.Equal(t, http.StatusOK, service.PutEntity(ctx, ent, record.Record{"tags": record.Strings("c")}).Status)

	ents := service.SearchEntities(ctx, ent, search.Request{})
	require.Len(t, ents, 1)
	assert.Equal(t, []string{"a", "b", "c"}, record.TagSet(ents[0]["tags"]))
}

// --- Search Tests ---

func TestSearch_FuzzyParallelScan(t *testing.T) {
	ctx := context.Background()
	ent := newID()
	marker := "Marker-" + testID

	require.Equal(t, http.StatusOK, service.PutEntity(ctx, ent, record.Record{
		"vars": record.Map(map[string]record.Value{"note": record.String("alpha," + marker + ",gamma")}),
	}).Status)

	req := search.ParseRequest(url.Values{"fuzzy": {"true"}, "var": {"marker-" + testID}})
	got := service.SearchEntities(ctx, "", req)
	require.Len(t, got, 1)
	assert.Equal(t, ent, got[0].Str("ent_id"))
}

// --- Connector Tests ---

func TestStore_DuplicateInsert(t *testing.T) {
	ctx := context.Background()
	fields := record.Record{"ent_id": record.String(newID())}

	require.NoError(t, testStore.Insert(ctx, storeCfg.EntitiesTable, fields))
	err := testStore.Insert(ctx, storeCfg.EntitiesTable, fields)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestStore_UpdateNotFound(t *testing.T) {
	err := testStore.Update(context.Background(), storeCfg.EntitiesTable,
		store.Filters{"ent_id": newID()}, record.Record{"tags": record.Strings("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_MergeMapCreatesMap(t *testing.T) {
	ctx := context.Background()
	ent := newID()
	require.NoError(t, testStore.Insert(ctx, storeCfg.EntitiesTable, record.Record{"ent_id": record.String(ent)}))

	key := store.Filters{"ent_id": ent}
	require.NoError(t, testStore.MergeMap(ctx, storeCfg.EntitiesTable, key, "links",
		map[string]record.Value{"a": record.String("https://x/a")}, nil))
	require.NoError(t, testStore.MergeMap(ctx, storeCfg.EntitiesTable, key, "links",
		map[string]record.Value{"b": record.String("https://x/b")}, nil))

	got, err := testStore.FetchOne(ctx, storeCfg.EntitiesTable, key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, got["links"].Keys())
}
