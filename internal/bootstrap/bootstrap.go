// Package bootstrap wires configuration into a ready inventory service.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/rookery/internal/config"
	"github.com/jacentio/rookery/inventory"
	"github.com/jacentio/rookery/store"
	"github.com/jacentio/rookery/store/memstore"
)

// NewDynamoDBClient creates a DynamoDB client from the shared AWS
// configuration, overridden by the profile, region and endpoint in c.
func NewDynamoDBClient(ctx context.Context, c config.DynamoDBConfig) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}

// NewConnector returns the connector selected by cfg.Backend.
func NewConnector(ctx context.Context, cfg *config.Config) (store.Connector, *store.Registry, error) {
	storeCfg := cfg.StoreConfig()
	registry := store.DefaultRegistry(storeCfg)

	switch cfg.Backend {
	case config.BackendMemory:
		mem, err := memstore.New(registry)
		if err != nil {
			return nil, nil, err
		}
		return mem, registry, nil
	case config.BackendDynamoDB:
		client, err := NewDynamoDBClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, nil, err
		}
		return store.NewWithRegistry(client, storeCfg, registry), registry, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// NewService builds the inventory service described by cfg.
func NewService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*inventory.Service, error) {
	conn, registry, err := NewConnector(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return inventory.New(conn, registry, inventory.Config{Endpoint: cfg.Service.Endpoint}, logger)
}
