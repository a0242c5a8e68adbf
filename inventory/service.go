// Package inventory exposes the search and write operations of the
// Entity, Environment and Device hierarchy.
//
// Reads never fail: a storage fault is logged and reported as an empty
// result. Writes return a [Result] carrying an HTTP-style status:
//
//   - 200 the record was written and linked from its parent
//   - 412 a required ancestor does not exist; nothing was written
//   - 400 any other fault
//
// A write is two steps: the record itself, then a link on its parent.
// They are not atomic. When the second step fails the record stays
// written and [Result.LinkPending] is set; [Service.StampLink] can be
// retried later to complete it.
package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/search"
	"github.com/jacentio/rookery/store"
)

// Config configures a Service.
type Config struct {
	// Endpoint is the base URL links are built from
	// (e.g., "https://inventory.example.com/v1").
	Endpoint string

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Result is the outcome of a write.
type Result struct {
	Status int           `json:"status"`
	Record record.Record `json:"record,omitempty"`
	Error  string        `json:"error,omitempty"`

	// LinkPending is set when the record was written but the link on its
	// parent was not.
	LinkPending bool `json:"link_pending,omitempty"`
}

// Service runs searches and writes against a connector.
type Service struct {
	conn     store.Connector
	registry *store.Registry
	planner  *search.Planner
	config   Config
	logger   *slog.Logger

	entities     store.Level
	environments store.Level
	devices      store.Level
}

// New creates a Service. The registry must describe the entity,
// environment and device levels.
func New(conn store.Connector, registry *store.Registry, config Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	s := &Service{
		conn:     conn,
		registry: registry,
		planner:  search.NewPlanner(conn),
		config:   config,
		logger:   logger,
	}

	var errs []error
	for name, dst := range map[string]*store.Level{
		store.LevelEntity:      &s.entities,
		store.LevelEnvironment: &s.environments,
		store.LevelDevice:      &s.devices,
	} {
		l, ok := registry.Level(name)
		if !ok {
			errs = append(errs, fmt.Errorf("level %q not registered", name))
			continue
		}
		*dst = l
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	return s, nil
}

// Registry returns the hierarchy registry.
func (s *Service) Registry() *store.Registry {
	return s.registry
}

func (s *Service) now() string {
	return s.config.Clock().UTC().Format(time.RFC3339Nano)
}
