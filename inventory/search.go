package inventory

import (
	"context"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/search"
	"github.com/jacentio/rookery/store"
)

// SearchEntities returns the entities matching req. A non-empty entID
// restricts the search to that entity.
func (s *Service) SearchEntities(ctx context.Context, entID string, req search.Request) []record.Record {
	return s.search(ctx, s.entities, search.IDs{EntID: entID}, req)
}

// SearchEnvironments returns the environments matching req under the
// supplied ids.
func (s *Service) SearchEnvironments(ctx context.Context, entID, envID string, req search.Request) []record.Record {
	return s.search(ctx, s.environments, search.IDs{EntID: entID, EnvID: envID}, req)
}

// SearchDevices returns the devices matching req under the supplied ids.
func (s *Service) SearchDevices(ctx context.Context, entID, envID, devID string, req search.Request) []record.Record {
	return s.search(ctx, s.devices, search.IDs{EntID: entID, EnvID: envID, DevID: devID}, req)
}

func (s *Service) search(ctx context.Context, l store.Level, ids search.IDs, req search.Request) []record.Record {
	records, err := s.planner.Search(ctx, l, ids, req)
	if err != nil {
		s.fault(ctx, "search "+l.Name, err, "ids", ids.Filters())
		return []record.Record{}
	}
	if records == nil {
		return []record.Record{}
	}
	return records
}
