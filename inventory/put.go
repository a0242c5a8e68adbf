package inventory

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/store"
)

var (
	// ErrUnknownField is returned when a payload names a field the level
	// does not have.
	ErrUnknownField = errors.New("rookery: unknown field")

	// ErrInvalidField is returned when a payload field has the wrong shape.
	ErrInvalidField = errors.New("rookery: invalid field")
)

// PutEntity creates or updates an entity.
func (s *Service) PutEntity(ctx context.Context, entID string, payload record.Record) Result {
	return s.put(ctx, s.entities, store.Filters{record.FieldEntID: entID}, payload)
}

// PutEnvironment creates or updates an environment of an existing entity.
func (s *Service) PutEnvironment(ctx context.Context, entID, envID string, payload record.Record) Result {
	return s.put(ctx, s.environments, store.Filters{
		record.FieldEntID: entID,
		record.FieldEnvID: envID,
	}, payload)
}

// PutDevice creates or updates a device of an existing environment.
func (s *Service) PutDevice(ctx context.Context, entID, envID, devID string, payload record.Record) Result {
	return s.put(ctx, s.devices, store.Filters{
		record.FieldEntID: entID,
		record.FieldEnvID: envID,
		record.FieldDevID: devID,
	}, payload)
}

func (s *Service) put(ctx context.Context, l store.Level, ids store.Filters, payload record.Record) Result {
	ids = ids.Compact()
	if !l.HasFullKey(ids) {
		return failed(http.StatusBadRequest, fmt.Errorf("%s: %w", l.Name, store.ErrIncompleteKey))
	}

	fields, err := checkPayload(l, ids, payload)
	if err != nil {
		return failed(http.StatusBadRequest, err)
	}

	// 1. Ancestors, nearest first
	for p, ok := s.registry.ParentOf(l.Name); ok; p, ok = s.registry.ParentOf(p.Name) {
		if res, ok := s.checkParent(ctx, p, ids); !ok {
			return res
		}
	}

	// 2. Coalesce tags and pick the write path
	update, err := s.coalesce(ctx, l, ids, fields)
	if err != nil {
		id := s.fault(ctx, "read before write", err, "level", l.Name, "key", ids)
		return faulted(err, id)
	}

	// 3. Commit
	stamp := s.now()
	written, err := s.commit(ctx, l, ids, fields, update, stamp)
	if err != nil {
		id := s.fault(ctx, "write failed", err, "level", l.Name, "key", ids)
		return faulted(err, id)
	}

	res := Result{Status: http.StatusOK, Record: record.Normalize(written)}

	// 4. Link on the parent
	if err := s.StampLink(ctx, l, ids, stamp); err != nil {
		id := s.fault(ctx, "link stamp failed", err, "level", l.Name, "key", ids)
		res = faulted(err, id)
		res.Record = record.Normalize(written)
		res.LinkPending = true
	}
	return res
}

// checkPayload validates payload against the columns of l and returns a
// copy. Identifier fields must agree with ids.
func checkPayload(l store.Level, ids store.Filters, payload record.Record) (record.Record, error) {
	fields := make(record.Record, len(payload))
	for _, k := range payload.Fields() {
		v := payload[k]
		if contains(l.KeyAttrs, k) {
			if s, _ := v.Str(); s != ids[k] {
				return nil, fmt.Errorf("%w: %s does not match the request", ErrInvalidField, k)
			}
			continue
		}
		if !l.HasColumn(k) {
			return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, l.Name, k)
		}
		if err := checkShape(k, v); err != nil {
			return nil, err
		}
		if _, ok := containerKind(k); ok && v.Kind() == record.KindNull {
			// A null container would block later map merges
			fields[k] = emptyColumn(k)
			continue
		}
		fields[k] = v.Clone()
	}
	return fields, nil
}

// containerKind returns the kind a container column must hold.
func containerKind(field string) (record.Kind, bool) {
	switch field {
	case record.FieldTags, record.FieldPorts:
		return record.KindList, true
	case record.FieldVars, record.FieldLinks:
		return record.KindMap, true
	}
	return record.KindNull, false
}

func checkShape(field string, v record.Value) error {
	want, ok := containerKind(field)
	if !ok {
		return nil
	}
	if v.Kind() != want && v.Kind() != record.KindNull {
		return fmt.Errorf("%w: %s must be a %s, got %s", ErrInvalidField, field, want, v.Kind())
	}
	return nil
}

// checkParent reports whether the parent level p holds the ancestor named
// by ids. A false return carries the result to send back.
func (s *Service) checkParent(ctx context.Context, p store.Level, ids store.Filters) (Result, bool) {
	key := subset(ids, p.KeyAttrs)
	_, err := s.conn.FetchOne(ctx, p.Table, key)
	switch {
	case err == nil:
		return Result{}, true
	case errors.Is(err, store.ErrNotFound):
		s.logger.WarnContext(ctx, "parent not found", "level", p.Name, "key", key)
		return failed(http.StatusPreconditionFailed,
			fmt.Errorf("%w: %s [%s] was not found", store.ErrParentNotFound, p.Name, ids[p.IDAttr()])), false
	}
	id := s.fault(ctx, "parent lookup failed", err, "level", p.Name, "key", key)
	return faulted(err, id), false
}

// coalesce reads the current record. When it exists the payload tags are
// merged into its tags and the write becomes an update.
func (s *Service) coalesce(ctx context.Context, l store.Level, ids store.Filters, fields record.Record) (bool, error) {
	existing, err := s.conn.FetchOne(ctx, l.Table, ids)
	switch {
	case err == nil:
		if tags, ok := fields[record.FieldTags]; ok {
			fields[record.FieldTags] = record.TagUnion(existing[record.FieldTags], tags)
		}
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		if tags, ok := fields[record.FieldTags]; ok {
			fields[record.FieldTags] = record.Strings(record.TagSet(tags)...)
		}
		return false, nil
	}
	return false, err
}

// commit stamps and persists fields, returning what was written.
func (s *Service) commit(ctx context.Context, l store.Level, ids store.Filters, fields record.Record, update bool, stamp string) (record.Record, error) {
	fields, err := record.EncodeVars(fields)
	if err != nil {
		return nil, err
	}
	fields[record.FieldUpdatedAt] = record.String(stamp)

	if update {
		if err := s.conn.Update(ctx, l.Table, ids, fields); err != nil {
			return nil, err
		}
		out := fields.Clone()
		for k, v := range ids {
			out[k] = record.String(v)
		}
		return out, nil
	}

	fields[record.FieldCreatedAt] = record.String(stamp)
	for k, v := range ids {
		fields[k] = record.String(v)
	}
	for _, c := range l.Columns {
		if v, ok := fields[c]; !ok || v.Kind() == record.KindNull {
			fields[c] = emptyColumn(c)
		}
	}
	if err := s.conn.Insert(ctx, l.Table, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func emptyColumn(field string) record.Value {
	switch field {
	case record.FieldTags, record.FieldPorts:
		return record.List()
	}
	return record.Map(nil)
}

func failed(status int, err error) Result {
	return Result{Status: status, Error: err.Error()}
}

func faulted(err error, faultID string) Result {
	return Result{
		Status: http.StatusBadRequest,
		Error:  fmt.Sprintf("%v (fault %s)", err, faultID),
	}
}

func subset(ids store.Filters, attrs []string) store.Filters {
	out := make(store.Filters, len(attrs))
	for _, a := range attrs {
		out[a] = ids[a]
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
