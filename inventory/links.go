package inventory

import (
	"context"
	"net/url"
	"strings"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/store"
)

// collections maps identifier attributes to their path segment.
var collections = map[string]string{
	record.FieldEntID: "entities",
	record.FieldEnvID: "environments",
	record.FieldDevID: "devices",
}

// LinkValue returns the link stored for childID: base itself when it
// already ends with childID, base + "/" + childID otherwise.
func LinkValue(base, childID string) string {
	if strings.HasSuffix(base, childID) {
		return base
	}
	return base + "/" + childID
}

// ResourceURL returns the address of the record of level l named by ids.
func (s *Service) ResourceURL(l store.Level, ids store.Filters) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(s.config.Endpoint, "/"))
	for _, attr := range l.KeyAttrs {
		segment, ok := collections[attr]
		if !ok {
			segment = strings.TrimSuffix(attr, "_id")
		}
		b.WriteString("/" + segment + "/" + url.PathEscape(ids[attr]))
	}
	return b.String()
}

// StampLink records the child of level l named by ids in the links map of
// its parent and sets the parent's updated_at to stamp. It does nothing
// for the root level. An empty stamp is replaced by the current time. It
// is safe to call again for a child that is already linked.
func (s *Service) StampLink(ctx context.Context, l store.Level, ids store.Filters, stamp string) error {
	p, ok := s.registry.ParentOf(l.Name)
	if !ok {
		return nil
	}
	if stamp == "" {
		stamp = s.now()
	}
	childID := ids[l.IDAttr()]
	link := LinkValue(s.ResourceURL(l, ids), url.PathEscape(childID))

	err := s.conn.MergeMap(ctx, p.Table, subset(ids, p.KeyAttrs), record.FieldLinks,
		map[string]record.Value{childID: record.String(link)},
		record.Record{record.FieldUpdatedAt: record.String(stamp)})
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "link stamped", "parent", p.Name, "child", childID, "link", link)
	return nil
}
