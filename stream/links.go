// Package stream provides DynamoDB Streams handlers that complete the
// parent link of records written through the inventory service.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/rookery/inventory"
	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/store"
)

// Handler processes DynamoDB stream events for link reconciliation.
type Handler struct {
	service *inventory.Service
	logger  *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(svc *inventory.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: svc,
		logger:  logger,
	}
}

// HandleLinkStream stamps the parent link of every environment and device
// inserted or modified in the batch. Stamping is idempotent, so a record
// whose link was already written by the service is simply stamped again.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleLinkStream(ctx context.Context, event events.DynamoDBEvent) error {
	for _, rec := range event.Records {
		if err := h.processRecord(ctx, rec); err != nil {
			h.logger.Error("failed to process record",
				"eventID", rec.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, rec events.DynamoDBEventRecord) error {
	switch events.DynamoDBOperationType(rec.EventName) {
	case events.DynamoDBOperationTypeInsert, events.DynamoDBOperationTypeModify:
	default:
		return nil
	}

	table := tableFromARN(rec.EventSourceArn)
	level, ok := h.service.Registry().ByTable(table)
	if !ok {
		h.logger.Debug("skipping unknown table", "table", table, "eventID", rec.EventID)
		return nil
	}
	if level.Parent == "" {
		return nil
	}

	// A modify touching only links and updated_at is a link stamp on this
	// record; its own parent link is unaffected.
	if events.DynamoDBOperationType(rec.EventName) == events.DynamoDBOperationTypeModify &&
		onlyLinksChanged(rec.Change.OldImage, rec.Change.NewImage) {
		return nil
	}

	ids, ok := recordKey(level, rec.Change)
	if !ok {
		h.logger.Warn("stream record without a complete key",
			"table", table,
			"eventID", rec.EventID,
		)
		return nil
	}

	stamp := getStringAttr(rec.Change.NewImage, record.FieldUpdatedAt)
	if err := h.service.StampLink(ctx, level, ids, stamp); err != nil {
		return fmt.Errorf("stamp link for %s %v: %w", level.Name, ids, err)
	}

	h.logger.Info("link reconciled",
		"level", level.Name,
		"key", ids,
	)
	return nil
}

// recordKey returns the key of the changed record. The identifier
// attributes of the new image are preferred; the composite key of the
// stream keys or the image is decoded when they are missing.
func recordKey(level store.Level, change events.DynamoDBStreamRecord) (store.Filters, bool) {
	ids := make(store.Filters, len(level.KeyAttrs))
	for _, attr := range level.KeyAttrs {
		ids[attr] = getStringAttr(change.NewImage, attr)
	}
	if level.HasFullKey(ids) {
		return ids, true
	}

	key := getStringAttr(change.Keys, store.KeyAttr)
	if key == "" {
		key = getStringAttr(change.NewImage, store.KeyAttr)
	}
	if key == "" {
		return nil, false
	}
	ids, err := level.ParseKey(key)
	return ids, err == nil
}

// onlyLinksChanged reports whether the two images differ in nothing but
// their links and updated_at fields.
func onlyLinksChanged(oldImage, newImage map[string]events.DynamoDBAttributeValue) bool {
	if oldImage == nil {
		return false
	}
	before, after := ImageRecord(oldImage), ImageRecord(newImage)
	for _, r := range []record.Record{before, after} {
		delete(r, record.FieldLinks)
		delete(r, record.FieldUpdatedAt)
	}
	if len(before) != len(after) {
		return false
	}
	for k, v := range after {
		if !v.Equal(before[k]) {
			return false
		}
	}
	return true
}
