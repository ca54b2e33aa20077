// Package stream provides DynamoDB Streams handlers for the metadata table.
package stream

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/civicdata/metastore/catalog"
	"github.com/civicdata/metastore/store"
)

// Handler repairs subtrees left behind by interrupted cascade deletes.
//
// A cascade walks children synchronously and a failure partway through
// leaves a partially deleted subtree. Each successful row removal produces a
// REMOVE stream record; replaying those records through this handler deletes
// whatever descendants the removed row still has, so the delete converges.
type Handler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(c *catalog.Catalog, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		catalog: c,
		logger:  logger,
	}
}

// HandleSubtreeRepair processes DynamoDB stream events for the metadata
// table. Designed to be used as an AWS Lambda handler.
func (h *Handler) HandleSubtreeRepair(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord sweeps the descendants of a single removed row.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "REMOVE" {
		return nil
	}

	id := getStringAttr(record.Change.OldImage, "Id")
	typ := store.EntityType(getStringAttr(record.Change.OldImage, "Type"))
	if id == "" || typ == "" {
		return nil
	}

	// Alias rows mirror a sibling; they have no subtree of their own.
	if strings.HasSuffix(id, "/latest") {
		return nil
	}

	repo := h.catalog.RepositoryFor(typ)
	if repo == nil {
		return nil
	}

	h.logger.Info("sweeping orphaned descendants",
		"id", id,
		"type", typ,
	)
	return repo.DeleteChildren(ctx, id)
}

// getStringAttr extracts a string attribute from a stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	v, ok := image[key]
	if !ok || v.DataType() != events.DataTypeString {
		return ""
	}
	return v.String()
}
