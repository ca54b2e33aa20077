package catalog

import (
	"context"
	"time"

	"github.com/civicdata/metastore/store"
)

// editionTimestampLayout is the compact UTC form editions are addressed by,
// derived from the caller-supplied edition instant.
const editionTimestampLayout = "20060102T150405"

// EditionRepository manages editions nested under a version.
type EditionRepository struct {
	engine
}

// Create writes a new edition under versionID and overwrites the version's
// latest alias with a copy of it. The edition segment of the id is the
// ISO-8601 "edition" instant normalized to UTC.
func (r *EditionRepository) Create(ctx context.Context, versionID string, content Item) (string, error) {
	instant, _ := content["edition"].(string)
	if instant == "" {
		return "", &ValidationError{Attribute: "edition", Reason: "required"}
	}
	ts, err := time.Parse(time.RFC3339, instant)
	if err != nil {
		return "", &ValidationError{Attribute: "edition", Reason: "must be an ISO-8601 timestamp"}
	}

	id := versionID + "/" + ts.UTC().Format(editionTimestampLayout)
	if _, err := r.create(ctx, id, content, versionID, store.TypeVersion, false); err != nil {
		return "", err
	}
	if err := r.writeAlias(ctx, versionID, id, content); err != nil {
		return "", err
	}
	return id, nil
}

// Update replaces an edition's attributes. When the edition is the one the
// latest alias points at, the alias is refreshed with the new content;
// updating an older edition never makes it appear latest.
func (r *EditionRepository) Update(ctx context.Context, id string, content Item) (string, error) {
	written, err := r.update(ctx, id, content, false)
	if err != nil {
		return "", err
	}
	return id, r.refreshAlias(ctx, parentScope(id), id, written)
}

// Patch shallow-merges onto an edition, with the same alias refresh rule as
// Update.
func (r *EditionRepository) Patch(ctx context.Context, id string, content Item) (string, error) {
	written, err := r.update(ctx, id, content, true)
	if err != nil {
		return "", err
	}
	return id, r.refreshAlias(ctx, parentScope(id), id, written)
}
