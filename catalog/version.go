package catalog

import (
	"context"

	"github.com/civicdata/metastore/store"
)

// VersionRepository manages versions nested under a dataset.
type VersionRepository struct {
	engine
}

// Create writes a new version under datasetID and overwrites the dataset's
// latest alias with a copy of it.
func (r *VersionRepository) Create(ctx context.Context, datasetID string, content Item) (string, error) {
	version, _ := content["version"].(string)
	if version == "" {
		return "", &ValidationError{Attribute: "version", Reason: "required"}
	}

	id := datasetID + "/" + version
	if _, err := r.create(ctx, id, content, datasetID, store.TypeDataset, false); err != nil {
		return "", err
	}
	if err := r.writeAlias(ctx, datasetID, id, content); err != nil {
		return "", err
	}
	return id, nil
}

// Update replaces a version's attributes, refreshing the dataset's latest
// alias when this version is the one it points at.
func (r *VersionRepository) Update(ctx context.Context, id string, content Item) (string, error) {
	written, err := r.update(ctx, id, content, false)
	if err != nil {
		return "", err
	}
	return id, r.refreshAlias(ctx, parentScope(id), id, written)
}

// Patch shallow-merges onto a version, refreshing the dataset's latest alias
// when this version is the one it points at.
func (r *VersionRepository) Patch(ctx context.Context, id string, content Item) (string, error) {
	written, err := r.update(ctx, id, content, true)
	if err != nil {
		return "", err
	}
	return id, r.refreshAlias(ctx, parentScope(id), id, written)
}
