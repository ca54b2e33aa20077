package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/civicdata/metastore/internal/slug"
	"github.com/civicdata/metastore/store"
)

const (
	// sourceTypeNone marks container datasets that carry no data of their
	// own; only these may be referenced as parent datasets.
	sourceTypeNone = "none"

	initialVersion = "1"
)

// DatasetRepository manages top-level dataset entities.
type DatasetRepository struct {
	engine
}

// Create writes a new dataset together with its initial version and that
// version's latest alias in a single transaction, so a dataset is never
// observable without a usable version. The id is the slugified title; on
// collision a short random suffix is appended. The suffixed id is not
// re-checked, so a second collision surfaces as ErrResourceConflict.
func (r *DatasetRepository) Create(ctx context.Context, content Item) (string, error) {
	title, _ := content["title"].(string)
	if title == "" {
		return "", &ValidationError{Attribute: "title", Reason: "required"}
	}
	if err := r.checkParent(ctx, content); err != nil {
		return "", err
	}

	id := slug.FromTitle(title)
	if _, err := r.store.GetByKey(ctx, id, store.TypeDataset, false); err == nil {
		id = slug.WithRandomSuffix(id)
	} else if !errors.Is(err, store.ErrItemNotFound) {
		return "", err
	}

	dataset := content.clone()
	dataset["Id"] = id
	dataset["Type"] = string(store.TypeDataset)

	versionID := id + "/" + initialVersion
	version := Item{
		"Id":      versionID,
		"Type":    string(store.TypeVersion),
		"version": initialVersion,
	}
	alias := Item{
		"Id":      aliasID(id),
		"Type":    string(store.TypeVersion),
		"version": initialVersion,
		"latest":  versionID,
	}

	rows := []struct {
		item Item
		cond store.Condition
	}{
		{dataset, store.ConditionNotExists},
		{version, store.ConditionNotExists},
		{alias, store.ConditionNone},
	}
	puts := make([]store.TransactPut, 0, len(rows))
	for _, row := range rows {
		raw, err := marshalItem(row.item)
		if err != nil {
			return "", err
		}
		puts = append(puts, store.TransactPut{Item: raw, Condition: row.cond})
	}

	if err := r.store.TransactPutMultiple(ctx, puts); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return "", fmt.Errorf("%w: %s", ErrResourceConflict, id)
		}
		return "", err
	}
	return id, nil
}

// checkParent requires a referenced parent dataset to exist and to be a
// container (source type "none").
func (r *DatasetRepository) checkParent(ctx context.Context, content Item) error {
	parentID, _ := content["parent_id"].(string)
	if parentID == "" {
		return nil
	}
	parent, err := r.Get(ctx, parentID, false)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: dataset %s", ErrMissingParent, parentID)
		}
		return err
	}
	if sourceType(parent) != sourceTypeNone {
		return &ValidationError{
			Attribute: "parent_id",
			Reason:    fmt.Sprintf("dataset %s must have source type %q to be a parent", parentID, sourceTypeNone),
		}
	}
	return nil
}

func sourceType(item Item) string {
	source, _ := item["source"].(map[string]any)
	t, _ := source["type"].(string)
	return t
}
