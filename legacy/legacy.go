// Package legacy layers pre-migration reads over a catalogue repository.
//
// During the schema migration window, records not yet copied into the
// unified metadata table still live in per-entity legacy tables keyed by
// dedicated attributes instead of the compound Id. The [Fallback] decorator
// serves those records read-only: it activates only on a primary-store miss,
// never writes, and treats any legacy-side failure as a miss, since the
// unified table is authoritative once an item exists there. Remove the
// decorator once migration completes.
package legacy

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/civicdata/metastore/catalog"
)

// Client is the DynamoDB surface the fallback reads the legacy table with.
// Satisfied by *dynamodb.Client.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Source describes one entity type's pre-migration table.
type Source struct {
	// TableName is the legacy table.
	TableName string

	// Key derives the legacy primary key from a unified compound Id.
	// Returning false skips the fallback for that id.
	Key func(id string) (map[string]types.AttributeValue, bool)

	// Translate converts a legacy row into the unified entity shape,
	// including its compound Id and Type.
	Translate func(row map[string]any) catalog.Item
}

// Fallback decorates a repository with read-time fallback to a legacy table.
type Fallback struct {
	catalog.Repository
	client Client
	source Source
}

// Wrap decorates inner with the legacy source. Writes pass through
// untouched.
func Wrap(inner catalog.Repository, client Client, source Source) *Fallback {
	return &Fallback{Repository: inner, client: client, source: source}
}

// Get serves a primary miss from the legacy table when possible.
func (f *Fallback) Get(ctx context.Context, id string, consistent bool) (catalog.Item, error) {
	item, err := f.Repository.Get(ctx, id, consistent)
	if err == nil || !errors.Is(err, catalog.ErrNotFound) {
		return item, err
	}
	if legacy := f.lookup(ctx, id); legacy != nil {
		return legacy, nil
	}
	return nil, err
}

// List merges legacy rows not yet present in the primary results.
func (f *Fallback) List(ctx context.Context, parentID string, filters map[string]string) ([]catalog.Item, error) {
	items, err := f.Repository.List(ctx, parentID, filters)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		seen[item.ID()] = true
	}

	for _, legacy := range f.scan(ctx) {
		id := legacy.ID()
		if id == "" || seen[id] {
			continue
		}
		if parentID != "" && !belongsTo(legacy, parentID) {
			continue
		}
		if !matchesFilters(legacy, filters) {
			continue
		}
		items = append(items, legacy)
	}
	return items, nil
}

func (f *Fallback) lookup(ctx context.Context, id string) catalog.Item {
	key, ok := f.source.Key(id)
	if !ok {
		return nil
	}
	result, err := f.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(f.source.TableName),
		Key:       key,
	})
	if err != nil || result.Item == nil {
		return nil
	}
	var row map[string]any
	if err := attributevalue.UnmarshalMap(result.Item, &row); err != nil {
		return nil
	}
	return f.source.Translate(row)
}

func (f *Fallback) scan(ctx context.Context) []catalog.Item {
	result, err := f.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(f.source.TableName),
	})
	if err != nil {
		return nil
	}
	out := make([]catalog.Item, 0, len(result.Items))
	for _, raw := range result.Items {
		var row map[string]any
		if err := attributevalue.UnmarshalMap(raw, &row); err != nil {
			continue
		}
		out = append(out, f.source.Translate(row))
	}
	return out
}

// belongsTo matches a legacy item against a parent either by Id prefix
// (nested types) or by its parent_id attribute (datasets).
func belongsTo(item catalog.Item, parentID string) bool {
	if strings.HasPrefix(item.ID(), parentID+"/") {
		return true
	}
	pid, _ := item["parent_id"].(string)
	return pid == parentID
}

func matchesFilters(item catalog.Item, filters map[string]string) bool {
	for attr, want := range filters {
		got, _ := item[attr].(string)
		if got != want {
			return false
		}
	}
	return true
}
