package legacy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/civicdata/metastore/catalog"
	"github.com/civicdata/metastore/legacy"
	"github.com/civicdata/metastore/store"
	"github.com/civicdata/metastore/store/storetest"
)

const (
	metadataTable      = "dataset-metadata"
	legacyDatasetTable = "dataset-registry"
	legacyVersionTable = "version-registry"
)

// Primary and legacy stores are separate tables on separate clients,
// mirroring the migration setup.
func newFixture(t *testing.T) (*catalog.Catalog, *storetest.Client, *storetest.Client) {
	t.Helper()
	primary := storetest.NewClient()
	primary.CreateTable(metadataTable, "Id", "Type")
	legacyClient := storetest.NewClient()
	legacyClient.CreateTable(legacyDatasetTable, "datasetID")
	legacyClient.CreateTable(legacyVersionTable, "datasetID", "version")
	return catalog.New(store.New(primary, store.DefaultConfig())), primary, legacyClient
}

func seedLegacyDataset(client *storetest.Client, id string, attrs map[string]string) {
	row := map[string]types.AttributeValue{
		"datasetID": &types.AttributeValueMemberS{Value: id},
	}
	for k, v := range attrs {
		row[k] = &types.AttributeValueMemberS{Value: v}
	}
	client.SeedItem(legacyDatasetTable, row)
}

func TestGet_PrimaryWins(t *testing.T) {
	ctx := context.Background()
	c, _, legacyClient := newFixture(t)
	seedLegacyDataset(legacyClient, "foo-bar", map[string]string{"title": "Old Foo"})

	if _, err := c.Datasets.Create(ctx, catalog.Item{"title": "Foo Bar"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	repo := legacy.Wrap(c.Datasets, legacyClient, legacy.DatasetSource(legacyDatasetTable))
	item, err := repo.Get(ctx, "foo-bar", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got, _ := item["title"].(string); got != "Foo Bar" {
		t.Errorf("expected the migrated row, got title %q", got)
	}
}

func TestGet_FallsBackOnMiss(t *testing.T) {
	ctx := context.Background()
	c, _, legacyClient := newFixture(t)
	seedLegacyDataset(legacyClient, "old-ds", map[string]string{"title": "Old Dataset"})

	repo := legacy.Wrap(c.Datasets, legacyClient, legacy.DatasetSource(legacyDatasetTable))
	item, err := repo.Get(ctx, "old-ds", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if item.ID() != "old-ds" {
		t.Errorf("expected translated Id 'old-ds', got %q", item.ID())
	}
	if got, _ := item["Type"].(string); got != "Dataset" {
		t.Errorf("expected Type 'Dataset', got %q", got)
	}
	if _, ok := item["datasetID"]; ok {
		t.Error("legacy key attribute should be dropped from the unified shape")
	}
}

func TestGet_MissEverywhere(t *testing.T) {
	ctx := context.Background()
	c, _, legacyClient := newFixture(t)

	repo := legacy.Wrap(c.Datasets, legacyClient, legacy.DatasetSource(legacyDatasetTable))
	_, err := repo.Get(ctx, "ghost", false)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_LegacyErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	c, _, legacyClient := newFixture(t)
	legacyClient.GetErr = errors.New("legacy table throttled")

	repo := legacy.Wrap(c.Datasets, legacyClient, legacy.DatasetSource(legacyDatasetTable))
	_, err := repo.Get(ctx, "old-ds", false)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound despite legacy failure, got %v", err)
	}
}

func TestGet_VersionKeyConvention(t *testing.T) {
	ctx := context.Background()
	c, _, legacyClient := newFixture(t)
	legacyClient.SeedItem(legacyVersionTable, map[string]types.AttributeValue{
		"datasetID": &types.AttributeValueMemberS{Value: "old-ds"},
		"version":   &types.AttributeValueMemberS{Value: "1"},
		"schema":    &types.AttributeValueMemberS{Value: "v1"},
	})

	repo := legacy.Wrap(c.Versions, legacyClient, legacy.VersionSource(legacyVersionTable))
	item, err := repo.Get(ctx, "old-ds/1", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.ID() != "old-ds/1" {
		t.Errorf("expected compound Id 'old-ds/1', got %q", item.ID())
	}
	if got, _ := item["schema"].(string); got != "v1" {
		t.Errorf("expected schema 'v1', got %q", got)
	}
}

func TestList_MergesUnmigratedRows(t *testing.T) {
	ctx := context.Background()
	c, _, legacyClient := newFixture(t)
	seedLegacyDataset(legacyClient, "old-ds", map[string]string{"title": "Old Dataset"})
	seedLegacyDataset(legacyClient, "foo-bar", map[string]string{"title": "Old Foo"})

	// foo-bar exists in both stores; it must appear once, from the primary.
	if _, err := c.Datasets.Create(ctx, catalog.Item{"title": "Foo Bar"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	repo := legacy.Wrap(c.Datasets, legacyClient, legacy.DatasetSource(legacyDatasetTable))
	items, err := repo.List(ctx, "", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	byID := map[string]catalog.Item{}
	for _, item := range items {
		if _, dup := byID[item.ID()]; dup {
			t.Errorf("duplicate Id %q in merged list", item.ID())
		}
		byID[item.ID()] = item
	}
	if len(byID) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(byID))
	}
	if got, _ := byID["foo-bar"]["title"].(string); got != "Foo Bar" {
		t.Errorf("migrated row should shadow the legacy one, got title %q", got)
	}
	if _, ok := byID["old-ds"]; !ok {
		t.Error("unmigrated legacy row missing from merged list")
	}
}

func TestList_LegacyScanErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	c, _, legacyClient := newFixture(t)
	legacyClient.ScanErr = errors.New("legacy table gone")

	if _, err := c.Datasets.Create(ctx, catalog.Item{"title": "Foo Bar"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	repo := legacy.Wrap(c.Datasets, legacyClient, legacy.DatasetSource(legacyDatasetTable))
	items, err := repo.List(ctx, "", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the primary result only, got %d items", len(items))
	}
}

func TestWrites_PassThrough(t *testing.T) {
	ctx := context.Background()
	c, primary, legacyClient := newFixture(t)

	if _, err := c.Datasets.Create(ctx, catalog.Item{"title": "Foo Bar"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	repo := legacy.Wrap(c.Datasets, legacyClient, legacy.DatasetSource(legacyDatasetTable))
	if _, err := repo.Patch(ctx, "foo-bar", catalog.Item{"description": "patched"}); err != nil {
		t.Fatalf("patch through the fallback failed: %v", err)
	}
	if primary.Len(metadataTable) != 3 {
		t.Errorf("expected writes to land in the primary table only")
	}
	if legacyClient.Len(legacyDatasetTable) != 0 {
		t.Error("fallback must never write to the legacy table")
	}
}
