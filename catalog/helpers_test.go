package catalog_test

import (
	"context"
	"testing"

	"github.com/civicdata/metastore/catalog"
	"github.com/civicdata/metastore/store"
	"github.com/civicdata/metastore/store/storetest"
)

const metadataTable = "dataset-metadata"

func newTestCatalog(t *testing.T) (*catalog.Catalog, *storetest.Client) {
	t.Helper()
	client := storetest.NewClient()
	client.CreateTable(metadataTable, "Id", "Type")
	return catalog.New(store.New(client, store.DefaultConfig())), client
}

// createDataset creates a dataset from a title and fails the test on error.
func createDataset(t *testing.T, c *catalog.Catalog, content catalog.Item) string {
	t.Helper()
	id, err := c.Datasets.Create(context.Background(), content)
	if err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	return id
}

// createEdition creates an edition under versionID and fails the test on error.
func createEdition(t *testing.T, c *catalog.Catalog, versionID string, content catalog.Item) string {
	t.Helper()
	id, err := c.Editions.Create(context.Background(), versionID, content)
	if err != nil {
		t.Fatalf("create edition: %v", err)
	}
	return id
}

// stringAttr reads a string attribute from a stored raw row.
func stringAttr(t *testing.T, client *storetest.Client, id, typ, attr string) string {
	t.Helper()
	raw := client.RawItem(metadataTable, id, typ)
	if raw == nil {
		t.Fatalf("row (%s, %s) not found", id, typ)
	}
	return storetest.AttrString(raw[attr])
}
