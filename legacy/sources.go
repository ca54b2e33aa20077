package legacy

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/civicdata/metastore/catalog"
	"github.com/civicdata/metastore/store"
)

// DatasetSource reads the pre-migration dataset table, keyed by a plain
// datasetID attribute.
func DatasetSource(table string) Source {
	return Source{
		TableName: table,
		Key: func(id string) (map[string]types.AttributeValue, bool) {
			if id == "" || strings.Contains(id, "/") {
				return nil, false
			}
			return map[string]types.AttributeValue{
				"datasetID": &types.AttributeValueMemberS{Value: id},
			}, true
		},
		Translate: func(row map[string]any) catalog.Item {
			id, _ := row["datasetID"].(string)
			return translate(row, id, store.TypeDataset, "datasetID")
		},
	}
}

// VersionSource reads the pre-migration version table, keyed by datasetID
// with version as the range attribute.
func VersionSource(table string) Source {
	return Source{
		TableName: table,
		Key: func(id string) (map[string]types.AttributeValue, bool) {
			parts := strings.Split(id, "/")
			if len(parts) != 2 {
				return nil, false
			}
			return map[string]types.AttributeValue{
				"datasetID": &types.AttributeValueMemberS{Value: parts[0]},
				"version":   &types.AttributeValueMemberS{Value: parts[1]},
			}, true
		},
		Translate: func(row map[string]any) catalog.Item {
			datasetID, _ := row["datasetID"].(string)
			version, _ := row["version"].(string)
			item := translate(row, datasetID+"/"+version, store.TypeVersion, "datasetID")
			item["version"] = version
			return item
		},
	}
}

// translate copies a legacy row into the unified shape, stamping identity
// and dropping the legacy key attributes.
func translate(row map[string]any, id string, typ store.EntityType, dropAttrs ...string) catalog.Item {
	item := make(catalog.Item, len(row)+2)
	for k, v := range row {
		item[k] = v
	}
	for _, attr := range dropAttrs {
		delete(item, attr)
	}
	item["Id"] = id
	item["Type"] = string(typ)
	return item
}
