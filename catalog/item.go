package catalog

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/civicdata/metastore/store"
)

// Item is the caller-facing view of a catalogue entity: a sparse document
// keyed by attribute name. The "Id" and "Type" attributes are managed by the
// repositories and never taken from caller input.
type Item map[string]any

// ID returns the entity's compound Id.
func (i Item) ID() string {
	s, _ := i["Id"].(string)
	return s
}

func (i Item) clone() Item {
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

func marshalItem(item Item) (store.Item, error) {
	raw, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	return raw, nil
}

func unmarshalItem(raw store.Item) (Item, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return Item(m), nil
}
