package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EntityType discriminates the four catalogue levels sharing the table.
type EntityType string

const (
	TypeDataset      EntityType = "Dataset"
	TypeVersion      EntityType = "Version"
	TypeEdition      EntityType = "Edition"
	TypeDistribution EntityType = "Distribution"
)

// Item is a raw metadata table row.
type Item map[string]types.AttributeValue

// Condition selects the existence condition applied to a write.
type Condition int

const (
	// ConditionNone writes unconditionally (overwrite on exists).
	ConditionNone Condition = iota

	// ConditionNotExists fails the write if the row already exists.
	ConditionNotExists

	// ConditionExists fails the write if the row does not exist.
	ConditionExists
)

// TransactPut is one row of a multi-row transactional write.
type TransactPut struct {
	Item      Item
	Condition Condition
}

// Client is the subset of the DynamoDB API the store uses. Satisfied by
// *dynamodb.Client.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store provides conditional-write primitives over the metadata table.
type Store struct {
	client Client
	config Config
}

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// TableName returns the name of the metadata table.
func (s *Store) TableName() string {
	return s.config.TableName
}

// Key builds the compound primary key for a row.
func Key(id string, typ EntityType) Item {
	return Item{
		"Id":   &types.AttributeValueMemberS{Value: id},
		"Type": &types.AttributeValueMemberS{Value: string(typ)},
	}
}

// GetByKey retrieves the row at (id, typ), returning ErrItemNotFound on miss.
// Reads are eventually consistent unless consistent is set; pass true when
// the caller must observe its own just-completed write.
func (s *Store) GetByKey(ctx context.Context, id string, typ EntityType, consistent bool) (Item, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.TableName),
		Key:            Key(id, typ),
		ConsistentRead: aws.Bool(consistent),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if result.Item == nil {
		return nil, ErrItemNotFound
	}
	return result.Item, nil
}

// QueryByTypePrefix returns all rows of the given type whose Id starts with
// idPrefix, via the (Type, Id) secondary index. An empty prefix returns every
// row of the type. Extra equality filters are ANDed in as filter expressions
// evaluated by the store after the key condition.
func (s *Store) QueryByTypePrefix(ctx context.Context, typ EntityType, idPrefix string, filters map[string]string) ([]Item, error) {
	keyCond := "#type = :type"
	exprNames := map[string]string{"#type": "Type"}
	exprValues := map[string]types.AttributeValue{
		":type": &types.AttributeValueMemberS{Value: string(typ)},
	}

	if idPrefix != "" {
		keyCond += " AND begins_with(#id, :prefix)"
		exprNames["#id"] = "Id"
		exprValues[":prefix"] = &types.AttributeValueMemberS{Value: idPrefix}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.TableName),
		IndexName:                 aws.String(s.config.IndexName),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}

	if filterExpr := buildFilter(filters, exprNames, exprValues); filterExpr != "" {
		input.FilterExpression = aws.String(filterExpr)
	}

	var items []Item
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s %q: %w", typ, idPrefix, err)
		}
		for _, raw := range page.Items {
			items = append(items, raw)
		}
	}

	return items, nil
}

// buildFilter appends equality predicates for each filter attribute and
// returns the combined filter expression. Attributes are visited in sorted
// order so expressions are deterministic.
func buildFilter(filters map[string]string, exprNames map[string]string, exprValues map[string]types.AttributeValue) string {
	if len(filters) == 0 {
		return ""
	}

	attrs := make([]string, 0, len(filters))
	for attr := range filters {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	expr := ""
	for i, attr := range attrs {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":f%d", i)
		exprNames[nameKey] = attr
		exprValues[valueKey] = &types.AttributeValueMemberS{Value: filters[attr]}
		if i > 0 {
			expr += " AND "
		}
		expr += fmt.Sprintf("%s = %s", nameKey, valueKey)
	}
	return expr
}

// PutConditional writes a row, applying the given existence condition.
// A failed condition surfaces as ErrConditionFailed.
func (s *Store) PutConditional(ctx context.Context, item Item, cond Condition) error {
	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TableName),
		Item:      item,
	}
	if expr := conditionExpr(cond); expr != "" {
		input.ConditionExpression = aws.String(expr)
	}

	_, err := s.client.PutItem(ctx, input)
	return mapConditionError(err, "put item")
}

// DeleteConditional removes the row at (id, typ), applying the given
// existence condition. A failed condition surfaces as ErrConditionFailed.
func (s *Store) DeleteConditional(ctx context.Context, id string, typ EntityType, cond Condition) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       Key(id, typ),
	}
	if expr := conditionExpr(cond); expr != "" {
		input.ConditionExpression = aws.String(expr)
	}

	_, err := s.client.DeleteItem(ctx, input)
	return mapConditionError(err, "delete item")
}

// TransactPutMultiple writes all rows atomically. If any row's condition
// fails, nothing is written and ErrConditionFailed is returned.
func (s *Store) TransactPutMultiple(ctx context.Context, puts []TransactPut) error {
	items := make([]types.TransactWriteItem, 0, len(puts))
	for _, p := range puts {
		put := &types.Put{
			TableName: aws.String(s.config.TableName),
			Item:      p.Item,
		}
		if expr := conditionExpr(p.Condition); expr != "" {
			put.ConditionExpression = aws.String(expr)
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})

	return mapTransactionError(err)
}

func conditionExpr(cond Condition) string {
	switch cond {
	case ConditionNotExists:
		return "attribute_not_exists(Id)"
	case ConditionExists:
		return "attribute_exists(Id)"
	default:
		return ""
	}
}

// mapConditionError translates a conditional-check failure into
// ErrConditionFailed, leaving other storage errors unclassified.
func mapConditionError(err error, op string) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapTransactionError translates a cancelled transaction whose cause was a
// conditional-check failure into ErrConditionFailed.
func mapTransactionError(err error) error {
	if err == nil {
		return nil
	}
	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return ErrConditionFailed
			}
		}
	}
	return fmt.Errorf("transact write: %w", err)
}
