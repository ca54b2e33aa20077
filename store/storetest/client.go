// Package storetest provides an in-memory DynamoDB fake for package tests.
//
// The fake understands exactly the expression dialect this module emits:
// equality and begins_with key conditions, equality filters, and
// attribute_exists / attribute_not_exists write conditions. It stands in for
// DynamoDB Local in the unit suites; the e2e build tag covers the real thing.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is an in-memory stand-in for *dynamodb.Client.
type Client struct {
	mu     sync.Mutex
	tables map[string]*table

	// Error injection. When set, the corresponding call fails immediately.
	GetErr      error
	QueryErr    error
	PutErr      error
	DeleteErr   error
	TransactErr error
	ScanErr     error
}

type table struct {
	keyAttrs []string
	items    map[string]map[string]types.AttributeValue
}

// NewClient creates an empty fake client.
func NewClient() *Client {
	return &Client{tables: map[string]*table{}}
}

// CreateTable registers a table with its key attribute names.
func (c *Client) CreateTable(name string, keyAttrs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = &table{
		keyAttrs: keyAttrs,
		items:    map[string]map[string]types.AttributeValue{},
	}
}

// Len returns the number of items in a table.
func (c *Client) Len(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t := c.tables[name]; t != nil {
		return len(t.items)
	}
	return 0
}

// SeedItem inserts an item directly, bypassing conditions.
func (c *Client) SeedItem(tableName string, item map[string]types.AttributeValue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.mustTable(tableName)
	t.items[t.pk(item)] = copyItem(item)
}

// DeleteRaw removes an item directly, bypassing conditions.
func (c *Client) DeleteRaw(tableName string, keyValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.mustTable(tableName)
	delete(t.items, strings.Join(keyValues, "\x1f"))
}

// HasItem reports whether an item exists at the given key values.
func (c *Client) HasItem(tableName string, keyValues ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.mustTable(tableName)
	_, ok := t.items[strings.Join(keyValues, "\x1f")]
	return ok
}

// RawItem returns the stored item at the given key values, or nil.
func (c *Client) RawItem(tableName string, keyValues ...string) map[string]types.AttributeValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.mustTable(tableName)
	item, ok := t.items[strings.Join(keyValues, "\x1f")]
	if !ok {
		return nil
	}
	return copyItem(item)
}

func (c *Client) mustTable(name string) *table {
	t, ok := c.tables[name]
	if !ok {
		panic(fmt.Sprintf("storetest: table %q not registered", name))
	}
	return t
}

func (t *table) pk(item map[string]types.AttributeValue) string {
	parts := make([]string, 0, len(t.keyAttrs))
	for _, attr := range t.keyAttrs {
		parts = append(parts, attrString(item[attr]))
	}
	return strings.Join(parts, "\x1f")
}

// GetItem implements the DynamoDB API.
func (c *Client) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return nil, c.GetErr
	}

	t := c.mustTable(aws.ToString(params.TableName))
	item, ok := t.items[t.pk(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

// PutItem implements the DynamoDB API, honoring condition expressions.
func (c *Client) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PutErr != nil {
		return nil, c.PutErr
	}

	t := c.mustTable(aws.ToString(params.TableName))
	if err := t.checkCondition(params.ConditionExpression, params.Item); err != nil {
		return nil, err
	}
	t.items[t.pk(params.Item)] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem implements the DynamoDB API, honoring condition expressions.
func (c *Client) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DeleteErr != nil {
		return nil, c.DeleteErr
	}

	t := c.mustTable(aws.ToString(params.TableName))
	if err := t.checkCondition(params.ConditionExpression, params.Key); err != nil {
		return nil, err
	}
	delete(t.items, t.pk(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// Query implements the DynamoDB API by scanning the table against the key
// condition; index selection is ignored since every attribute is available.
func (c *Client) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.QueryErr != nil {
		return nil, c.QueryErr
	}

	t := c.mustTable(aws.ToString(params.TableName))
	var out []map[string]types.AttributeValue
	for _, item := range t.items {
		if !matches(item, aws.ToString(params.KeyConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
			continue
		}
		if params.FilterExpression != nil &&
			!matches(item, aws.ToString(params.FilterExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
			continue
		}
		out = append(out, copyItem(item))
	}

	sortByAttr(out, "Id")
	return &dynamodb.QueryOutput{Items: out, Count: int32(len(out))}, nil
}

// Scan implements the DynamoDB API.
func (c *Client) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ScanErr != nil {
		return nil, c.ScanErr
	}

	t := c.mustTable(aws.ToString(params.TableName))
	var out []map[string]types.AttributeValue
	for _, item := range t.items {
		if params.FilterExpression != nil &&
			!matches(item, aws.ToString(params.FilterExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
			continue
		}
		out = append(out, copyItem(item))
	}

	sortByAttr(out, "Id")
	return &dynamodb.ScanOutput{Items: out, Count: int32(len(out))}, nil
}

// TransactWriteItems implements the DynamoDB API for Put items. All
// conditions are checked before anything is applied; a failed condition
// cancels the transaction with a ConditionalCheckFailed reason at its index.
func (c *Client) TransactWriteItems(_ context.Context, params *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TransactErr != nil {
		return nil, c.TransactErr
	}

	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	for i, tx := range params.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		if tx.Put == nil {
			continue
		}
		t := c.mustTable(aws.ToString(tx.Put.TableName))
		if err := t.checkCondition(tx.Put.ConditionExpression, tx.Put.Item); err != nil {
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, tx := range params.TransactItems {
		if tx.Put == nil {
			continue
		}
		t := c.mustTable(aws.ToString(tx.Put.TableName))
		t.items[t.pk(tx.Put.Item)] = copyItem(tx.Put.Item)
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// checkCondition evaluates attribute_exists / attribute_not_exists against
// the stored item at the same key.
func (t *table) checkCondition(expr *string, keyed map[string]types.AttributeValue) error {
	if expr == nil {
		return nil
	}
	existing, exists := t.items[t.pk(keyed)]

	cond := aws.ToString(expr)
	switch {
	case strings.HasPrefix(cond, "attribute_not_exists("):
		attr := strings.TrimSuffix(strings.TrimPrefix(cond, "attribute_not_exists("), ")")
		if exists && existing[attr] != nil {
			return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	case strings.HasPrefix(cond, "attribute_exists("):
		attr := strings.TrimSuffix(strings.TrimPrefix(cond, "attribute_exists("), ")")
		if !exists || existing[attr] == nil {
			return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	default:
		return fmt.Errorf("storetest: unsupported condition %q", cond)
	}
	return nil
}

// matches evaluates an AND-joined expression of equality and begins_with
// clauses against an item.
func matches(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) bool {
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "begins_with("):
			args := strings.TrimSuffix(strings.TrimPrefix(clause, "begins_with("), ")")
			parts := strings.SplitN(args, ",", 2)
			attr := resolveName(strings.TrimSpace(parts[0]), names)
			want := attrString(values[strings.TrimSpace(parts[1])])
			if !strings.HasPrefix(attrString(item[attr]), want) {
				return false
			}
		case strings.Contains(clause, " = "):
			parts := strings.SplitN(clause, " = ", 2)
			attr := resolveName(strings.TrimSpace(parts[0]), names)
			want := attrString(values[strings.TrimSpace(parts[1])])
			got, ok := item[attr]
			if !ok || attrString(got) != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		return names[name]
	}
	return name
}

// AttrString returns the string or number value of an attribute, or "".
func AttrString(v types.AttributeValue) string {
	return attrString(v)
}

func attrString(v types.AttributeValue) string {
	switch av := v.(type) {
	case *types.AttributeValueMemberS:
		return av.Value
	case *types.AttributeValueMemberN:
		return av.Value
	default:
		return ""
	}
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func sortByAttr(items []map[string]types.AttributeValue, attr string) {
	sort.Slice(items, func(i, j int) bool {
		return attrString(items[i][attr]) < attrString(items[j][attr])
	})
}
