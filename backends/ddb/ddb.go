/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/adapterkit/adapter"
)

// Store is a DynamoDB Backend. Each model maps to its own table named
// prefix+model, keyed by a string partition key "id". Single eq-on-id lookups
// take the GetItem fast path; everything else goes through a filtered Scan
// with client-side sorting and paging, which is the honest cost of arbitrary
// where clauses on DynamoDB.
type Store struct {
	client *sdk.Client
	prefix string
}

// NewClient initializes a DynamoDB client using static AWS credentials.
func NewClient(awsAccessKey, awsSecretKey, awsRegion string) (*sdk.Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsAccessKey, awsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg), nil
}

// New constructs a Store over an existing client. prefix is prepended to
// every table name and may be empty.
func New(client *sdk.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// ID implements adapter.Backend.
func (s *Store) ID() string { return "dynamodb" }

// Capabilities implements adapter.Backend. Maps and lists marshal natively,
// dates do not survive a round trip through attribute values untyped, and
// there is no autoincrement.
func (s *Store) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{Booleans: true, JSON: true}
}

func (s *Store) tableName(model string) string {
	return s.prefix + model
}

// Create implements adapter.Backend.
func (s *Store) Create(ctx context.Context, model string, data map[string]any) (map[string]any, error) {
	av, err := attributevalue.MarshalMap(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(s.tableName(model)),
		Item:      av,
	})
	if err != nil {
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return data, nil
}

// FindOne implements adapter.Backend.
func (s *Store) FindOne(ctx context.Context, model string, where []adapter.CleanedWhere) (map[string]any, error) {
	if id, ok := idEquality(where); ok {
		return s.getByID(ctx, model, id)
	}
	items, err := s.scan(ctx, model, where, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// FindMany implements adapter.Backend. Sorting and paging run client-side
// over the scanned result set.
func (s *Store) FindMany(ctx context.Context, model string, where []adapter.CleanedWhere, limit, offset int, sortBy *adapter.SortBy) ([]map[string]any, error) {
	items, err := s.scan(ctx, model, where, 0)
	if err != nil {
		return nil, err
	}

	if sortBy != nil {
		field := sortBy.Field
		desc := sortBy.Direction == adapter.SortDesc
		sort.SliceStable(items, func(i, j int) bool {
			c := compareValues(items[i][field], items[j][field])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if offset > 0 {
		if offset >= len(items) {
			return []map[string]any{}, nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

// Update implements adapter.Backend. The target is located first, then
// updated by key with ReturnValues ALL_NEW so the caller sees the final item.
func (s *Store) Update(ctx context.Context, model string, where []adapter.CleanedWhere, update map[string]any) (map[string]any, error) {
	target, err := s.FindOne(ctx, model, where)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}
	return s.updateByID(ctx, model, idToKeyString(target["id"]), update)
}

// UpdateMany implements adapter.Backend.
func (s *Store) UpdateMany(ctx context.Context, model string, where []adapter.CleanedWhere, update map[string]any) (int, error) {
	targets, err := s.scan(ctx, model, where, 0)
	if err != nil {
		return 0, err
	}
	for _, target := range targets {
		if _, err := s.updateByID(ctx, model, idToKeyString(target["id"]), update); err != nil {
			return 0, err
		}
	}
	return len(targets), nil
}

// Delete implements adapter.Backend. Deleting a missing item is a no-op.
func (s *Store) Delete(ctx context.Context, model string, where []adapter.CleanedWhere) error {
	target, err := s.FindOne(ctx, model, where)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return s.deleteByID(ctx, model, idToKeyString(target["id"]))
}

// DeleteMany implements adapter.Backend.
func (s *Store) DeleteMany(ctx context.Context, model string, where []adapter.CleanedWhere) (int, error) {
	targets, err := s.scan(ctx, model, where, 0)
	if err != nil {
		return 0, err
	}
	for _, target := range targets {
		if err := s.deleteByID(ctx, model, idToKeyString(target["id"])); err != nil {
			return 0, err
		}
	}
	return len(targets), nil
}

// Count implements adapter.Backend, aggregating Scan pages with Select COUNT.
func (s *Store) Count(ctx context.Context, model string, where []adapter.CleanedWhere) (int, error) {
	expr, names, values, err := buildFilterExpression(where)
	if err != nil {
		return 0, err
	}

	input := &sdk.ScanInput{
		TableName: aws.String(s.tableName(model)),
		Select:    types.SelectCount,
	}
	if expr != "" {
		input.FilterExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	total := 0
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("Scan error: %w", err)
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return total, nil
}

func (s *Store) getByID(ctx context.Context, model, id string) (map[string]any, error) {
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: aws.String(s.tableName(model)),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item map[string]any
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return item, nil
}

func (s *Store) updateByID(ctx context.Context, model, id string, update map[string]any) (map[string]any, error) {
	expr, names, values, err := buildUpdateExpression(update)
	if err != nil {
		return nil, err
	}
	out, err := s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName: aws.String(s.tableName(model)),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateItem failed: %w", err)
	}
	var item map[string]any
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated item: %w", err)
	}
	return item, nil
}

func (s *Store) deleteByID(ctx context.Context, model, id string) error {
	_, err := s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: aws.String(s.tableName(model)),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// scan pages through a filtered Scan. max > 0 stops once that many items are
// collected.
func (s *Store) scan(ctx context.Context, model string, where []adapter.CleanedWhere, max int) ([]map[string]any, error) {
	expr, names, values, err := buildFilterExpression(where)
	if err != nil {
		return nil, err
	}

	input := &sdk.ScanInput{
		TableName: aws.String(s.tableName(model)),
	}
	if expr != "" {
		input.FilterExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	items := []map[string]any{}
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("Scan error: %w", err)
		}
		for _, raw := range out.Items {
			var item map[string]any
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item: %w", err)
			}
			items = append(items, item)
			if max > 0 && len(items) >= max {
				return items, nil
			}
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return items, nil
}

// idEquality reports whether the where clause is a single AND equality on id,
// which qualifies for the GetItem fast path.
func idEquality(where []adapter.CleanedWhere) (string, bool) {
	if len(where) != 1 {
		return "", false
	}
	w := where[0]
	if w.Operator != adapter.OpEq || w.Connector != adapter.ConnectorAnd || w.Field != "id" {
		return "", false
	}
	if s, ok := w.Value.(string); ok {
		return s, true
	}
	return "", false
}

func idToKeyString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func compareValues(a, b any) int {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
