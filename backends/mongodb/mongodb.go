/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongodb

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suparena/adapterkit/adapter"
)

// Join declares how a collection reaches a foreign one, so join-qualified
// where fields ("foreign.field") can be emulated with a $lookup stage.
type Join struct {
	From         string
	LocalField   string
	ForeignField string
}

// Store is a document Backend over the official mongo driver. Documents keep
// native booleans, dates and nested values; callers should pair it with
// RecommendedConfig so the logical id maps onto _id.
type Store struct {
	db    *mongo.Database
	joins map[string]map[string]Join
}

// Connect dials a deployment and wraps the named database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return New(client.Database(database)), nil
}

// New wraps an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{db: db, joins: make(map[string]map[string]Join)}
}

// RegisterJoin declares the relationship behind join-qualified where fields
// on the given collection. Without a registration such fields are treated as
// native nested-document paths.
func (s *Store) RegisterJoin(collection string, join Join) {
	if s.joins[collection] == nil {
		s.joins[collection] = make(map[string]Join)
	}
	s.joins[collection][join.From] = join
}

// RecommendedConfig returns the key mapping that folds the logical id onto
// mongo's _id in both directions. Merge it into the adapter config.
func RecommendedConfig() adapter.Config {
	return adapter.Config{
		MapKeysInput:  map[string]string{"id": "_id"},
		MapKeysOutput: map[string]string{"_id": "id"},
	}
}

// ID implements adapter.Backend.
func (s *Store) ID() string { return "mongodb" }

// Capabilities implements adapter.Backend.
func (s *Store) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{Booleans: true, Dates: true, JSON: true}
}

// Create implements adapter.Backend.
func (s *Store) Create(ctx context.Context, model string, data map[string]any) (map[string]any, error) {
	doc := bson.M{}
	for k, v := range data {
		if k == "_id" {
			v = coerceObjectID(v)
		}
		doc[k] = v
	}
	res, err := s.db.Collection(model).InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert into %s failed: %w", model, err)
	}
	doc["_id"] = res.InsertedID
	return doc, nil
}

// FindOne implements adapter.Backend.
func (s *Store) FindOne(ctx context.Context, model string, where []adapter.CleanedWhere) (map[string]any, error) {
	local, foreign := s.splitJoined(model, where)
	if len(foreign) > 0 {
		docs, err := s.findJoined(ctx, model, local, foreign, 1, 0, nil)
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return nil, nil
		}
		return docs[0], nil
	}

	filter, err := buildFilter(local)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	err = s.db.Collection(model).FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("findOne on %s failed: %w", model, err)
	}
	return doc, nil
}

// FindMany implements adapter.Backend.
func (s *Store) FindMany(ctx context.Context, model string, where []adapter.CleanedWhere, limit, offset int, sortBy *adapter.SortBy) ([]map[string]any, error) {
	local, foreign := s.splitJoined(model, where)
	if len(foreign) > 0 {
		return s.findJoined(ctx, model, local, foreign, limit, offset, sortBy)
	}

	filter, err := buildFilter(local)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if sortBy != nil {
		opts.SetSort(sortDoc(sortBy))
	}

	cur, err := s.db.Collection(model).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("findMany on %s failed: %w", model, err)
	}
	defer cur.Close(ctx)
	return drain(ctx, cur)
}

// Update implements adapter.Backend. FindOneAndUpdate returns the document
// after modification so the caller sees the final state.
func (s *Store) Update(ctx context.Context, model string, where []adapter.CleanedWhere, update map[string]any) (map[string]any, error) {
	filter, err := s.mutationFilter(ctx, model, where)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	err = s.db.Collection(model).FindOneAndUpdate(ctx, filter,
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update on %s failed: %w", model, err)
	}
	return doc, nil
}

// UpdateMany implements adapter.Backend.
func (s *Store) UpdateMany(ctx context.Context, model string, where []adapter.CleanedWhere, update map[string]any) (int, error) {
	filter, err := s.mutationFilter(ctx, model, where)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Collection(model).UpdateMany(ctx, filter, bson.M{"$set": update})
	if err != nil {
		return 0, fmt.Errorf("updateMany on %s failed: %w", model, err)
	}
	return int(res.ModifiedCount), nil
}

// Delete implements adapter.Backend. Deleting a missing document is a no-op.
func (s *Store) Delete(ctx context.Context, model string, where []adapter.CleanedWhere) error {
	filter, err := s.mutationFilter(ctx, model, where)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(model).DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("delete on %s failed: %w", model, err)
	}
	return nil
}

// DeleteMany implements adapter.Backend.
func (s *Store) DeleteMany(ctx context.Context, model string, where []adapter.CleanedWhere) (int, error) {
	filter, err := s.mutationFilter(ctx, model, where)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Collection(model).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("deleteMany on %s failed: %w", model, err)
	}
	return int(res.DeletedCount), nil
}

// Count implements adapter.Backend.
func (s *Store) Count(ctx context.Context, model string, where []adapter.CleanedWhere) (int, error) {
	local, foreign := s.splitJoined(model, where)
	if len(foreign) > 0 {
		docs, err := s.findJoined(ctx, model, local, foreign, 0, 0, nil)
		if err != nil {
			return 0, err
		}
		return len(docs), nil
	}

	filter, err := buildFilter(local)
	if err != nil {
		return 0, err
	}
	n, err := s.db.Collection(model).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count on %s failed: %w", model, err)
	}
	return int(n), nil
}

// splitJoined partitions conditions into local ones and those whose dotted
// prefix names a registered join target for this collection.
func (s *Store) splitJoined(model string, where []adapter.CleanedWhere) (local, foreign []adapter.CleanedWhere) {
	registered := s.joins[model]
	for _, w := range where {
		prefix, _, found := strings.Cut(w.Field, ".")
		if found && registered != nil {
			if _, ok := registered[prefix]; ok {
				foreign = append(foreign, w)
				continue
			}
		}
		local = append(local, w)
	}
	return local, foreign
}

// findJoined emulates join-qualified conditions with $lookup stages: one per
// referenced foreign collection, then a $match over the combined filter. The
// joined documents are projected away before decoding.
func (s *Store) findJoined(ctx context.Context, model string, local, foreign []adapter.CleanedWhere, limit, offset int, sortBy *adapter.SortBy) ([]map[string]any, error) {
	pipeline := mongo.Pipeline{}

	seen := map[string]bool{}
	projection := bson.M{}
	for _, w := range foreign {
		prefix, _, _ := strings.Cut(w.Field, ".")
		if seen[prefix] {
			continue
		}
		seen[prefix] = true
		join := s.joins[model][prefix]
		pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
			"from":         join.From,
			"localField":   join.LocalField,
			"foreignField": join.ForeignField,
			"as":           prefix,
		}}})
		projection[prefix] = 0
	}

	filter, err := buildFilter(append(append([]adapter.CleanedWhere{}, local...), foreign...))
	if err != nil {
		return nil, err
	}
	pipeline = append(pipeline, bson.D{{Key: "$match", Value: filter}})
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: projection}})

	if sortBy != nil {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sortDoc(sortBy)}})
	}
	if offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(offset)}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(limit)}})
	}

	cur, err := s.db.Collection(model).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregation on %s failed: %w", model, err)
	}
	defer cur.Close(ctx)
	return drain(ctx, cur)
}

// mutationFilter builds the filter for a write. Join-qualified conditions are
// resolved to a set of _id values first, because update/delete commands
// cannot carry $lookup stages.
func (s *Store) mutationFilter(ctx context.Context, model string, where []adapter.CleanedWhere) (bson.M, error) {
	local, foreign := s.splitJoined(model, where)
	if len(foreign) == 0 {
		return buildFilter(local)
	}

	docs, err := s.findJoined(ctx, model, local, foreign, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc["_id"])
	}
	if len(ids) == 0 {
		return bson.M{"_id": bson.M{"$in": []any{}}}, nil
	}
	return bson.M{"_id": bson.M{"$in": ids}}, nil
}

func sortDoc(sortBy *adapter.SortBy) bson.D {
	dir := 1
	if sortBy.Direction == adapter.SortDesc {
		dir = -1
	}
	return bson.D{{Key: sortBy.Field, Value: dir}}
}

func drain(ctx context.Context, cur *mongo.Cursor) ([]map[string]any, error) {
	out := []map[string]any{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, cur.Err()
}
