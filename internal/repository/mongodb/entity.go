package mongodb

import (
	"context"

	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/logger"
	db "github.com/lexcore/lexcore/internal/mongodb"
	"github.com/lexcore/lexcore/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EntityRepository is the generic persistence handle the list executor runs
// against: one collection, decoded into T. It implements query.Repository[T]
// for any persisted entity type.
type EntityRepository[T any] struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

// NewEntityRepository creates a generic repository over the named collection
func NewEntityRepository[T any](client db.IClient, collection string, logger *logger.Logger) *EntityRepository[T] {
	return &EntityRepository[T]{
		coll:   client.Collection(collection),
		logger: logger,
	}
}

// Count counts documents matching the composed filter
func (r *EntityRepository[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count records").
			Mark(ierr.ErrDatabase)
	}
	return total, nil
}

// Find fetches one sorted page of documents matching the composed filter,
// populating any requested joins
func (r *EntityRepository[T]) Find(ctx context.Context, filter bson.M, page query.PageRequest, joins []query.JoinSpec) ([]T, error) {
	var cursor *mongo.Cursor
	var err error

	if len(joins) == 0 {
		opts := options.Find().
			SetSort(page.Sort).
			SetSkip(int64(page.Skip)).
			SetLimit(int64(page.Limit))
		cursor, err = r.coll.Find(ctx, filter, opts)
	} else {
		cursor, err = r.coll.Aggregate(ctx, buildPipeline(filter, page, joins))
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch records").
			Mark(ierr.ErrDatabase)
	}

	var results []T
	if err := cursor.All(ctx, &results); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode records").
			Mark(ierr.ErrDatabase)
	}
	return results, nil
}

// buildPipeline assembles match, sort and pagination stages followed by one
// $lookup per join. Pagination runs before the lookups so only the fetched
// page is populated.
func buildPipeline(filter bson.M, page query.PageRequest, joins []query.JoinSpec) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: page.Sort}},
		{{Key: "$skip", Value: page.Skip}},
		{{Key: "$limit", Value: page.Limit}},
	}

	for _, join := range joins {
		lookup := bson.M{
			"from":         join.From,
			"localField":   join.LocalField,
			"foreignField": join.ForeignField,
			"as":           join.OutputField(),
		}
		if len(join.Project) > 0 {
			projection := bson.M{}
			for _, field := range join.Project {
				projection[field] = 1
			}
			lookup["pipeline"] = bson.A{bson.M{"$project": projection}}
		}
		pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: lookup}})
	}

	return pipeline
}
