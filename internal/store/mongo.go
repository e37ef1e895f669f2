package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Skotchmaster/easystore/internal/models"
)

type MongoCollection[T any] struct {
	Coll *mongo.Collection
}

func bsonKey(col string) string {
	if col == models.FieldID {
		return "_id"
	}
	return col
}

func byID(id string) bson.M { return bson.M{"_id": id} }

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func (r *MongoCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	filter := bson.M{}
	for k, v := range q.Where {
		filter[bsonKey(k)] = v
	}

	opts := options.Find()
	if q.SortBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: bsonKey(q.SortBy), Value: dir}})
	}

	cur, err := r.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongo(err)
	}

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, translateMongo(err)
	}
	return out, nil
}

func (r *MongoCollection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var rec T
	if err := r.Coll.FindOne(ctx, byID(id)).Decode(&rec); err != nil {
		return nil, translateMongo(err)
	}
	return &rec, nil
}

func (r *MongoCollection[T]) Insert(ctx context.Context, rec *T) error {
	stamp(rec)
	_, err := r.Coll.InsertOne(ctx, rec)
	return translateMongo(err)
}

func (r *MongoCollection[T]) findOneAndUpdate(ctx context.Context, id string, update any) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec T
	if err := r.Coll.FindOneAndUpdate(ctx, byID(id), update, opts).Decode(&rec); err != nil {
		return nil, translateMongo(err)
	}
	return &rec, nil
}

func (r *MongoCollection[T]) UpdateFields(ctx context.Context, id string, fields Fields) (*T, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M(fields)})
}

func (r *MongoCollection[T]) Increment(ctx context.Context, id string, deltas map[string]int64) (*T, error) {
	inc := bson.M{}
	for k, d := range deltas {
		inc[k] = d
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$inc": inc})
}

func (r *MongoCollection[T]) Toggle(ctx context.Context, id string, field string) (*T, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: field, Value: bson.D{{Key: "$not", Value: "$" + field}}}}}},
	}
	return r.findOneAndUpdate(ctx, id, pipeline)
}

func (r *MongoCollection[T]) Delete(ctx context.Context, id string) error {
	res, err := r.Coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return translateMongo(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"products": {{Keys: bson.D{{Key: models.FieldCreatedAt, Value: -1}}}},
		"orders":   {{Keys: bson.D{{Key: models.FieldCreatedAt, Value: -1}}}},
		"users": {{
			Keys:    bson.D{{Key: models.FieldUsername, Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		"refresh_tokens": {{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}

	for coll, idx := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func OpenMongo(ctx context.Context, uri, dbName string) (*Stores, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGO_URI is empty")
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return NewMongoStores(db), nil
}

func NewMongoStores(db *mongo.Database) *Stores {
	client := db.Client()
	return &Stores{
		Products: &MongoCollection[models.ProductSeries]{Coll: db.Collection("products")},
		Orders:   &MongoCollection[models.Order]{Coll: db.Collection("orders")},
		Users:    &MongoCollection[models.User]{Coll: db.Collection("users")},
		Tokens:   &MongoCollection[models.RefreshToken]{Coll: db.Collection("refresh_tokens")},
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}
}
