package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/config"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// Collection names.
const (
	collBatches      = "hen_batches"
	collEggTypes     = "egg_types"
	collProductions  = "egg_productions"
	collSales        = "sales"
	collPayments     = "payments"
	collCustomers    = "customers"
	collSupplies     = "supplies"
	collUsers        = "users"
	collRoles        = "roles"
	collPermissions  = "permissions"
	collDailyReports = "daily_reports"
)

// caseInsensitive is the collation backing unique names compared without case.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// MongoDBRepository implements repository.Store on MongoDB.
type MongoDBRepository struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
	logger       *zap.Logger
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects, pings and ensures indexes.
func NewMongoDBRepository(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(cfg.URI).SetRegistry(NewRegistry())
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client:       client,
		db:           client.Database(cfg.DBName),
		transactions: cfg.Transactions,
		logger:       logger,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("mongodb repository ready",
		zap.String("database", cfg.DBName),
		zap.Bool("transactions", cfg.Transactions))
	return r, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) coll(name string) *mongo.Collection {
	return r.db.Collection(name)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	uniqueFold := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)}
	}
	plain := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys}
	}

	indexes := map[string][]mongo.IndexModel{
		collEggTypes:    {uniqueFold(bson.D{{Key: "name", Value: 1}})},
		collUsers:       {uniqueFold(bson.D{{Key: "userName", Value: 1}})},
		collRoles:       {uniqueFold(bson.D{{Key: "name", Value: 1}})},
		collPermissions: {unique(bson.D{{Key: "code", Value: 1}})},
		collProductions: {plain(bson.D{{Key: "henBatchId", Value: 1}, {Key: "classification", Value: 1}}), plain(bson.D{{Key: "date", Value: -1}})},
		collSales: {
			plain(bson.D{{Key: "henBatchId", Value: 1}, {Key: "classification", Value: 1}}),
			plain(bson.D{{Key: "customerId", Value: 1}, {Key: "paymentType", Value: 1}}),
			plain(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}),
		},
		collPayments:     {plain(bson.D{{Key: "saleId", Value: 1}, {Key: "paidAt", Value: -1}})},
		collSupplies:     {plain(bson.D{{Key: "henBatchId", Value: 1}, {Key: "date", Value: -1}})},
		collDailyReports: {unique(bson.D{{Key: "date", Value: 1}})},
	}

	for name, idx := range indexes {
		if _, err := r.coll(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s %s: %w", entity, id, repository.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s %s: %w", entity, id, repository.ErrDuplicate)
	default:
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, entity, key string, opts ...*options.FindOneOptions) (T, error) {
	var out T
	err := coll.FindOne(ctx, filter, opts...).Decode(&out)
	if err != nil {
		return out, translate(err, entity, key)
	}
	return out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc any, entity, id string) error {
	_, err := coll.InsertOne(ctx, doc)
	return translate(err, entity, id)
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id string, doc any, entity string) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(err, entity, id)
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, entity, id)
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id, entity string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, entity, id)
	}
	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments, entity, id)
	}
	return nil
}

// idFilter selects ids, or everything when ids is nil.
func idFilter(ids []string) bson.M {
	if ids == nil {
		return bson.M{}
	}
	return bson.M{"_id": bson.M{"$in": ids}}
}

// dateRange adds a date bound to filter when from or to is set.
func dateRange(filter bson.M, field string, from, to time.Time) {
	bounds := bson.M{}
	if !from.IsZero() {
		bounds["$gte"] = from
	}
	if !to.IsZero() {
		bounds["$lte"] = to
	}
	if len(bounds) > 0 {
		filter[field] = bounds
	}
}
