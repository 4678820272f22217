package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// InsertBatch inserts a new hen batch.
func (r *MongoDBRepository) InsertBatch(ctx context.Context, batch models.Batch) error {
	return insert(ctx, r.coll(collBatches), batch, "batch", batch.ID)
}

// FindBatch returns the batch with the given id.
func (r *MongoDBRepository) FindBatch(ctx context.Context, id string) (models.Batch, error) {
	return findOne[models.Batch](ctx, r.coll(collBatches), bson.M{"_id": id}, "batch", id)
}

// ListBatches returns every batch.
func (r *MongoDBRepository) ListBatches(ctx context.Context) ([]models.Batch, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}, {Key: "name", Value: 1}})
	return findAll[models.Batch](ctx, r.coll(collBatches), bson.M{}, opts)
}

// ReplaceBatch overwrites an existing batch.
func (r *MongoDBRepository) ReplaceBatch(ctx context.Context, batch models.Batch) error {
	return replaceByID(ctx, r.coll(collBatches), batch.ID, batch, "batch")
}

// InsertEggType adds an egg type to the catalogue.
func (r *MongoDBRepository) InsertEggType(ctx context.Context, eggType models.EggType) error {
	return insert(ctx, r.coll(collEggTypes), eggType, "egg type", eggType.Name)
}

// FindEggType returns the egg type with the given id.
func (r *MongoDBRepository) FindEggType(ctx context.Context, id string) (models.EggType, error) {
	return findOne[models.EggType](ctx, r.coll(collEggTypes), bson.M{"_id": id}, "egg type", id)
}

// FindEggTypeByName matches the catalogue name case-insensitively.
func (r *MongoDBRepository) FindEggTypeByName(ctx context.Context, name string) (models.EggType, error) {
	opts := options.FindOne().SetCollation(caseInsensitive)
	return findOne[models.EggType](ctx, r.coll(collEggTypes), bson.M{"name": name}, "egg type", name, opts)
}

// ListEggTypes returns the catalogue in display order.
func (r *MongoDBRepository) ListEggTypes(ctx context.Context, activeOnly bool) ([]models.EggType, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "displayOrder", Value: 1}, {Key: "name", Value: 1}})
	return findAll[models.EggType](ctx, r.coll(collEggTypes), filter, opts)
}

// ReplaceEggType overwrites an existing egg type.
func (r *MongoDBRepository) ReplaceEggType(ctx context.Context, eggType models.EggType) error {
	return replaceByID(ctx, r.coll(collEggTypes), eggType.ID, eggType, "egg type")
}

// CountEggTypes counts the catalogue entries.
func (r *MongoDBRepository) CountEggTypes(ctx context.Context) (int64, error) {
	n, err := r.coll(collEggTypes).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count egg types: %w", err)
	}
	return n, nil
}

// InsertProduction records a day of collected eggs.
func (r *MongoDBRepository) InsertProduction(ctx context.Context, production models.EggProduction) error {
	return insert(ctx, r.coll(collProductions), production, "production", production.ID)
}

// FindProduction returns the production with the given id.
func (r *MongoDBRepository) FindProduction(ctx context.Context, id string) (models.EggProduction, error) {
	return findOne[models.EggProduction](ctx, r.coll(collProductions), bson.M{"_id": id}, "production", id)
}

// ListProductions returns productions newest first.
func (r *MongoDBRepository) ListProductions(ctx context.Context, filter repository.ProductionFilter) ([]models.EggProduction, error) {
	query := bson.M{}
	if filter.BatchID != "" {
		query["henBatchId"] = filter.BatchID
	}
	dateRange(query, "date", filter.From, filter.To)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	return findAll[models.EggProduction](ctx, r.coll(collProductions), query, opts)
}

// ReplaceProduction overwrites an existing production.
func (r *MongoDBRepository) ReplaceProduction(ctx context.Context, production models.EggProduction) error {
	return replaceByID(ctx, r.coll(collProductions), production.ID, production, "production")
}

// DeleteProduction removes a production.
func (r *MongoDBRepository) DeleteProduction(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll(collProductions), id, "production")
}

// ProducedByClassification sums the eggs collected for a batch per classification.
func (r *MongoDBRepository) ProducedByClassification(ctx context.Context, batchID string) (map[string]int, error) {
	return sumByClassification(ctx, r.coll(collProductions), batchID)
}

// sumByClassification groups the quantities of a batch per classification,
// ignoring documents without one.
func sumByClassification(ctx context.Context, coll *mongo.Collection, batchID string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "henBatchId", Value: batchID},
			{Key: "classification", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$classification"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$quantity"}}},
		}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s by classification: %w", coll.Name(), err)
	}

	var rows []struct {
		Classification string `bson:"_id"`
		Total          int    `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s totals: %w", coll.Name(), err)
	}

	totals := make(map[string]int, len(rows))
	for _, row := range rows {
		totals[row.Classification] = row.Total
	}
	return totals, nil
}

// InsertCustomer inserts a new customer.
func (r *MongoDBRepository) InsertCustomer(ctx context.Context, customer models.Customer) error {
	return insert(ctx, r.coll(collCustomers), customer, "customer", customer.ID)
}

// FindCustomer returns the customer with the given id.
func (r *MongoDBRepository) FindCustomer(ctx context.Context, id string) (models.Customer, error) {
	return findOne[models.Customer](ctx, r.coll(collCustomers), bson.M{"_id": id}, "customer", id)
}

// ListCustomers returns customers by name, optionally searched by name, phone or email.
func (r *MongoDBRepository) ListCustomers(ctx context.Context, filter repository.CustomerFilter) ([]models.Customer, error) {
	query := bson.M{}
	if filter.ActiveOnly {
		query["isActive"] = true
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"phone": pattern},
			bson.M{"email": pattern},
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetCollation(caseInsensitive)
	return findAll[models.Customer](ctx, r.coll(collCustomers), query, opts)
}

// ReplaceCustomer overwrites an existing customer.
func (r *MongoDBRepository) ReplaceCustomer(ctx context.Context, customer models.Customer) error {
	return replaceByID(ctx, r.coll(collCustomers), customer.ID, customer, "customer")
}

// DeleteCustomer removes a customer.
func (r *MongoDBRepository) DeleteCustomer(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll(collCustomers), id, "customer")
}

// InsertSupply records a supply expense.
func (r *MongoDBRepository) InsertSupply(ctx context.Context, supply models.Supply) error {
	return insert(ctx, r.coll(collSupplies), supply, "supply", supply.ID)
}

// FindSupply returns the supply with the given id.
func (r *MongoDBRepository) FindSupply(ctx context.Context, id string) (models.Supply, error) {
	return findOne[models.Supply](ctx, r.coll(collSupplies), bson.M{"_id": id}, "supply", id)
}

// ListSupplies returns supplies newest first.
func (r *MongoDBRepository) ListSupplies(ctx context.Context, filter repository.SupplyFilter) ([]models.Supply, error) {
	query := bson.M{}
	if filter.BatchID != "" {
		query["henBatchId"] = filter.BatchID
	}
	dateRange(query, "date", filter.From, filter.To)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	return findAll[models.Supply](ctx, r.coll(collSupplies), query, opts)
}

// ReplaceSupply overwrites an existing supply.
func (r *MongoDBRepository) ReplaceSupply(ctx context.Context, supply models.Supply) error {
	return replaceByID(ctx, r.coll(collSupplies), supply.ID, supply, "supply")
}

// DeleteSupply removes a supply.
func (r *MongoDBRepository) DeleteSupply(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll(collSupplies), id, "supply")
}
