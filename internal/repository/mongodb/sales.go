package mongodb

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// InsertSale inserts a new sale with its opened ledger.
func (r *MongoDBRepository) InsertSale(ctx context.Context, sale models.Sale) error {
	return insert(ctx, r.coll(collSales), sale, "sale", sale.ID)
}

// FindSale returns the sale with the given id.
func (r *MongoDBRepository) FindSale(ctx context.Context, id string) (models.Sale, error) {
	return findOne[models.Sale](ctx, r.coll(collSales), bson.M{"_id": id}, "sale", id)
}

// ListSales returns sales newest first.
func (r *MongoDBRepository) ListSales(ctx context.Context, filter repository.SaleFilter) ([]models.Sale, error) {
	query := bson.M{}
	if filter.BatchID != "" {
		query["henBatchId"] = filter.BatchID
	}
	if filter.CustomerID != "" {
		query["customerId"] = filter.CustomerID
	}
	if filter.PaymentType != "" {
		query["paymentType"] = filter.PaymentType
	}
	if filter.PendingOnly {
		query["pendingAmount"] = bson.M{"$gt": decimal.Zero}
	}
	dateRange(query, "date", filter.From, filter.To)

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})
	return findAll[models.Sale](ctx, r.coll(collSales), query, opts)
}

// SoldByClassification sums the eggs sold from a batch per classification.
func (r *MongoDBRepository) SoldByClassification(ctx context.Context, batchID string) (map[string]int, error) {
	return sumByClassification(ctx, r.coll(collSales), batchID)
}

// UpdateSaleLedger is a compare-and-swap on the sale version.
func (r *MongoDBRepository) UpdateSaleLedger(ctx context.Context, sale models.Sale, expectedVersion int64) error {
	filter := bson.M{"_id": sale.ID, "version": expectedVersion}
	update := bson.M{"$set": bson.M{
		"amountPaid":    sale.AmountPaid,
		"pendingAmount": sale.PendingAmount,
		"creditStatus":  sale.CreditStatus,
		"paidAt":        sale.PaidAt,
		"version":       sale.Version,
	}}

	res, err := r.coll(collSales).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update sale %s ledger: %w", sale.ID, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll(collSales).CountDocuments(ctx, bson.M{"_id": sale.ID})
	if err != nil {
		return fmt.Errorf("check sale %s: %w", sale.ID, err)
	}
	if n == 0 {
		return translate(mongo.ErrNoDocuments, "sale", sale.ID)
	}
	return fmt.Errorf("sale %s expected version %d: %w", sale.ID, expectedVersion, repository.ErrVersionConflict)
}

// RecordPayment runs the ledger update and the payment insert in a single
// transaction. With transactions disabled the two writes run in sequence,
// ledger first, so a lost payment insert never double-applies an amount.
func (r *MongoDBRepository) RecordPayment(ctx context.Context, sale models.Sale, expectedVersion int64, payment models.Payment) error {
	write := func(ctx context.Context) error {
		if err := r.UpdateSaleLedger(ctx, sale, expectedVersion); err != nil {
			return err
		}
		return insert(ctx, r.coll(collPayments), payment, "payment", payment.ID)
	}

	if !r.transactions {
		return write(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, write(sc)
	})
	if err != nil {
		r.logger.Debug("payment transaction aborted",
			zap.String("sale_id", sale.ID),
			zap.Int64("expected_version", expectedVersion),
			zap.Error(err))
		return err
	}
	return nil
}

// ListPayments returns the payments of a sale, newest first.
func (r *MongoDBRepository) ListPayments(ctx context.Context, saleID string) ([]models.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "paidAt", Value: -1}, {Key: "_id", Value: -1}})
	return findAll[models.Payment](ctx, r.coll(collPayments), bson.M{"saleId": saleID}, opts)
}
