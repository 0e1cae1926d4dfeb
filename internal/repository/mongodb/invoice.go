package mongodb

import (
	"context"

	domainInvoice "github.com/lexcore/lexcore/internal/domain/invoice"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/logger"
	db "github.com/lexcore/lexcore/internal/mongodb"
	"github.com/lexcore/lexcore/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type invoiceRepository struct {
	client db.IClient
	logger *logger.Logger
}

func NewInvoiceRepository(client db.IClient, logger *logger.Logger) domainInvoice.Repository {
	return &invoiceRepository{
		client: client,
		logger: logger,
	}
}

func (r *invoiceRepository) coll() *mongo.Collection {
	return r.client.Collection(db.CollectionInvoices)
}

func (r *invoiceRepository) Create(ctx context.Context, inv *domainInvoice.Invoice) error {
	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"matter_id", inv.MatterID,
		"tenant_id", inv.TenantID,
	)

	if _, err := r.coll().InsertOne(ctx, inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("An invoice with this identifier already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*domainInvoice.Invoice, error) {
	var inv domainInvoice.Invoice
	err := r.coll().FindOne(ctx, invoiceScope(ctx, id)).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("invoice not found").
				WithHintf("Invoice with ID %s was not found", id).
				WithReportableDetails(map[string]any{
					"invoice_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *domainInvoice.Invoice) error {
	inv.Touch(ctx)

	res, err := r.coll().ReplaceOne(ctx, invoiceScope(ctx, inv.ID), inv)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) ListByMatter(ctx context.Context, matterID string) ([]*domainInvoice.Invoice, error) {
	filter := bson.M{
		"matter_id":  matterID,
		"tenant_id":  types.GetTenantID(ctx),
		"is_deleted": false,
	}

	cursor, err := r.coll().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}

	var invoices []*domainInvoice.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func invoiceScope(ctx context.Context, id string) bson.M {
	return bson.M{
		"_id":        id,
		"tenant_id":  types.GetTenantID(ctx),
		"is_deleted": false,
	}
}
