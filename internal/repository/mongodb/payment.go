package mongodb

import (
	"context"

	domainPayment "github.com/lexcore/lexcore/internal/domain/payment"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/logger"
	db "github.com/lexcore/lexcore/internal/mongodb"
	"github.com/lexcore/lexcore/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type paymentRepository struct {
	client db.IClient
	logger *logger.Logger
}

func NewPaymentRepository(client db.IClient, logger *logger.Logger) domainPayment.Repository {
	return &paymentRepository{
		client: client,
		logger: logger,
	}
}

func (r *paymentRepository) coll() *mongo.Collection {
	return r.client.Collection(db.CollectionPayments)
}

func (r *paymentRepository) Create(ctx context.Context, p *domainPayment.Payment) error {
	r.logger.Debugw("creating payment",
		"payment_id", p.ID,
		"matter_id", p.MatterID,
		"tenant_id", p.TenantID,
	)

	if _, err := r.coll().InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("A payment with this identifier already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*domainPayment.Payment, error) {
	var p domainPayment.Payment
	err := r.coll().FindOne(ctx, paymentScope(ctx, id)).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("payment not found").
				WithHintf("Payment with ID %s was not found", id).
				WithReportableDetails(map[string]any{
					"payment_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll().DeleteOne(ctx, paymentScope(ctx, id))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete payment").
			Mark(ierr.ErrDatabase)
	}
	if res.DeletedCount == 0 {
		return ierr.NewError("payment not found").
			WithHintf("Payment with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *paymentRepository) ListByMatter(ctx context.Context, matterID string) ([]*domainPayment.Payment, error) {
	return r.list(ctx, bson.M{
		"matter_id":  matterID,
		"tenant_id":  types.GetTenantID(ctx),
		"is_deleted": false,
	})
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*domainPayment.Payment, error) {
	return r.list(ctx, bson.M{
		"invoice_id": invoiceID,
		"tenant_id":  types.GetTenantID(ctx),
		"is_deleted": false,
	})
}

func (r *paymentRepository) list(ctx context.Context, filter bson.M) ([]*domainPayment.Payment, error) {
	cursor, err := r.coll().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "payment_date", Value: 1}}))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}

	var payments []*domainPayment.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode payments").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}

func paymentScope(ctx context.Context, id string) bson.M {
	return bson.M{
		"_id":        id,
		"tenant_id":  types.GetTenantID(ctx),
		"is_deleted": false,
	}
}
