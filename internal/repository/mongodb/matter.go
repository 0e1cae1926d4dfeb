package mongodb

import (
	"context"
	"time"

	domainMatter "github.com/lexcore/lexcore/internal/domain/matter"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/logger"
	db "github.com/lexcore/lexcore/internal/mongodb"
	"github.com/lexcore/lexcore/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type matterRepository struct {
	client db.IClient
	logger *logger.Logger
}

func NewMatterRepository(client db.IClient, logger *logger.Logger) domainMatter.Repository {
	return &matterRepository{
		client: client,
		logger: logger,
	}
}

func (r *matterRepository) coll() *mongo.Collection {
	return r.client.Collection(db.CollectionMatters)
}

func (r *matterRepository) Create(ctx context.Context, m *domainMatter.Matter) error {
	r.logger.Debugw("creating matter", "matter_id", m.ID, "tenant_id", m.TenantID)

	if _, err := r.coll().InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("A matter with this identifier already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create matter").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *matterRepository) Get(ctx context.Context, id string) (*domainMatter.Matter, error) {
	var m domainMatter.Matter
	err := r.coll().FindOne(ctx, matterScope(ctx, id)).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("matter not found").
				WithHintf("Matter with ID %s was not found", id).
				WithReportableDetails(map[string]any{
					"matter_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get matter").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *matterRepository) Update(ctx context.Context, m *domainMatter.Matter) error {
	m.Touch(ctx)

	res, err := r.coll().ReplaceOne(ctx, matterScope(ctx, m.ID), m)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update matter").
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		return ierr.NewError("matter not found").
			WithHintf("Matter with ID %s was not found", m.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *matterRepository) AttachInvoice(ctx context.Context, matterID, invoiceID string) error {
	return r.updateOne(ctx, matterID, bson.M{
		"$addToSet": bson.M{"invoice_ids": invoiceID},
		"$set":      auditSet(ctx),
	})
}

func (r *matterRepository) AttachPayment(ctx context.Context, matterID, paymentID string) error {
	return r.updateOne(ctx, matterID, bson.M{
		"$addToSet": bson.M{"payment_ids": paymentID},
		"$set":      auditSet(ctx),
	})
}

func (r *matterRepository) DetachPayment(ctx context.Context, matterID, paymentID string) error {
	return r.updateOne(ctx, matterID, bson.M{
		"$pull": bson.M{"payment_ids": paymentID},
		"$set":  auditSet(ctx),
	})
}

func (r *matterRepository) UpdateFinancials(ctx context.Context, matterID string, summary domainMatter.FinancialSummary) error {
	set := auditSet(ctx)
	set["financials"] = summary
	return r.updateOne(ctx, matterID, bson.M{"$set": set})
}

func (r *matterRepository) updateOne(ctx context.Context, matterID string, update bson.M) error {
	res, err := r.coll().UpdateOne(ctx, matterScope(ctx, matterID), update)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update matter").
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		return ierr.NewError("matter not found").
			WithHintf("Matter with ID %s was not found", matterID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// matterScope restricts every matter operation to the tenant in context and
// to non-deleted records
func matterScope(ctx context.Context, id string) bson.M {
	return bson.M{
		"_id":        id,
		"tenant_id":  types.GetTenantID(ctx),
		"is_deleted": false,
	}
}

// auditSet stamps the mutation audit fields
func auditSet(ctx context.Context) bson.M {
	return bson.M{
		"updated_at": time.Now().UTC(),
		"updated_by": types.GetUserID(ctx),
	}
}
