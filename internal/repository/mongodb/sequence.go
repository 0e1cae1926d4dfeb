package mongodb

import (
	"context"
	"fmt"
	"time"

	domainInvoice "github.com/lexcore/lexcore/internal/domain/invoice"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/logger"
	db "github.com/lexcore/lexcore/internal/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sequenceRepository struct {
	client db.IClient
	logger *logger.Logger
}

func NewSequenceRepository(client db.IClient, logger *logger.Logger) domainInvoice.SequenceRepository {
	return &sequenceRepository{
		client: client,
		logger: logger,
	}
}

// NextSequence increments and returns the per-tenant, per-month counter in
// one atomic findOneAndUpdate with upsert, so concurrent invoice creation
// never hands out the same number twice.
func (r *sequenceRepository) NextSequence(ctx context.Context, tenantID, yearMonth string) (int64, error) {
	now := time.Now().UTC()

	filter := bson.M{"_id": fmt.Sprintf("%s:%s", tenantID, yearMonth)}
	update := bson.M{
		"$inc": bson.M{"last_value": int64(1)},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"tenant_id":  tenantID,
			"year_month": yearMonth,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var seq domainInvoice.InvoiceSequence
	err := r.client.Collection(db.CollectionCounters).
		FindOneAndUpdate(ctx, filter, update, opts).
		Decode(&seq)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to allocate invoice sequence").
			Mark(ierr.ErrDatabase)
	}

	return seq.LastValue, nil
}
