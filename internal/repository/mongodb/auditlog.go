package mongodb

import (
	"context"

	domainAuditLog "github.com/lexcore/lexcore/internal/domain/auditlog"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/logger"
	db "github.com/lexcore/lexcore/internal/mongodb"
)

type auditLogRepository struct {
	client db.IClient
	logger *logger.Logger
}

func NewAuditLogRepository(client db.IClient, logger *logger.Logger) domainAuditLog.Repository {
	return &auditLogRepository{
		client: client,
		logger: logger,
	}
}

func (r *auditLogRepository) Record(ctx context.Context, entry *domainAuditLog.Entry) error {
	if _, err := r.client.Collection(db.CollectionAuditLogs).InsertOne(ctx, entry); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record audit entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
