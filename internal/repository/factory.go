package repository

import (
	"github.com/lexcore/lexcore/internal/domain/auditlog"
	"github.com/lexcore/lexcore/internal/domain/invoice"
	"github.com/lexcore/lexcore/internal/domain/matter"
	"github.com/lexcore/lexcore/internal/domain/payment"
	"github.com/lexcore/lexcore/internal/logger"
	db "github.com/lexcore/lexcore/internal/mongodb"
	"github.com/lexcore/lexcore/internal/query"
	mongoRepo "github.com/lexcore/lexcore/internal/repository/mongodb"
)

func NewMatterRepository(client db.IClient, logger *logger.Logger) matter.Repository {
	return mongoRepo.NewMatterRepository(client, logger)
}

func NewInvoiceRepository(client db.IClient, logger *logger.Logger) invoice.Repository {
	return mongoRepo.NewInvoiceRepository(client, logger)
}

func NewSequenceRepository(client db.IClient, logger *logger.Logger) invoice.SequenceRepository {
	return mongoRepo.NewSequenceRepository(client, logger)
}

func NewPaymentRepository(client db.IClient, logger *logger.Logger) payment.Repository {
	return mongoRepo.NewPaymentRepository(client, logger)
}

func NewAuditLogRepository(client db.IClient, logger *logger.Logger) auditlog.Repository {
	return mongoRepo.NewAuditLogRepository(client, logger)
}

func NewMatterQueryRepository(client db.IClient, logger *logger.Logger) query.Repository[matter.Matter] {
	return mongoRepo.NewEntityRepository[matter.Matter](client, db.CollectionMatters, logger)
}

func NewInvoiceQueryRepository(client db.IClient, logger *logger.Logger) query.Repository[invoice.Invoice] {
	return mongoRepo.NewEntityRepository[invoice.Invoice](client, db.CollectionInvoices, logger)
}
