package service

import (
	"github.com/lexcore/lexcore/internal/config"
	"github.com/lexcore/lexcore/internal/domain/auditlog"
	"github.com/lexcore/lexcore/internal/domain/invoice"
	"github.com/lexcore/lexcore/internal/domain/matter"
	"github.com/lexcore/lexcore/internal/domain/notification"
	"github.com/lexcore/lexcore/internal/domain/payment"
	"github.com/lexcore/lexcore/internal/logger"
	"github.com/lexcore/lexcore/internal/mongodb"
	"github.com/lexcore/lexcore/internal/query"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     mongodb.IClient

	// Repositories
	MatterRepo   matter.Repository
	InvoiceRepo  invoice.Repository
	SequenceRepo invoice.SequenceRepository
	PaymentRepo  payment.Repository

	// List-query repositories backing the paginated list operations
	MatterQueryRepo  query.Repository[matter.Matter]
	InvoiceQueryRepo query.Repository[invoice.Invoice]

	// Collaborators invoked after successful mutations
	AuditLogRepo auditlog.Repository
	Notifier     notification.Dispatcher
}
