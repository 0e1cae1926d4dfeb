package service

import (
	"context"
	"time"

	"github.com/lexcore/lexcore/internal/domain/auditlog"
	"github.com/lexcore/lexcore/internal/domain/invoice"
	"github.com/lexcore/lexcore/internal/domain/matter"
	"github.com/lexcore/lexcore/internal/mongodb"
	"github.com/lexcore/lexcore/internal/query"
	"github.com/lexcore/lexcore/internal/types"
	"go.mongodb.org/mongo-driver/bson"
)

// Fields the free-text search term is matched against
var (
	matterSearchFields  = []string{"title", "client_id"}
	invoiceSearchFields = []string{"invoice_number", "client_id"}
)

// MatterService manages matters and their paginated list views
type MatterService interface {
	CreateMatter(ctx context.Context, req CreateMatterRequest) (*matter.Matter, error)
	GetMatter(ctx context.Context, id string) (*matter.Matter, error)
	ListMatters(ctx context.Context, queryParams map[string]any) (*types.ListResponse[matter.Matter], error)
	ListInvoices(ctx context.Context, queryParams map[string]any) (*types.ListResponse[invoice.Invoice], error)
}

type matterService struct {
	ServiceParams
}

// NewMatterService creates a new matter service
func NewMatterService(params ServiceParams) MatterService {
	return &matterService{
		ServiceParams: params,
	}
}

// CreateMatter validates and persists a new matter
func (s *matterService) CreateMatter(ctx context.Context, req CreateMatterRequest) (*matter.Matter, error) {
	m := req.ToMatter(ctx)
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if err := s.MatterRepo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.recordAuditEntry(ctx, auditlog.NewEntry(ctx, mongodb.CollectionMatters, m.ID, auditlog.OperationCreate).
		WithChange("title", nil, m.Title))

	return m, nil
}

// GetMatter retrieves a matter by ID
func (s *matterService) GetMatter(ctx context.Context, id string) (*matter.Matter, error) {
	return s.MatterRepo.Get(ctx, id)
}

// ListMatters runs a tenant-scoped paginated list over matters. Client
// filters expand generically except team_member_ids, which accepts the
// assigned/unassigned tokens.
func (s *matterService) ListMatters(ctx context.Context, queryParams map[string]any) (*types.ListResponse[matter.Matter], error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}

	return query.List(ctx, s.MatterQueryRepo, query.ListParams{
		Query:            queryParams,
		SearchableFields: matterSearchFields,
		BaseFilters: query.Static(bson.M{
			"tenant_id":  types.GetTenantID(ctx),
			"is_deleted": false,
		}),
		Expander: query.AssignmentExpander("team_member_ids"),
	})
}

// ListInvoices runs a tenant-scoped paginated list over invoices. Date
// fields accept the relative-date tokens, resolved once against the current
// clock.
func (s *matterService) ListInvoices(ctx context.Context, queryParams map[string]any) (*types.ListResponse[invoice.Invoice], error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}

	return query.List(ctx, s.InvoiceQueryRepo, query.ListParams{
		Query:            queryParams,
		SearchableFields: invoiceSearchFields,
		BaseFilters: query.Static(bson.M{
			"tenant_id":  types.GetTenantID(ctx),
			"is_deleted": false,
		}),
		Expander: query.DateTokenExpander(time.Now().UTC(), "due_date", "issue_date"),
	})
}

// recordAuditEntry mirrors the billing service's best-effort audit sink
func (s *matterService) recordAuditEntry(ctx context.Context, entry *auditlog.Entry) {
	if s.AuditLogRepo == nil {
		return
	}
	if err := s.AuditLogRepo.Record(ctx, entry); err != nil {
		s.Logger.Warnw("failed to record audit entry",
			"collection", entry.Collection,
			"document_id", entry.DocumentID,
			"error", err,
		)
	}
}
