package auditlog

import (
	"context"
	"time"

	"github.com/lexcore/lexcore/internal/types"
)

// Operation is the kind of mutation an audit entry records
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Entry is one audit-log record written after a successful mutation
type Entry struct {
	ID             string         `bson:"_id" json:"id"`
	TenantID       string         `bson:"tenant_id" json:"tenant_id"`
	Collection     string         `bson:"collection" json:"collection"`
	DocumentID     string         `bson:"document_id" json:"document_id"`
	ChangedBy      string         `bson:"changed_by" json:"changed_by"`
	ChangedFields  []string       `bson:"changed_fields" json:"changed_fields"`
	Operation      Operation      `bson:"operation" json:"operation"`
	PreviousValues map[string]any `bson:"previous_values,omitempty" json:"previous_values,omitempty"`
	NewValues      map[string]any `bson:"new_values,omitempty" json:"new_values,omitempty"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
}

// NewEntry builds an entry stamped with the acting identity from context
func NewEntry(ctx context.Context, collection, documentID string, op Operation) *Entry {
	return &Entry{
		ID:         types.GenerateUUIDWithPrefix(types.UUIDPrefixAuditLog),
		TenantID:   types.GetTenantID(ctx),
		Collection: collection,
		DocumentID: documentID,
		ChangedBy:  types.GetUserID(ctx),
		Operation:  op,
		CreatedAt:  time.Now().UTC(),
	}
}

// WithChange records one changed field with its previous and new value
func (e *Entry) WithChange(field string, previous, next any) *Entry {
	e.ChangedFields = append(e.ChangedFields, field)
	if e.PreviousValues == nil {
		e.PreviousValues = map[string]any{}
	}
	if e.NewValues == nil {
		e.NewValues = map[string]any{}
	}
	e.PreviousValues[field] = previous
	e.NewValues[field] = next
	return e
}
