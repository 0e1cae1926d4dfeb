package types

import (
	"context"
	"time"
)

// BaseModel is a base model for all domain models that need to be persisted
// in the database. Records are soft-deleted: IsDeleted is flipped instead of
// removing the document, and list queries filter on it via base filters.
type BaseModel struct {
	TenantID  string    `bson:"tenant_id" json:"tenant_id"`
	IsDeleted bool      `bson:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
	UpdatedBy string    `bson:"updated_by" json:"updated_by"`
}

func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		TenantID:  GetTenantID(ctx),
		IsDeleted: false,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: GetUserID(ctx),
		UpdatedBy: GetUserID(ctx),
	}
}

// Touch updates the audit fields on mutation
func (m *BaseModel) Touch(ctx context.Context) {
	m.UpdatedAt = time.Now().UTC()
	m.UpdatedBy = GetUserID(ctx)
}
