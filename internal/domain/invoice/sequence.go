package invoice

import (
	"context"
	"fmt"
	"time"
)

// InvoiceSequence represents a tenant's invoice number sequence for a
// specific month
type InvoiceSequence struct {
	ID        string    `bson:"_id"`
	TenantID  string    `bson:"tenant_id"`
	YearMonth string    `bson:"year_month"`
	LastValue int64     `bson:"last_value"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SequenceRepository hands out monotonic invoice sequence numbers
type SequenceRepository interface {
	// NextSequence atomically increments and returns the next value for the
	// tenant and month
	NextSequence(ctx context.Context, tenantID, yearMonth string) (int64, error)
}

// FormatYearMonth formats the sequence bucket for a point in time
func FormatYearMonth(t time.Time) string {
	return t.Format("200601")
}

// FormatInvoiceNumber renders a sequence value as a display invoice number,
// e.g. INV-202609-00042
func FormatInvoiceNumber(yearMonth string, seq int64) string {
	return fmt.Sprintf("INV-%s-%05d", yearMonth, seq)
}
