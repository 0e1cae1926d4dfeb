package auditlog

import "context"

// Repository defines the interface for the audit-log sink. Entries are
// recorded after successful mutations; a failing sink must never fail the
// mutation it describes.
type Repository interface {
	// Record persists one audit entry
	Record(ctx context.Context, entry *Entry) error
}
