package testutil

import (
	"context"

	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/logger"
	"github.com/lexcore/lexcore/internal/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ mongodb.IClient = (*MockDocumentClient)(nil)

type mockTxKey struct{}

// MockDocumentClient is a mock implementation of the document store client.
// WithTx snapshots every registered store before running fn and restores
// them all when fn fails, so tests observe the same all-or-nothing behavior
// a real multi-document transaction gives.
type MockDocumentClient struct {
	logger *logger.Logger
	stores []Snapshotter
}

// NewMockDocumentClient creates a new mock document client
func NewMockDocumentClient(logger *logger.Logger, stores ...Snapshotter) *MockDocumentClient {
	return &MockDocumentClient{
		logger: logger,
		stores: stores,
	}
}

// Register adds stores to the set rolled back on transaction failure
func (c *MockDocumentClient) Register(stores ...Snapshotter) {
	c.stores = append(c.stores, stores...)
}

// WithTx executes fn, rolling every registered store back if it fails. A
// nested call reuses the ambient transaction; only the outermost call rolls
// back.
func (c *MockDocumentClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(mockTxKey{}) != nil {
		return fn(ctx)
	}

	snapshots := make([]any, len(c.stores))
	for i, store := range c.stores {
		snapshots[i] = store.Snapshot()
	}

	err := fn(context.WithValue(ctx, mockTxKey{}, true))
	if err != nil {
		for i, store := range c.stores {
			store.Restore(snapshots[i])
		}
		c.logger.Errorw("transaction aborted", "error", err)
		return ierr.WithError(err).
			WithHint("The operation was rolled back").
			Mark(ierr.ErrTransactionAborted)
	}

	return nil
}

// Collection is not backed by a real database in tests
func (c *MockDocumentClient) Collection(name string) *mongo.Collection {
	return nil
}

// Close is a no-op
func (c *MockDocumentClient) Close(ctx context.Context) error {
	return nil
}
