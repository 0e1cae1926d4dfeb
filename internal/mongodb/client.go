package mongodb

import (
	"context"

	"github.com/lexcore/lexcore/internal/config"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Collection names owned by the core
const (
	CollectionMatters   = "matters"
	CollectionInvoices  = "invoices"
	CollectionPayments  = "payments"
	CollectionAuditLogs = "audit_logs"
	CollectionCounters  = "counters"
)

// IClient defines the interface for document store client operations
type IClient interface {
	// WithTx wraps the given function in a multi-document transaction.
	// If the context already carries a session the ambient transaction is
	// reused and fn runs inside it.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Collection returns a handle to the named collection
	Collection(name string) *mongo.Collection

	// Close disconnects the underlying client
	Close(ctx context.Context) error
}

// Client wraps mongo.Client to provide transaction management
type Client struct {
	mc     *mongo.Client
	db     *mongo.Database
	logger *logger.Logger
}

var _ IClient = (*Client)(nil)

// NewClient connects to the configured deployment. Transactions require a
// replica set or sharded cluster; a standalone server will fail at WithTx,
// not here.
func NewClient(ctx context.Context, cfg *config.Configuration, logger *logger.Logger) (*Client, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(cfg.Mongo.ConnectTimeout).
		SetRegistry(NewRegistry())

	mc, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to the document store").
			Mark(ierr.ErrDatabase)
	}

	if err := mc.Ping(ctx, nil); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Document store is unreachable").
			Mark(ierr.ErrDatabase)
	}

	return &Client{
		mc:     mc,
		db:     mc.Database(cfg.Mongo.Database),
		logger: logger,
	}, nil
}

// Collection returns a handle to the named collection
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Close disconnects the underlying client
func (c *Client) Close(ctx context.Context) error {
	return c.mc.Disconnect(ctx)
}

// WithTx wraps the given function in a transaction
func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Already inside a transaction: reuse it, the outermost caller commits
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := c.mc.StartSession()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to start a database session").
			Mark(ierr.ErrDatabase)
	}
	defer session.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txOpts)
	if err != nil {
		c.logger.Errorw("transaction aborted", "error", err)
		return ierr.WithError(err).
			WithHint("The operation was rolled back").
			Mark(ierr.ErrTransactionAborted)
	}

	return nil
}
