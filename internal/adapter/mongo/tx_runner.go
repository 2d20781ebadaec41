package mongo

import (
	"context"

	"github.com/pawmates/adoption-service/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// txRunner wraps the driver's session API. Repository calls made with the
// session context commit or abort together. Multi-document transactions need
// a replica set; deployments without one configure the noop runner instead
// and rely on the compensating protocol in the workflow engine.
type txRunner struct {
	client *mongo.Client
}

func NewTxRunner(client *mongo.Client) repository.TxRunner {
	return &txRunner{client: client}
}

func (t *txRunner) Supported() bool {
	return true
}

func (t *txRunner) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}

// NoopTxRunner executes the callback without a transaction. Used when the
// store cannot provide multi-document atomicity.
type NoopTxRunner struct{}

func (NoopTxRunner) Supported() bool {
	return false
}

func (NoopTxRunner) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
