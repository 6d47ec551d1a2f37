package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Server error codes that mean "retry the whole transaction"
const (
	codeWriteConflict         = 112
	codeLockTimeout           = 24
	codeNoSuchTransaction     = 251
	codeCatalogChanged        = 246 // SnapshotUnavailable after a concurrent catalog change
	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"
)

// maxCommitAttempts bounds how often a commit with an unknown result is re-sent
const maxCommitAttempts = 3

// committer is the part of mongo.Session the commit loop needs
type committer interface {
	CommitTransaction(ctx context.Context) error
}

// SessionStarter is satisfied by *pkg/mongodb.Client
type SessionStarter interface {
	StartSession() (mongo.Session, error)
}

// TxRunner runs exactly one attempt of a unit of work inside a MongoDB transaction.
// Retries belong to txn.Coordinator.
type TxRunner struct {
	sessions SessionStarter
	opts     *options.TransactionOptions
}

var _ txn.Runner = (*TxRunner)(nil)

// NewTxRunner creates a TxRunner with snapshot reads and majority writes
func NewTxRunner(sessions SessionStarter) *TxRunner {
	return &TxRunner{
		sessions: sessions,
		opts: options.Transaction().
			SetReadConcern(readconcern.Snapshot()).
			SetWriteConcern(writeconcern.New(writeconcern.WMajority())),
	}
}

// RunInTransaction starts a session and transaction, runs fn with a session context and commits
func (r *TxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := r.sessions.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(r.opts); err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}
		if err := fn(sc); err != nil {
			_ = sess.AbortTransaction(context.Background())
			return classify(err)
		}
		return commit(sc, sess, maxCommitAttempts)
	})
}

// commit sends commitTransaction and re-sends only the commit while the server reports an
// unknown result. No abort follows a commit attempt. Once an outcome has been unknown, any
// later failure is reported as unknown too, never as transient.
func commit(ctx context.Context, c committer, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = c.CommitTransaction(ctx)
		if err == nil {
			return nil
		}
		if !hasLabel(err, labelUnknownCommitResult) {
			if i == 0 {
				return classify(err)
			}
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("%w: %v", txn.ErrCommitOutcomeUnknown, err)
}

func hasLabel(err error, label string) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel(label)
}

// classify marks driver errors after which the whole transaction may be retried and passes the rest through
func classify(err error) error {
	if err == nil || txn.IsTransient(err) {
		return err
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		if se.HasErrorLabel(labelTransientTransaction) {
			return txn.Transient(err)
		}
		if se.HasErrorCode(codeWriteConflict) || se.HasErrorCode(codeLockTimeout) ||
			se.HasErrorCode(codeNoSuchTransaction) || se.HasErrorCode(codeCatalogChanged) {
			return txn.Transient(err)
		}
	}
	return err
}

// mapError turns driver sentinel errors into repository errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repositories.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", repositories.ErrDuplicateKey, err)
	}
	return classify(err)
}
