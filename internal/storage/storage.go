package storage

import (
	"context"
	"errors"

	"github.com/finledger/backend/internal/models"
)

// Sentinel lookup errors shared by every store implementation. The ledger
// service translates these into its own error taxonomy.
var (
	ErrUserNotFound      = errors.New("storage: user not found")
	ErrStatementNotFound = errors.New("storage: statement not found")
	ErrEmailTaken        = errors.New("storage: email already registered")
)

// StatementStore is the append-only persistence contract for ledger entries.
// It performs no business validation; the sufficient-funds policy lives in the
// ledger service, which serializes check-then-insert per user.
type StatementStore interface {
	// Insert appends a fully-formed entry, assigning its id when empty, and
	// returns the stored statement.
	Insert(ctx context.Context, statement *models.Statement) (*models.Statement, error)

	// InsertTransfer appends the sent/received pair of a transfer atomically:
	// either both entries become visible or neither does.
	InsertTransfer(ctx context.Context, sent, received *models.Statement) error

	// FindByID looks up a single entry scoped to its owner. An id that exists
	// under a different user behaves exactly like a missing id.
	FindByID(ctx context.Context, userID, statementID string) (*models.Statement, error)

	// ListByUser returns every entry for a user in creation order, with no
	// pagination truncation. Ordering is load-bearing: it is the fold input.
	ListByUser(ctx context.Context, userID string) ([]models.Statement, error)
}

// UserStore is the collaborator lookup owned by user management. The ledger
// core only calls FindUserByID; registration and login use the rest.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
