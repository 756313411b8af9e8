// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/spendwise/internal/models"
)

// ErrNotFound indicates a record does not exist or is not visible to the caller.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// DuplicateError reports which unique user field collided.
// It matches ErrAlreadyExists with errors.Is.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

// Is lets errors.Is(err, ErrAlreadyExists) match a DuplicateError.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// UserStore is the credential store: user accounts and budgets.
type UserStore interface {
	// CreateUser persists a new user. Returns a *DuplicateError when the
	// username or email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if missing.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByIdentifier retrieves the user whose username or email equals
	// identifier. Returns ErrNotFound if missing.
	GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)

	// GetUsersByIDs retrieves multiple users keyed by ID.
	// Users that don't exist are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// SearchUsers returns at most limit users whose username contains query,
	// compared case-insensitively, excluding excludeID. Ordered by username.
	SearchUsers(ctx context.Context, query, excludeID string, limit int) ([]*models.User, error)

	// UpdateBudget sets the user's monthly budget. Returns ErrNotFound if missing.
	UpdateBudget(ctx context.Context, userID string, budget float64) error
}

// ExpenseStore is the expense store. Every single-record operation is
// scoped to an owner: a record owned by someone else behaves as missing.
type ExpenseStore interface {
	// CreateExpense persists a new expense. ID and timestamps are assigned
	// when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves the expense with id owned by ownerID.
	// Returns ErrNotFound if missing or owned by someone else.
	GetExpense(ctx context.Context, id, ownerID string) (*models.Expense, error)

	// ListExpenses returns every expense owned by ownerID, newest date first.
	ListExpenses(ctx context.Context, ownerID string) ([]*models.Expense, error)

	// UpdateExpense overwrites the expense identified by expense.ID and
	// expense.OwnerID, including its split fields.
	// Returns ErrNotFound if missing.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes the expense with id owned by ownerID.
	// Returns ErrNotFound if missing.
	DeleteExpense(ctx context.Context, id, ownerID string) error

	// DeleteSplitShares removes every share record (non-creator) of a split
	// group and returns how many were removed.
	DeleteSplitShares(ctx context.Context, groupID string) (int64, error)

	// DeleteSplitGroup removes every record of a split group, creator
	// included, and returns how many were removed.
	DeleteSplitGroup(ctx context.Context, groupID string) (int64, error)

	// GetSplitCreators returns the creator record of each given group,
	// keyed by group ID. Groups without a creator are omitted.
	GetSplitCreators(ctx context.Context, groupIDs []string) (map[string]*models.Expense, error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	ExpenseStore

	// WithTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling WithTx on a transactional Store runs fn in the same transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
