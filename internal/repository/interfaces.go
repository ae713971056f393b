package repository

import (
	"context"

	"github.com/baharkarakas/point-ledger/internal/models"
)

// Balances holds one current balance row per user.
type Balances interface {
	// Get returns models.EmptyBalance(userID) when the user has no row.
	Get(ctx context.Context, userID int64) (models.Balance, error)
	// Save upserts by user id and returns the stored value.
	Save(ctx context.Context, b models.Balance) (models.Balance, error)
	// UserIDs lists every user with a stored row, ascending.
	UserIDs(ctx context.Context) ([]int64, error)
}

// Histories is an append-only log of transactions. No update, no delete.
type Histories interface {
	// Append stores tx and returns it with its assigned ID.
	// Non-positive amounts are rejected with models.ErrInvalidAmount.
	Append(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	// ListByUser returns the user's records in insertion order; empty, not nil, when none.
	ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error)
}

// Stores bundles the backends a ledger needs.
type Stores struct {
	Balances  Balances
	Histories Histories
	Close     func()
}
