// Package memory is the in-process backend. Every call sleeps for a
// configurable random latency to behave like a slow remote store; rows live
// for the life of the process.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/baharkarakas/point-ledger/internal/models"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
)

func NewRepositories(lat Latency) repo.Stores {
	return repo.Stores{
		Balances:  NewBalances(lat),
		Histories: NewHistories(lat),
		Close:     func() {},
	}
}

type Balances struct {
	lat  Latency
	mu   sync.RWMutex
	rows map[int64]models.Balance
}

func NewBalances(lat Latency) *Balances {
	return &Balances{lat: lat, rows: make(map[int64]models.Balance)}
}

func (b *Balances) Get(ctx context.Context, userID int64) (models.Balance, error) {
	if err := b.lat.wait(ctx); err != nil {
		return models.Balance{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if row, ok := b.rows[userID]; ok {
		return row, nil
	}
	return models.EmptyBalance(userID), nil
}

func (b *Balances) Save(ctx context.Context, bal models.Balance) (models.Balance, error) {
	if err := b.lat.wait(ctx); err != nil {
		return models.Balance{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[bal.UserID] = bal
	return bal, nil
}

func (b *Balances) UserIDs(ctx context.Context) ([]int64, error) {
	if err := b.lat.wait(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	ids := make([]int64, 0, len(b.rows))
	for id := range b.rows {
		ids = append(ids, id)
	}
	b.mu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}

type Histories struct {
	lat    Latency
	mu     sync.RWMutex
	cursor int64
	byUser map[int64][]models.Transaction
}

func NewHistories(lat Latency) *Histories {
	return &Histories{lat: lat, byUser: make(map[int64][]models.Transaction)}
}

func (h *Histories) Append(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.Amount <= 0 {
		return models.Transaction{}, models.ErrInvalidAmount
	}
	if err := h.lat.wait(ctx); err != nil {
		return models.Transaction{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor++
	tx.ID = h.cursor
	h.byUser[tx.UserID] = append(h.byUser[tx.UserID], tx)
	return tx, nil
}

func (h *Histories) ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	if err := h.lat.wait(ctx); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	rows := h.byUser[userID]
	out := make([]models.Transaction, len(rows))
	copy(out, rows)
	return out, nil
}
