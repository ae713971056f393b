package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/baharkarakas/point-ledger/internal/models"
)

type mockBalances struct{ mock.Mock }

func (m *mockBalances) Get(ctx context.Context, userID int64) (models.Balance, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Balance), args.Error(1)
}

func (m *mockBalances) Save(ctx context.Context, b models.Balance) (models.Balance, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(models.Balance), args.Error(1)
}

func (m *mockBalances) UserIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

type mockHistories struct{ mock.Mock }

func (m *mockHistories) Append(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *mockHistories) ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	args := m.Called(ctx, userID)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}
