package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/point-ledger/internal/lock"
	"github.com/baharkarakas/point-ledger/internal/models"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockedService(t *testing.T) (*PointService, *mockBalances, *mockHistories) {
	t.Helper()
	b := &mockBalances{}
	h := &mockHistories{}
	svc := NewPointService(b, h, lock.NewKeyed[int64](),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(quietLogger()),
	)
	return svc, b, h
}

func TestCharge_Success(t *testing.T) {
	svc, b, h := newMockedService(t)
	ctx := context.Background()

	cur := models.Balance{UserID: 1, Point: 500, UpdateMillis: 1}
	next := models.Balance{UserID: 1, Point: 800, UpdateMillis: fixedNow.UnixMilli()}
	rec := models.Transaction{UserID: 1, Type: models.TxnCharge, Amount: 300, TimeMillis: fixedNow.UnixMilli()}

	b.On("Get", mock.Anything, int64(1)).Return(cur, nil).Once()
	b.On("Save", mock.Anything, next).Return(next, nil).Once()
	h.On("Append", mock.Anything, rec).Return(models.Transaction{ID: 1}, nil).Once()

	got, err := svc.Charge(ctx, 1, 300)
	require.NoError(t, err)
	assert.Equal(t, next, got)
	b.AssertExpectations(t)
	h.AssertExpectations(t)
}

func TestCharge_RecordsChargedAmountNotTotal(t *testing.T) {
	svc, b, h := newMockedService(t)

	cur := models.Balance{UserID: 4, Point: 10_000}
	b.On("Get", mock.Anything, int64(4)).Return(cur, nil)
	b.On("Save", mock.Anything, mock.Anything).Return(models.Balance{UserID: 4, Point: 10_050}, nil)
	h.On("Append", mock.Anything, mock.MatchedBy(func(tx models.Transaction) bool {
		return tx.Amount == 50 && tx.Type == models.TxnCharge
	})).Return(models.Transaction{}, nil).Once()

	_, err := svc.Charge(context.Background(), 4, 50)
	require.NoError(t, err)
	h.AssertExpectations(t)
}

func TestCharge_ValidationWritesNothing(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   error
	}{
		{"zero", 0, models.ErrInvalidAmount},
		{"negative", -1, models.ErrInvalidAmount},
		{"too large", 2_000_001, models.ErrAmountTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, b, h := newMockedService(t)
			b.On("Get", mock.Anything, int64(1)).Return(models.EmptyBalance(1), nil)

			_, err := svc.Charge(context.Background(), 1, tt.amount)
			require.ErrorIs(t, err, tt.want)

			b.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			h.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		})
	}
}

func TestCharge_ConfiguredLimit(t *testing.T) {
	b := &mockBalances{}
	h := &mockHistories{}
	svc := NewPointService(b, h, lock.NewKeyed[int64](), WithMaxCharge(1000), WithLogger(quietLogger()))
	b.On("Get", mock.Anything, int64(1)).Return(models.EmptyBalance(1), nil)

	_, err := svc.Charge(context.Background(), 1, 1001)
	require.ErrorIs(t, err, models.ErrAmountTooLarge)
	b.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUse_Success(t *testing.T) {
	svc, b, h := newMockedService(t)

	cur := models.Balance{UserID: 2, Point: 1000}
	next := models.Balance{UserID: 2, Point: 700, UpdateMillis: fixedNow.UnixMilli()}
	rec := models.Transaction{UserID: 2, Type: models.TxnUse, Amount: 300, TimeMillis: fixedNow.UnixMilli()}

	b.On("Get", mock.Anything, int64(2)).Return(cur, nil)
	save := b.On("Save", mock.Anything, next).Return(next, nil).Once()
	h.On("Append", mock.Anything, rec).Return(models.Transaction{ID: 9}, nil).Once().NotBefore(save)

	got, err := svc.Use(context.Background(), 2, 300)
	require.NoError(t, err)
	assert.Equal(t, next, got)
	b.AssertExpectations(t)
	h.AssertExpectations(t)
}

func TestUse_ValidationWritesNothing(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   error
	}{
		{"zero", 0, models.ErrInvalidAmount},
		{"negative", -100, models.ErrInvalidAmount},
		{"insufficient", 1001, models.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, b, h := newMockedService(t)
			b.On("Get", mock.Anything, int64(2)).Return(models.Balance{UserID: 2, Point: 1000}, nil)

			_, err := svc.Use(context.Background(), 2, tt.amount)
			require.ErrorIs(t, err, tt.want)

			b.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			h.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		})
	}
}

func TestMutation_StoreErrorsPassThroughAndReleaseLock(t *testing.T) {
	dbDown := errors.New("db down")

	t.Run("get fails", func(t *testing.T) {
		svc, b, h := newMockedService(t)
		b.On("Get", mock.Anything, int64(1)).Return(models.Balance{}, dbDown).Once()
		b.On("Get", mock.Anything, int64(1)).Return(models.EmptyBalance(1), nil)
		b.On("Save", mock.Anything, mock.Anything).Return(models.Balance{UserID: 1, Point: 5}, nil)
		h.On("Append", mock.Anything, mock.Anything).Return(models.Transaction{}, nil)

		_, err := svc.Charge(context.Background(), 1, 5)
		require.Same(t, dbDown, err)

		_, err = svc.Charge(context.Background(), 1, 5)
		require.NoError(t, err)
	})

	t.Run("save fails", func(t *testing.T) {
		svc, b, h := newMockedService(t)
		b.On("Get", mock.Anything, int64(1)).Return(models.Balance{UserID: 1, Point: 100}, nil)
		b.On("Save", mock.Anything, mock.Anything).Return(models.Balance{}, dbDown)

		_, err := svc.Use(context.Background(), 1, 10)
		require.Same(t, dbDown, err)
		h.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)

		assertUnlocked(t, svc, 1)
	})

	t.Run("append fails after save", func(t *testing.T) {
		svc, b, h := newMockedService(t)
		b.On("Get", mock.Anything, int64(1)).Return(models.Balance{UserID: 1, Point: 100}, nil)
		b.On("Save", mock.Anything, mock.Anything).Return(models.Balance{UserID: 1, Point: 150}, nil).Once()
		h.On("Append", mock.Anything, mock.Anything).Return(models.Transaction{}, dbDown)

		_, err := svc.Charge(context.Background(), 1, 50)
		require.Same(t, dbDown, err)
		b.AssertExpectations(t)

		assertUnlocked(t, svc, 1)
	})
}

func assertUnlocked(t *testing.T, svc *PointService, userID int64) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		svc.locks.Lock(userID).Unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock for user %d still held", userID)
	}
}

func TestGetPoint_NoLock(t *testing.T) {
	svc, b, _ := newMockedService(t)
	b.On("Get", mock.Anything, int64(3)).Return(models.EmptyBalance(3), nil)

	// a held mutation lock must not block reads
	g := svc.locks.Lock(3)
	defer g.Unlock()

	got, err := svc.GetPoint(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.EmptyBalance(3), got)
}

func TestGetHistory_EmptyNeverNil(t *testing.T) {
	svc, _, h := newMockedService(t)
	h.On("ListByUser", mock.Anything, int64(8)).Return(nil, nil)

	txs, err := svc.GetHistory(context.Background(), 8)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}
