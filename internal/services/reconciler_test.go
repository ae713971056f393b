package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/baharkarakas/point-ledger/internal/lock"
	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/baharkarakas/point-ledger/internal/repository/memory"
	"github.com/baharkarakas/point-ledger/internal/worker"
)

// flakyHistories fails appends for one user.
type flakyHistories struct {
	*memory.Histories
	failFor int64
}

func (f *flakyHistories) Append(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.UserID == f.failFor {
		return models.Transaction{}, errors.New("history unavailable")
	}
	return f.Histories.Append(ctx, tx)
}

func TestReconciler_ConsistentAfterConcurrentLoad(t *testing.T) {
	stores := memory.NewRepositories(testLatency)
	locks := lock.NewKeyed[int64]()
	svc := NewPointService(stores.Balances, stores.Histories, locks, WithLogger(quietLogger()))
	wp := worker.NewPool(4)
	defer wp.Stop()
	rec := NewReconciler(stores.Balances, stores.Histories, locks, wp, quietLogger())
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 40; i++ {
		uid := int64(i % 4)
		g.Go(func() error {
			if _, err := svc.Charge(ctx, uid, 200); err != nil {
				return err
			}
			_, err := svc.Use(ctx, uid, 50)
			return err
		})
	}
	require.NoError(t, g.Wait())

	rep, err := rec.Verify(ctx, 0)
	require.NoError(t, err)
	assert.True(t, rep.Consistent)
	assert.Equal(t, int64(10*150), rep.Point)
	assert.Equal(t, 20, rep.Records)

	res, err := rec.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Checked)
	assert.Empty(t, res.Inconsistent)
}

func TestReconciler_DetectsAppendFailure(t *testing.T) {
	// GIVEN: history appends fail for user 7 only
	bal := memory.NewBalances(memory.Latency{})
	hist := &flakyHistories{Histories: memory.NewHistories(memory.Latency{}), failFor: 7}
	locks := lock.NewKeyed[int64]()
	svc := NewPointService(bal, hist, locks, WithLogger(quietLogger()))
	wp := worker.NewPool(2)
	defer wp.Stop()
	rec := NewReconciler(bal, hist, locks, wp, quietLogger())
	ctx := context.Background()

	_, err := svc.Charge(ctx, 6, 100)
	require.NoError(t, err)

	// WHEN: a charge saves the balance but fails to append
	_, err = svc.Charge(ctx, 7, 100)
	require.Error(t, err)

	// THEN: the divergence is visible, not hidden
	b, err := svc.GetPoint(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Point)

	rep, err := rec.Verify(ctx, 7)
	require.NoError(t, err)
	assert.False(t, rep.Consistent)
	assert.Equal(t, int64(0), rep.Replayed)

	res, err := rec.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	require.Len(t, res.Inconsistent, 1)
	assert.Equal(t, int64(7), res.Inconsistent[0].UserID)
}

func TestReconciler_SweepCoversStoredUsersAfterRestart(t *testing.T) {
	// GIVEN: a balance row written in an earlier process, with no history
	stores := memory.NewRepositories(memory.Latency{})
	ctx := context.Background()
	_, err := stores.Balances.Save(ctx, models.Balance{UserID: 21, Point: 500})
	require.NoError(t, err)

	// WHEN: a fresh process sweeps with an empty lock table
	wp := worker.NewPool(2)
	defer wp.Stop()
	rec := NewReconciler(stores.Balances, stores.Histories, lock.NewKeyed[int64](), wp, quietLogger())
	res, err := rec.Sweep(ctx)

	// THEN: the stored user is still checked
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	require.Len(t, res.Inconsistent, 1)
	assert.Equal(t, int64(21), res.Inconsistent[0].UserID)
}

func TestReconciler_VerifyUnknownUserNotSwept(t *testing.T) {
	stores := memory.NewRepositories(memory.Latency{})
	wp := worker.NewPool(1)
	defer wp.Stop()
	rec := NewReconciler(stores.Balances, stores.Histories, lock.NewKeyed[int64](), wp, quietLogger())
	ctx := context.Background()

	rep, err := rec.Verify(ctx, 99)
	require.NoError(t, err)
	assert.True(t, rep.Consistent)

	res, err := rec.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Checked)
}

func TestReconciler_SweepCanceled(t *testing.T) {
	stores := memory.NewRepositories(memory.Latency{})
	locks := lock.NewKeyed[int64]()
	locks.Lock(1).Unlock()
	wp := worker.NewPool(1)
	defer wp.Stop()
	rec := NewReconciler(stores.Balances, stores.Histories, locks, wp, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rec.Sweep(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
