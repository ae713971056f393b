package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/baharkarakas/point-ledger/internal/lock"
	"github.com/baharkarakas/point-ledger/internal/metrics"
	"github.com/baharkarakas/point-ledger/internal/models"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
	"github.com/baharkarakas/point-ledger/internal/worker"
)

// Report compares a user's balance with the total implied by their history.
type Report struct {
	UserID     int64 `json:"userId"`
	Point      int64 `json:"point"`
	Replayed   int64 `json:"replayed"`
	Records    int   `json:"records"`
	Consistent bool  `json:"consistent"`
}

type SweepResult struct {
	Checked      int      `json:"checked"`
	Inconsistent []Report `json:"inconsistent"`
}

// Reconciler detects balance/history divergence, e.g. a balance saved whose
// history append then failed. It reports; it never repairs.
type Reconciler struct {
	bal   repo.Balances
	hist  repo.Histories
	locks *lock.Keyed[int64]
	wp    *worker.Pool
	log   *slog.Logger
}

func NewReconciler(b repo.Balances, h repo.Histories, locks *lock.Keyed[int64], wp *worker.Pool, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{bal: b, hist: h, locks: locks, wp: wp, log: log}
}

// Verify checks one user under that user's lock, so no mutation is half applied.
func (r *Reconciler) Verify(ctx context.Context, userID int64) (Report, error) {
	g := r.locks.Lock(userID)
	defer g.Unlock()

	b, err := r.bal.Get(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	txs, err := r.hist.ListByUser(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	replayed := models.Replay(txs)
	return Report{
		UserID:     userID,
		Point:      b.Point,
		Replayed:   replayed,
		Records:    len(txs),
		Consistent: replayed == b.Point,
	}, nil
}

// Sweep verifies every user with a stored balance, in parallel on the worker pool.
func (r *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	ids, err := r.bal.UserIDs(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list users: %w", err)
	}
	metrics.KnownUsers.Set(float64(len(ids)))

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		res  = SweepResult{Inconsistent: []Report{}}
		errs []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}
		wg.Add(1)
		r.wp.Submit(func() {
			defer wg.Done()
			rep, err := r.Verify(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			res.Checked++
			if !rep.Consistent {
				res.Inconsistent = append(res.Inconsistent, rep)
			}
		})
	}
	wg.Wait()

	sort.Slice(res.Inconsistent, func(i, j int) bool { return res.Inconsistent[i].UserID < res.Inconsistent[j].UserID })
	for _, rep := range res.Inconsistent {
		r.log.Warn("balance diverges from history",
			"user_id", rep.UserID, "point", rep.Point, "replayed", rep.Replayed, "records", rep.Records)
	}
	metrics.InconsistentUsers.Set(float64(len(res.Inconsistent)))
	r.log.Info("reconciliation sweep done", "checked", res.Checked, "inconsistent", len(res.Inconsistent))
	return res, errors.Join(errs...)
}
