package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/baharkarakas/point-ledger/internal/lock"
	"github.com/baharkarakas/point-ledger/internal/metrics"
	"github.com/baharkarakas/point-ledger/internal/models"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
)

// PointService charges, debits and reads user balances. Mutations for one
// user are serialized on that user's lock for the whole
// read-validate-save-append sequence; reads take no lock.
type PointService struct {
	bal       repo.Balances
	hist      repo.Histories
	locks     *lock.Keyed[int64]
	log       *slog.Logger
	maxCharge int64
	now       func() time.Time
}

type Option func(*PointService)

func WithMaxCharge(limit int64) Option {
	return func(s *PointService) {
		if limit > 0 {
			s.maxCharge = limit
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *PointService) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *PointService) { s.log = l }
}

func NewPointService(b repo.Balances, h repo.Histories, locks *lock.Keyed[int64], opts ...Option) *PointService {
	s := &PointService{
		bal:       b,
		hist:      h,
		locks:     locks,
		log:       slog.Default(),
		maxCharge: models.DefaultMaxCharge,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ----------------- Mutations -----------------

func (s *PointService) Charge(ctx context.Context, userID, amount int64) (models.Balance, error) {
	return s.mutate(ctx, models.TxnCharge, userID, amount, func(cur models.Balance, at time.Time) (models.Balance, error) {
		return cur.Charge(amount, s.maxCharge, at)
	})
}

func (s *PointService) Use(ctx context.Context, userID, amount int64) (models.Balance, error) {
	return s.mutate(ctx, models.TxnUse, userID, amount, func(cur models.Balance, at time.Time) (models.Balance, error) {
		return cur.Use(amount, at)
	})
}

func (s *PointService) mutate(
	ctx context.Context,
	typ models.TransactionType,
	userID, amount int64,
	apply func(cur models.Balance, at time.Time) (models.Balance, error),
) (out models.Balance, err error) {
	defer func() { observe(typ, err) }()

	if err := ctx.Err(); err != nil {
		return models.Balance{}, err
	}

	start := time.Now()
	g := s.locks.Lock(userID)
	defer g.Unlock()
	metrics.LockWait.WithLabelValues(string(typ)).Observe(time.Since(start).Seconds())

	// once the lock is held the section runs to completion; a caller that
	// goes away must not leave a saved balance without its history record
	ctx = context.WithoutCancel(ctx)

	cur, err := s.bal.Get(ctx, userID)
	if err != nil {
		return models.Balance{}, err
	}

	at := s.now()
	next, err := apply(cur, at)
	if err != nil {
		return models.Balance{}, err
	}
	rec, err := newRecord(typ, userID, amount, at)
	if err != nil {
		return models.Balance{}, err
	}

	saved, err := s.bal.Save(ctx, next)
	if err != nil {
		return models.Balance{}, err
	}
	if _, err := s.hist.Append(ctx, rec); err != nil {
		// balance is already saved; the reconciler will report the gap
		s.log.Error("history append failed after balance save",
			"user_id", userID, "type", typ, "amount", amount, "point", saved.Point, "err", err)
		return models.Balance{}, err
	}

	s.log.Debug("point updated", "user_id", userID, "type", typ, "amount", amount, "point", saved.Point)
	return saved, nil
}

func newRecord(typ models.TransactionType, userID, amount int64, at time.Time) (models.Transaction, error) {
	if typ == models.TxnUse {
		return models.NewUseTransaction(userID, amount, at)
	}
	return models.NewChargeTransaction(userID, amount, at)
}

func observe(typ models.TransactionType, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case models.IsValidation(err):
		result = metrics.ResultRejected
	default:
		result = metrics.ResultError
	}
	metrics.OperationsTotal.WithLabelValues(string(typ), result).Inc()
}

// ----------------- Queries -----------------

// GetPoint returns the stored balance, or the empty balance for an unknown user.
func (s *PointService) GetPoint(ctx context.Context, userID int64) (models.Balance, error) {
	return s.bal.Get(ctx, userID)
}

// GetHistory returns the user's records in insertion order; never nil.
func (s *PointService) GetHistory(ctx context.Context, userID int64) ([]models.Transaction, error) {
	txs, err := s.hist.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}
