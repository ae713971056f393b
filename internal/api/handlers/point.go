package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/point-ledger/internal/api/httpx"
	"github.com/baharkarakas/point-ledger/internal/api/validate"
	"github.com/baharkarakas/point-ledger/internal/middleware"
	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/baharkarakas/point-ledger/internal/services"
)

type PointLedger interface {
	GetPoint(ctx context.Context, userID int64) (models.Balance, error)
	GetHistory(ctx context.Context, userID int64) ([]models.Transaction, error)
	Charge(ctx context.Context, userID, amount int64) (models.Balance, error)
	Use(ctx context.Context, userID, amount int64) (models.Balance, error)
}

type Verifier interface {
	Verify(ctx context.Context, userID int64) (services.Report, error)
}

type PointHandler struct {
	Ledger PointLedger
	Rec    Verifier
}

func NewPointHandler(l PointLedger, rec Verifier) *PointHandler {
	return &PointHandler{Ledger: l, Rec: rec}
}

// Get: GET /point/{id}
func (h *PointHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	slog.Info("point lookup", "user_id", id, "request_id", middleware.RequestIDFrom(r.Context()))
	b, err := h.Ledger.GetPoint(r.Context(), id)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

// Histories: GET /point/{id}/histories
func (h *PointHandler) Histories(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	slog.Info("history lookup", "user_id", id, "request_id", middleware.RequestIDFrom(r.Context()))
	txs, err := h.Ledger.GetHistory(r.Context(), id)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}

// Charge: PATCH /point/{id}/charge
func (h *PointHandler) Charge(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, models.TxnCharge, h.Ledger.Charge)
}

// Use: PATCH /point/{id}/use
func (h *PointHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, models.TxnUse, h.Ledger.Use)
}

func (h *PointHandler) mutate(
	w http.ResponseWriter, r *http.Request,
	typ models.TransactionType,
	op func(ctx context.Context, userID, amount int64) (models.Balance, error),
) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	amount, ferr := validate.Amount(r.Body)
	if ferr != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "invalid request body", validate.Errs{*ferr})
		return
	}
	slog.Info("point request", "type", typ, "user_id", id, "amount", amount,
		"request_id", middleware.RequestIDFrom(r.Context()))

	b, err := op(r.Context(), id, amount)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

// Verify: GET /point/{id}/verify
func (h *PointHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	rep, err := h.Rec.Verify(r.Context(), id)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rep)
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ferr := validate.Int64("id", chi.URLParam(r, "id"))
	if ferr != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "invalid user id", validate.Errs{*ferr})
		return 0, false
	}
	return id, true
}

func writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidAmount, err.Error(), nil)
	case errors.Is(err, models.ErrAmountTooLarge):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeAmountTooLarge, err.Error(), nil)
	case errors.Is(err, models.ErrInsufficientBalance):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInsufficientBalance, err.Error(), nil)
	default:
		slog.Error("ledger", "err", err, "path", r.URL.Path, "request_id", middleware.RequestIDFrom(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error", nil)
	}
}
