package postgres

import (
	"context"
	"fmt"

	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type historiesRepo struct{ pool *pgxpool.Pool }

func (r *historiesRepo) Append(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.Amount <= 0 {
		return models.Transaction{}, models.ErrInvalidAmount
	}
	const q = `
INSERT INTO point_histories (user_id, type, amount, time_millis)
VALUES ($1, $2, $3, $4)
RETURNING id;
`
	if err := r.pool.QueryRow(ctx, q, tx.UserID, tx.Type, tx.Amount, tx.TimeMillis).Scan(&tx.ID); err != nil {
		return models.Transaction{}, fmt.Errorf("append history: %w", err)
	}
	return tx, nil
}

func (r *historiesRepo) ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, amount, time_millis
		   FROM point_histories
		  WHERE user_id=$1
		  ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list histories: %w", err)
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.TimeMillis); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
