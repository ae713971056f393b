package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type balancesRepo struct{ pool *pgxpool.Pool }

func (r *balancesRepo) Get(ctx context.Context, userID int64) (models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, point, update_millis
		   FROM user_points
		  WHERE user_id=$1`,
		userID,
	).Scan(&b.UserID, &b.Point, &b.UpdateMillis)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EmptyBalance(userID), nil
	}
	if err != nil {
		return models.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

func (r *balancesRepo) Save(ctx context.Context, b models.Balance) (models.Balance, error) {
	var out models.Balance
	err := r.pool.QueryRow(ctx,
		`INSERT INTO user_points(user_id, point, update_millis)
		 VALUES($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		    SET point = EXCLUDED.point,
		        update_millis = EXCLUDED.update_millis
		 RETURNING user_id, point, update_millis`,
		b.UserID, b.Point, b.UpdateMillis,
	).Scan(&out.UserID, &out.Point, &out.UpdateMillis)
	if err != nil {
		return models.Balance{}, fmt.Errorf("save balance: %w", err)
	}
	return out, nil
}

func (r *balancesRepo) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM user_points ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}
