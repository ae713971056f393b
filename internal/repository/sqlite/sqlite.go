// Package sqlite backs the ledger stores with a single SQLite file.
// Use ":memory:" for a throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/baharkarakas/point-ledger/internal/models"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
)

// Store owns the SQLite handle behind the balance and history stores.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps ":memory:" a single shared database
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Stores exposes s through the repository bundle.
func (s *Store) Stores() repo.Stores {
	return repo.Stores{
		Balances:  balances{s},
		Histories: histories{s},
		Close:     func() { _ = s.Close() },
	}
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_points (
		user_id INTEGER PRIMARY KEY,
		point INTEGER NOT NULL CHECK (point >= 0),
		update_millis INTEGER NOT NULL
	);

	-- append-only
	CREATE TABLE IF NOT EXISTS point_histories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('CHARGE', 'USE')),
		amount INTEGER NOT NULL CHECK (amount > 0),
		time_millis INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_point_histories_user
		ON point_histories(user_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

type balances struct{ s *Store }

func (b balances) Get(ctx context.Context, userID int64) (models.Balance, error) {
	var out models.Balance
	err := b.s.db.QueryRowContext(ctx,
		`SELECT user_id, point, update_millis FROM user_points WHERE user_id = ?`, userID,
	).Scan(&out.UserID, &out.Point, &out.UpdateMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EmptyBalance(userID), nil
	}
	if err != nil {
		return models.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return out, nil
}

func (b balances) Save(ctx context.Context, bal models.Balance) (models.Balance, error) {
	_, err := b.s.db.ExecContext(ctx,
		`INSERT INTO user_points (user_id, point, update_millis) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET point = excluded.point, update_millis = excluded.update_millis`,
		bal.UserID, bal.Point, bal.UpdateMillis,
	)
	if err != nil {
		return models.Balance{}, fmt.Errorf("save balance: %w", err)
	}
	return bal, nil
}

func (b balances) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := b.s.db.QueryContext(ctx, `SELECT user_id FROM user_points ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type histories struct{ s *Store }

func (h histories) Append(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.Amount <= 0 {
		return models.Transaction{}, models.ErrInvalidAmount
	}
	res, err := h.s.db.ExecContext(ctx,
		`INSERT INTO point_histories (user_id, type, amount, time_millis) VALUES (?, ?, ?, ?)`,
		tx.UserID, string(tx.Type), tx.Amount, tx.TimeMillis,
	)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("append history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Transaction{}, err
	}
	tx.ID = id
	return tx, nil
}

func (h histories) ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := h.s.db.QueryContext(ctx,
		`SELECT id, user_id, type, amount, time_millis FROM point_histories WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list histories: %w", err)
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		var typ string
		if err := rows.Scan(&tx.ID, &tx.UserID, &typ, &tx.Amount, &tx.TimeMillis); err != nil {
			return nil, err
		}
		tx.Type = models.TransactionType(typ)
		out = append(out, tx)
	}
	return out, rows.Err()
}
