package postgres

import (
	repo "github.com/baharkarakas/point-ledger/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositories binds both stores to pool. Close releases the pool.
func NewRepositories(pool *pgxpool.Pool) repo.Stores {
	return repo.Stores{
		Balances:  &balancesRepo{pool},
		Histories: &historiesRepo{pool},
		Close:     pool.Close,
	}
}
