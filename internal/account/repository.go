package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/bitex/backend/internal/contracts"
	"github.com/wonny/bitex/backend/internal/order"
)

// Repository reads account balances from PostgreSQL
// ⭐ SSOT: 잔고 조회/저장은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new balance repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ contracts.BalanceProvider = (*Repository)(nil)

// Balance returns the available balance. An account without a row has a zero balance.
func (r *Repository) Balance(ctx context.Context, accountID int64, currency order.Currency) (int64, error) {
	query := `
		SELECT available
		FROM exchange.balances
		WHERE account_id = $1 AND currency = $2
	`

	var available int64
	err := r.pool.QueryRow(ctx, query, accountID, string(currency)).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return available, nil
}

// SetBalance upserts the available balance of an account
func (r *Repository) SetBalance(ctx context.Context, accountID int64, currency order.Currency, available int64) error {
	query := `
		INSERT INTO exchange.balances (account_id, currency, available, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (account_id, currency) DO UPDATE SET
			available = EXCLUDED.available,
			updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, query, accountID, string(currency), available); err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}

	return nil
}

// ListBalances returns every balance row of an account
func (r *Repository) ListBalances(ctx context.Context, accountID int64) (map[order.Currency]int64, error) {
	query := `
		SELECT currency, available
		FROM exchange.balances
		WHERE account_id = $1
		ORDER BY currency
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[order.Currency]int64)
	for rows.Next() {
		var currency string
		var available int64
		if err := rows.Scan(&currency, &available); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[order.Currency(currency)] = available
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return balances, nil
}
