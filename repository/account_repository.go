package repository

import (
	"context"
	"errors"
	"fmt"

	"oddsmatch/database"
	"oddsmatch/domain/entities"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements interfaces.AccountRepository on PostgreSQL.
// Timestamps come from the head block time in global_properties so replays
// write identical rows.
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByName retrieves an account, returning nil when it does not exist
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*entities.Account, error) {
	query := `
		SELECT name, balance, created_at, updated_at
		FROM accounts
		WHERE name = $1
	`
	account, err := scanAccount(r.q.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", name, err)
	}
	return account, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, name string, initialBalance int64) (*entities.Account, error) {
	query := `
		INSERT INTO accounts (name, balance, created_at, updated_at)
		SELECT $1, $2, head_block_time, head_block_time
		FROM global_properties
		WHERE id = 1
		RETURNING name, balance, created_at, updated_at
	`
	account, err := scanAccount(r.q.QueryRow(ctx, query, name, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", name, err)
	}
	return account, nil
}

// UpdateBalance sets an account balance
func (r *AccountRepository) UpdateBalance(ctx context.Context, name string, newBalance int64) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = (SELECT head_block_time FROM global_properties WHERE id = 1)
		WHERE name = $1
	`
	result, err := r.q.Exec(ctx, query, name, newBalance)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", name, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update balance for account %s: %w", name, entities.ErrNotFound)
	}
	return nil
}

// GetAll returns all accounts ordered by name
func (r *AccountRepository) GetAll(ctx context.Context) ([]*entities.Account, error) {
	query := `
		SELECT name, balance, created_at, updated_at
		FROM accounts
		ORDER BY name
	`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*entities.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var account entities.Account
	if err := row.Scan(&account.Name, &account.Balance, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return &account, nil
}
