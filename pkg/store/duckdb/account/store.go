package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fuzzie-io/flow-engine/pkg/models/store"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb"
)

// ErrNotFound is returned when no account matches the lookup key.
var ErrNotFound = errors.New("account not found")

// ErrInsufficientCredits is returned by DeductCredit when the balance
// was not strictly positive at update time.
var ErrInsufficientCredits = errors.New("insufficient credits")

type Store interface {
	GetByResourceID(ctx context.Context, resourceID string) (*store.Account, error)
	GetByID(ctx context.Context, accountID string) (*store.Account, error)
	// DeductCredit decrements the balance by one as a single
	// conditional update, so concurrent runs cannot drive it negative.
	// Unlimited accounts are left untouched and report their current
	// balance.
	DeductCredit(ctx context.Context, accountID string) (int, error)
	CreateAccount(ctx context.Context, account *store.Account) error
	CreateResourceMapping(ctx context.Context, mapping store.ResourceMapping) error
}

type defaultStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &defaultStore{db: db}, nil
}

const selectAccount = `
	SELECT id, user_id, credits, unlimited, tier, created_at
	FROM accounts
`

func (s *defaultStore) GetByResourceID(ctx context.Context, resourceID string) (*store.Account, error) {
	query := selectAccount + `
		WHERE id = (SELECT account_id FROM resource_mappings WHERE resource_id = ?)`
	return s.scanAccount(duckdb.Executor(ctx, s.db).QueryRowContext(ctx, query, resourceID))
}

func (s *defaultStore) GetByID(ctx context.Context, accountID string) (*store.Account, error) {
	query := selectAccount + ` WHERE id = ?`
	return s.scanAccount(duckdb.Executor(ctx, s.db).QueryRowContext(ctx, query, accountID))
}

func (s *defaultStore) scanAccount(row *sql.Row) (*store.Account, error) {
	var a store.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Credits, &a.Unlimited, &a.Tier, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func (s *defaultStore) DeductCredit(ctx context.Context, accountID string) (int, error) {
	exec := duckdb.Executor(ctx, s.db)

	res, err := exec.ExecContext(ctx, `
		UPDATE accounts
		SET credits = credits - 1
		WHERE id = ? AND NOT unlimited AND credits > 0`, accountID)
	if err != nil {
		return 0, fmt.Errorf("deduct credit: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deduct credit: rows affected: %w", err)
	}

	account, err := s.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if affected == 0 && !account.Unlimited {
		return account.Credits, ErrInsufficientCredits
	}
	return account.Credits, nil
}

func (s *defaultStore) CreateAccount(ctx context.Context, account *store.Account) error {
	_, err := duckdb.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, credits, unlimited, tier)
		VALUES (?, ?, ?, ?, ?)`,
		account.ID, account.UserID, account.Credits, account.Unlimited, account.Tier)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *defaultStore) CreateResourceMapping(ctx context.Context, mapping store.ResourceMapping) error {
	_, err := duckdb.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT OR REPLACE INTO resource_mappings (resource_id, account_id)
		VALUES (?, ?)`, mapping.ResourceID, mapping.AccountID)
	if err != nil {
		return fmt.Errorf("create resource mapping: %w", err)
	}
	return nil
}
