package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb/account"
	"github.com/rs/zerolog"
)

// Ledger authorizes and meters workflow runs against an account's
// credit balance. Deduction is pushed down to the store's conditional
// update so concurrent runs can never double-spend below zero.
type Ledger interface {
	HasCredit(account domain.Account) bool
	// Deduct consumes one credit and returns the new balance. Unlimited
	// accounts are exempt. A balance drained between eligibility check
	// and deduction is not an error for the run; the store reports it
	// and the ledger logs it.
	Deduct(ctx context.Context, acc domain.Account) (int, error)
}

type defaultLedger struct {
	accounts account.Store
}

func NewLedger(accounts account.Store) (Ledger, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store is nil")
	}
	return &defaultLedger{accounts: accounts}, nil
}

func (l *defaultLedger) HasCredit(acc domain.Account) bool {
	return acc.Eligible()
}

func (l *defaultLedger) Deduct(ctx context.Context, acc domain.Account) (int, error) {
	if acc.Unlimited {
		return acc.Credits, nil
	}

	balance, err := l.accounts.DeductCredit(ctx, acc.ID)
	if errors.Is(err, account.ErrInsufficientCredits) {
		// A concurrent run consumed the last credit after this run was
		// admitted. The side effects already happened; nothing to undo.
		zerolog.Ctx(ctx).Warn().
			Str("account", acc.ID).
			Msg("credit balance drained mid-run, deduction skipped")
		return balance, nil
	}
	if err != nil {
		return 0, fmt.Errorf("deduct credit for account %s: %w", acc.ID, err)
	}
	return balance, nil
}
