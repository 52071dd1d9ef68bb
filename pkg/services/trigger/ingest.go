// Package trigger normalizes inbound provider notifications into
// trigger events the sequencer can run.
package trigger

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuzzie-io/flow-engine/pkg/adapters"
	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/fuzzie-io/flow-engine/pkg/services/drive"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb/account"
	"github.com/rs/zerolog"
)

// ErrNoAccount means no account is mapped to the notification's
// resource id. ErrNoCredit means the mapped account has a zero balance
// and is not on the unlimited tier. Both reject the run before any
// step executes; the HTTP layer answers them with a neutral 200.
var (
	ErrNoAccount = errors.New("no account mapped to resource")
	ErrNoCredit  = errors.New("account has no credits")
)

// Notification is the raw inbound event: the provider-assigned watch
// resource id plus an optional file reference.
type Notification struct {
	ResourceID string
	FileID     string
}

type Ingestor interface {
	Ingest(ctx context.Context, n Notification) (*domain.TriggerEvent, *domain.Account, error)
}

type defaultIngestor struct {
	accounts account.Store
	files    drive.Fetcher
}

// NewIngestor builds an Ingestor. files may be nil when no payload
// resolution is configured; events are then always payload-less.
func NewIngestor(accounts account.Store, files drive.Fetcher) (Ingestor, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store is nil")
	}
	return &defaultIngestor{accounts: accounts, files: files}, nil
}

func (i *defaultIngestor) Ingest(ctx context.Context, n Notification) (*domain.TriggerEvent, *domain.Account, error) {
	logger := zerolog.Ctx(ctx)

	if n.ResourceID == "" {
		return nil, nil, ErrNoAccount
	}

	record, err := i.accounts.GetByResourceID(ctx, n.ResourceID)
	if errors.Is(err, account.ErrNotFound) {
		logger.Info().Str("resource", n.ResourceID).Msg("notification for unmapped resource")
		return nil, nil, ErrNoAccount
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve account for resource %s: %w", n.ResourceID, err)
	}

	acc := adapters.MapStoreAccountToDomain(record)
	if !acc.Eligible() {
		logger.Info().Str("account", acc.ID).Msg("notification rejected, no credits")
		return nil, acc, ErrNoCredit
	}

	event := &domain.TriggerEvent{
		ResourceID: n.ResourceID,
		AccountID:  acc.ID,
	}

	if n.FileID != "" && i.files != nil {
		payload, err := i.files.FetchFile(ctx, n.FileID)
		if err != nil {
			// Best-effort: a failed fetch degrades to a payload-less
			// event rather than rejecting the run.
			logger.Warn().Err(err).Str("file", n.FileID).Msg("payload fetch failed")
		} else {
			event.Payload = payload
		}
	}

	return event, acc, nil
}
