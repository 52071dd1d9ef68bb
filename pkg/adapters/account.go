package adapters

import (
	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/fuzzie-io/flow-engine/pkg/models/store"
)

func MapStoreAccountToDomain(a *store.Account) *domain.Account {
	if a == nil {
		return nil
	}
	return &domain.Account{
		ID:        a.ID,
		UserID:    a.UserID,
		Credits:   a.Credits,
		Unlimited: a.Unlimited,
		Tier:      domain.Tier(a.Tier),
	}
}
