package store

import "time"

// Account is the stored representation of a user account. Credits is
// ignored for unlimited accounts.
type Account struct {
	ID        string
	UserID    string
	Credits   int
	Unlimited bool
	Tier      string
	CreatedAt time.Time
}

// ResourceMapping associates a provider-assigned watch resource id with
// the account whose workflows it triggers. One-to-one at steady state.
type ResourceMapping struct {
	ResourceID string
	AccountID  string
}
