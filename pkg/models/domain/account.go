package domain

type Tier string

const (
	TierFree      Tier = "Free"
	TierPro       Tier = "Pro"
	TierUnlimited Tier = "Unlimited"
)

// Account is the owner of workflows and the holder of the metered
// credit balance. Accounts are created elsewhere; the engine only reads
// them and deducts credits.
type Account struct {
	ID        string
	UserID    string
	Credits   int
	Unlimited bool
	Tier      Tier
}

// Eligible reports whether the account may start a workflow run.
func (a Account) Eligible() bool {
	return a.Unlimited || a.Credits > 0
}
