package domain

import "time"

// DiscoverySchedule is one recurring discovery job definition for an account.
// An account holds at most one schedule entry per discovery type.
type DiscoverySchedule struct {
	AccountID      string
	Type           DiscoveryType
	Enabled        bool
	CronExpression string
	LastRunAt      *time.Time
}

// Account is a connected platform identity the engine discovers on behalf of.
type Account struct {
	ID        string
	Platform  string
	Handle    string
	ProfileID string
	Status    AccountStatus

	// Discovery bookkeeping, mutated only by the discovery engine.
	DiscoveryLastAt *time.Time
	DiscoveryError  *string

	Schedules []DiscoverySchedule

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Schedule returns the schedule entry for the given discovery type, or nil.
func (a *Account) Schedule(t DiscoveryType) *DiscoverySchedule {
	for i := range a.Schedules {
		if a.Schedules[i].Type == t {
			return &a.Schedules[i]
		}
	}
	return nil
}
