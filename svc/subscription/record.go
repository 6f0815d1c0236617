package subscription

import (
	"time"

	"github.com/dmitrymomot/medisage/pkg/plan"
)

// Record is the live subscription document of a user.
type Record struct {
	UserID            string     `bson:"userId"`
	PlanName          string     `bson:"planName"`
	Status            string     `bson:"status"`
	SubscriptionID    string     `bson:"subscriptionId,omitempty"`
	CustomerID        string     `bson:"customerId,omitempty"`
	CurrentPeriodEnd  *time.Time `bson:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool       `bson:"cancelAtPeriodEnd"`
	CreatedAt         time.Time  `bson:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt"`
}

// Tier parses the stored plan name.
func (r Record) Tier() plan.Tier {
	return plan.Parse(r.PlanName)
}

// HistoryEntry is an archived Record.
type HistoryEntry struct {
	Record    `bson:",inline"`
	EndedAt   time.Time  `bson:"endedAt"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty"`
}

// Status is the plan in effect for a user as reported to clients.
type Status struct {
	PlanName          string
	Status            string
	ExpiryDate        *time.Time
	CancelAtPeriodEnd *bool
}

// Tier parses the plan name.
func (s Status) Tier() plan.Tier {
	return plan.Parse(s.PlanName)
}

func basicInactive() Status {
	return Status{PlanName: plan.Basic.String(), Status: "inactive"}
}

func statusFromRecord(r *Record) Status {
	cancel := r.CancelAtPeriodEnd
	return Status{
		PlanName:          r.PlanName,
		Status:            r.Status,
		ExpiryDate:        r.CurrentPeriodEnd,
		CancelAtPeriodEnd: &cancel,
	}
}
