package types

import (
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the local lifecycle state of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Cadence is how often a subscription is charged
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceAnnual    Cadence = "annual"
)

func (c Cadence) String() string {
	return string(c)
}

// Months returns the length of one billing cycle in months
func (c Cadence) Months() int {
	switch c {
	case CadenceQuarterly:
		return 3
	case CadenceAnnual:
		return 12
	default:
		return 1
	}
}

func (c Cadence) Validate() error {
	allowed := []Cadence{
		CadenceMonthly,
		CadenceQuarterly,
		CadenceAnnual,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid cadence").
			WithHint("Cadence must be monthly, quarterly or annual").
			WithReportableDetails(map[string]any{
				"cadence":         c,
				"allowed_cadence": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CadenceFromMonths maps a cycle length back to a cadence
func CadenceFromMonths(months int) Cadence {
	switch months {
	case 3:
		return CadenceQuarterly
	case 12:
		return CadenceAnnual
	default:
		return CadenceMonthly
	}
}
