package types

import (
	"strings"

	"github.com/shopspring/decimal"
	ierr "github.com/splitsub/splitsub/internal/errors"
)

// CycleFrequency is how often a plan bills its members
type CycleFrequency string

const (
	CycleFrequencyWeekly  CycleFrequency = "weekly"
	CycleFrequencyMonthly CycleFrequency = "monthly"
	CycleFrequencyYearly  CycleFrequency = "yearly"
)

// recurringInterval maps a cycle frequency to the payment processor's
// recurring interval unit. The mapping is fixed and exhaustive.
var recurringInterval = map[CycleFrequency]string{
	CycleFrequencyWeekly:  "week",
	CycleFrequencyMonthly: "month",
	CycleFrequencyYearly:  "year",
}

// ParseCycleFrequency normalizes and validates a user supplied frequency
func ParseCycleFrequency(s string) (CycleFrequency, error) {
	cf := CycleFrequency(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := recurringInterval[cf]; !ok {
		return "", ierr.NewError("invalid cycle frequency").
			WithHint("Cycle frequency must be weekly, monthly or yearly").
			WithReportableDetails(map[string]any{
				"cycle_frequency": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return cf, nil
}

// Interval returns the recurring interval unit for the frequency
func (cf CycleFrequency) Interval() string {
	return recurringInterval[cf]
}

func (cf CycleFrequency) Validate() error {
	_, err := ParseCycleFrequency(string(cf))
	return err
}

var hundred = decimal.NewFromInt(100)

// CentsFromDecimalString converts a user supplied decimal cost ("19.99")
// into integer minor currency units (1999). Costs are always stored as
// cents to avoid floating point drift; the conversion must round-trip
// exactly for any input with at most two decimal places.
func CentsFromDecimalString(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Cost must be a decimal number").
			Mark(ierr.ErrValidation)
	}
	if d.IsNegative() || d.IsZero() {
		return 0, ierr.NewError("cost must be positive").
			WithHint("Cost must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	cents := d.Mul(hundred)
	if !cents.IsInteger() {
		return 0, ierr.NewError("cost has more than two decimal places").
			WithHint("Cost must have at most two decimal places").
			Mark(ierr.ErrValidation)
	}
	return cents.IntPart(), nil
}

// DecimalStringFromCents is the inverse of CentsFromDecimalString:
// 1999 -> "19.99"
func DecimalStringFromCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(hundred).StringFixed(2)
}
