package types

import ierr "github.com/splitsub/splitsub/internal/errors"

// MembershipStatus tracks a member's billing state on one plan.
//
// The lifecycle is NotJoined -> PendingSetup -> Active -> Cancelled.
// NotJoined has no row; Cancelled rows are deleted, so only the two
// intermediate states are ever persisted.
type MembershipStatus string

const (
	// MembershipStatusPendingSetup means a deferred-payment subscription
	// exists at the processor but its payment setup has not been confirmed
	MembershipStatusPendingSetup MembershipStatus = "pending_setup"
	// MembershipStatusActive means a confirmed payment event arrived
	MembershipStatusActive MembershipStatus = "active"
)

func (s MembershipStatus) Validate() error {
	switch s {
	case MembershipStatusPendingSetup, MembershipStatusActive:
		return nil
	}
	return ierr.NewError("invalid membership status").
		WithHint("Membership status must be pending_setup or active").
		WithReportableDetails(map[string]any{
			"status": string(s),
		}).
		Mark(ierr.ErrValidation)
}
