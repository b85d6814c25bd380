package dto

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/splitsub/splitsub/internal/domain/plan"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/types"
)

type CreatePlanRequest struct {
	Name string `json:"name" binding:"required" validate:"required"`
	// PerCycleCost is a decimal string with at most two fraction digits,
	// e.g. "15.99"
	PerCycleCost   string    `json:"per_cycle_cost" binding:"required" validate:"required"`
	CycleFrequency string    `json:"cycle_frequency" binding:"required" validate:"required"`
	StartDate      time.Time `json:"start_date" binding:"required" validate:"required"`
}

func (r *CreatePlanRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return err
	}
	if _, err := types.ParseCycleFrequency(r.CycleFrequency); err != nil {
		return err
	}
	if _, err := types.CentsFromDecimalString(r.PerCycleCost); err != nil {
		return err
	}
	if r.StartDate.IsZero() {
		return ierr.NewError("start date is required").
			WithHint("Start date is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type MemberResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Quantity  int64  `json:"quantity"`
}

type PlanResponse struct {
	ID             string    `json:"id"`
	JoinCode       string    `json:"join_code"`
	Name           string    `json:"name"`
	CycleFrequency string    `json:"cycle_frequency"`
	PerCycleCost   string    `json:"per_cycle_cost"`
	StartDate      time.Time `json:"start_date"`

	Owner         *MemberResponse   `json:"owner,omitempty"`
	ActiveMembers []*MemberResponse `json:"active_members,omitempty"`
}

type PlanOverviewResponse struct {
	Plan     *PlanResponse   `json:"plan"`
	Owner    *MemberResponse `json:"owner"`
	Quantity int64           `json:"quantity"`
	IsJoined bool            `json:"is_joined"`
}

type PortalSessionResponse struct {
	URL string `json:"url"`
}

func NewPlanResponse(p *plan.Plan) *PlanResponse {
	return &PlanResponse{
		ID:             p.ID,
		JoinCode:       p.JoinCode,
		Name:           p.Name,
		CycleFrequency: string(p.CycleFrequency),
		PerCycleCost:   types.DecimalStringFromCents(p.PerCycleCost),
		StartDate:      p.StartDate,
	}
}

func NewMemberResponse(m *plan.Member) *MemberResponse {
	return &MemberResponse{
		Username:  m.Username,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Quantity:  m.Quantity,
	}
}
