package dto

import (
	"github.com/go-playground/validator/v10"
)

type JoinPlanRequest struct {
	JoinCode string `json:"join_code" binding:"required" validate:"required"`
	Quantity int64  `json:"quantity" binding:"required,min=1" validate:"required,min=1"`
}

// JoinPlanResponse carries what the client needs to finish payment setup
type JoinPlanResponse struct {
	PlanID            string `json:"plan_id"`
	SubscriptionID    string `json:"subscription_id"`
	ClientSecret      string `json:"client_secret"`
	PerUnitCost       string `json:"per_unit_cost"`
	AggregateQuantity int64  `json:"aggregate_quantity"`
}

type EditQuantityRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1" validate:"required,min=1"`
}

type CancelMembershipRequest struct {
	// SuccessorUsername is required when the caller owns the plan and
	// other members remain
	SuccessorUsername string `json:"successor_username"`
}

func (r *JoinPlanRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *EditQuantityRequest) Validate() error {
	return validator.New().Struct(r)
}
