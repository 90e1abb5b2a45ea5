package tenantapi

import (
	"context"

	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
)

// StatusClient fetches the tenant service's verified view of a tenant
// mid-onboarding. Progress recovery trusts this over anything cached.
type StatusClient interface {
	FetchStatus(ctx context.Context, tenantID string) (*entity.TenantStatus, error)
}

// AssignPlanRequest carries the selections submitted when the addon step
// completes.
type AssignPlanRequest struct {
	TenantID     string                  `json:"tenant_id"`
	PlanID       uint64                  `json:"plan_id"`
	BillingCycle entity.BillingCycle     `json:"billing_cycle"`
	Branches     []entity.Branch         `json:"branches"`
	Addons       []*entity.SelectedAddon `json:"addons"`
}

// AssignPlanResult is the assignment outcome. Success false carries the
// upstream error payload; transport failures surface as Go errors instead.
type AssignPlanResult struct {
	Success      bool
	ErrorMessage string
	ErrorCode    string
}

type PlanAssigner interface {
	AssignPlan(ctx context.Context, req *AssignPlanRequest) (AssignPlanResult, error)
}
