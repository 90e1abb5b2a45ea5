package tenantapi

import (
	"context"

	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
)

// StubStatusClient is a test double. With no FetchFn it reports a tenant
// whose basic info is complete and verified.
type StubStatusClient struct {
	FetchFn func(ctx context.Context, tenantID string) (*entity.TenantStatus, error)
}

func (s *StubStatusClient) FetchStatus(ctx context.Context, tenantID string) (*entity.TenantStatus, error) {
	if s.FetchFn != nil {
		return s.FetchFn(ctx, tenantID)
	}
	return &entity.TenantStatus{
		VerificationStatus: entity.VerificationStatus{EmailVerified: true, PhoneVerified: true, BothVerified: true},
		BasicInfoStatus:    entity.BasicInfoStatus{IsComplete: true},
	}, nil
}

// StubPlanAssigner is a test double. With no AssignFn every assignment
// succeeds.
type StubPlanAssigner struct {
	AssignFn func(ctx context.Context, req *AssignPlanRequest) (AssignPlanResult, error)
}

func (s *StubPlanAssigner) AssignPlan(ctx context.Context, req *AssignPlanRequest) (AssignPlanResult, error) {
	if s.AssignFn != nil {
		return s.AssignFn(ctx, req)
	}
	return AssignPlanResult{Success: true}, nil
}
