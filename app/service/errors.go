package service

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound      = errors.New("onboarding session not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrTenantIDRequired     = errors.New("tenant_id is required before this step")
	ErrPlanAssignmentFailed = errors.New("plan assignment failed")
)

// PlanAssignmentError carries the upstream failure payload when the plan
// assignment call is rejected. The wizard state is left unchanged so the
// user can retry without redoing work.
type PlanAssignmentError struct {
	Message string
	Code    string
}

func (e *PlanAssignmentError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("plan assignment failed: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("plan assignment failed: %s", e.Message)
}

func (e *PlanAssignmentError) Unwrap() error {
	return ErrPlanAssignmentFailed
}
