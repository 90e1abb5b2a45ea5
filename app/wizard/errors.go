package wizard

import "errors"

var (
	ErrInvalidBranchCount      = errors.New("branch count must be at least 1")
	ErrBranchIndexOutOfRange   = errors.New("branch index out of range")
	ErrBranchSelectionRequired = errors.New("branch selection list is required for branch-scoped addons")
	ErrInvalidTransition       = errors.New("invalid wizard transition")
	ErrStepNotCurrent          = errors.New("step is not the current step")
	ErrInvalidBillingCycle     = errors.New("billing cycle must be monthly or annual")
	ErrNoPlanSelected          = errors.New("no plan selected")
	ErrAddonNotInPlan          = errors.New("addon does not belong to the selected plan")
)
