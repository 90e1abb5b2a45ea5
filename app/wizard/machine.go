package wizard

import "github.com/vibast-solutions/ms-go-onboarding/app/entity"

// forwardOrder is the wizard's forward step sequence. PaymentFailed sits
// outside of it and is reachable only from Payment.
var forwardOrder = []entity.Step{
	entity.StepBasicInfo,
	entity.StepPlanSelection,
	entity.StepAddonSelection,
	entity.StepPlanSummary,
	entity.StepPayment,
	entity.StepSuccess,
}

func forwardIndex(step entity.Step) int {
	for i, s := range forwardOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// StateMachine drives wizard navigation. Every illegal transition is a
// defined error, never silent.
type StateMachine struct {
	state entity.OnboardingState
}

func NewStateMachine(initial entity.Step, completed map[entity.Step]bool, tenantID *string) *StateMachine {
	if forwardIndex(initial) < 0 {
		initial = entity.StepBasicInfo
	}
	steps := make(map[entity.Step]bool, len(completed))
	for step, done := range completed {
		if done && forwardIndex(step) >= 0 {
			steps[step] = true
		}
	}
	return &StateMachine{state: entity.OnboardingState{
		CurrentStep:    initial,
		CompletedSteps: steps,
		TenantID:       tenantID,
	}}
}

func (m *StateMachine) CurrentStep() entity.Step {
	return m.state.CurrentStep
}

// CompletedSteps returns the finished steps in forward order.
func (m *StateMachine) CompletedSteps() []entity.Step {
	out := make([]entity.Step, 0, len(m.state.CompletedSteps))
	for _, step := range forwardOrder {
		if m.state.CompletedSteps[step] {
			out = append(out, step)
		}
	}
	return out
}

func (m *StateMachine) IsCompleted(step entity.Step) bool {
	return m.state.CompletedSteps[step]
}

func (m *StateMachine) TenantID() *string {
	return m.state.TenantID
}

func (m *StateMachine) SetTenantID(tenantID string) {
	m.state.TenantID = &tenantID
}

func (m *StateMachine) LastPaymentFailure() *entity.PaymentFailure {
	return m.state.LastPaymentFailure
}

// Complete marks step finished and advances to the next forward step. The
// step must be the current one; Success has no outgoing transitions.
func (m *StateMachine) Complete(step entity.Step) (entity.Step, error) {
	if step != m.state.CurrentStep {
		return m.state.CurrentStep, ErrStepNotCurrent
	}
	idx := forwardIndex(step)
	if idx < 0 || step == entity.StepSuccess {
		return m.state.CurrentStep, ErrInvalidTransition
	}

	m.state.CompletedSteps[step] = true
	m.state.CurrentStep = forwardOrder[idx+1]
	if step == entity.StepPayment {
		m.state.LastPaymentFailure = nil
	}
	return m.state.CurrentStep, nil
}

// Previous moves back one position in the forward order. It is a no-op at
// BasicInfo and keeps completed steps marked so progress display stays
// accurate. Not valid from PaymentFailed or Success.
func (m *StateMachine) Previous() (entity.Step, error) {
	idx := forwardIndex(m.state.CurrentStep)
	if idx < 0 || m.state.CurrentStep == entity.StepSuccess {
		return m.state.CurrentStep, ErrInvalidTransition
	}
	if idx == 0 {
		return m.state.CurrentStep, nil
	}
	m.state.CurrentStep = forwardOrder[idx-1]
	return m.state.CurrentStep, nil
}

// PaymentFailed records the failure and enters the PaymentFailed state. Only
// valid while at Payment.
func (m *StateMachine) PaymentFailed(message, code string) error {
	if m.state.CurrentStep != entity.StepPayment {
		return ErrInvalidTransition
	}
	m.state.CurrentStep = entity.StepPaymentFailed
	m.state.LastPaymentFailure = &entity.PaymentFailure{Message: message, Code: code}
	return nil
}

// RetryPayment clears the stored failure and returns to Payment. Only valid
// while at PaymentFailed.
func (m *StateMachine) RetryPayment() error {
	if m.state.CurrentStep != entity.StepPaymentFailed {
		return ErrInvalidTransition
	}
	m.state.CurrentStep = entity.StepPayment
	m.state.LastPaymentFailure = nil
	return nil
}
