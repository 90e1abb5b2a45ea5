package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
	"github.com/vibast-solutions/ms-go-onboarding/app/factory"
	"github.com/vibast-solutions/ms-go-onboarding/app/metrics"
	"github.com/vibast-solutions/ms-go-onboarding/app/tenantapi"
	"github.com/vibast-solutions/ms-go-onboarding/app/wizard"
)

type planRepository interface {
	List(ctx context.Context) ([]*entity.Plan, error)
	FindByID(ctx context.Context, id uint64) (*entity.Plan, error)
}

// OnboardingService orchestrates wizard sessions: opening/resuming through
// progress recovery, step-scoped mutations, and the transitions that invoke
// external calls. Callers hold the session lock around every method that
// takes a session.
type OnboardingService struct {
	registry *SessionRegistry
	planRepo planRepository
	recovery *ProgressRecoveryService
	assigner tenantapi.PlanAssigner
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
}

func NewOnboardingService(
	registry *SessionRegistry,
	planRepo planRepository,
	recovery *ProgressRecoveryService,
	assigner tenantapi.PlanAssigner,
	m *metrics.Metrics,
) *OnboardingService {
	return &OnboardingService{
		registry: registry,
		planRepo: planRepo,
		recovery: recovery,
		assigner: assigner,
		metrics:  m,
		logger:   factory.NewModuleLogger("onboarding-service"),
	}
}

// OpenSession returns the live session for the given ID, or builds one
// through progress recovery. A fresh visit (no session ID, no tenant ID)
// starts at basic info with empty progress.
func (s *OnboardingService) OpenSession(ctx context.Context, sessionID, tenantID string) (*wizard.Session, error) {
	if sessionID != "" {
		if session, ok := s.registry.Get(sessionID); ok {
			return session, nil
		}
	}

	session := s.registry.Create(sessionID)
	session.Lock()
	defer session.Unlock()

	result, err := s.recovery.ResolveInitialStep(ctx, session.Cache(), tenantID)
	if err != nil {
		s.registry.Delete(session.ID)
		return nil, err
	}

	session.Restore(result.Step, result.CompletedSteps, result.TenantID, result.Snapshot, result.FormData)
	if result.TenantID != nil {
		if err := session.Cache().SaveTenantID(ctx, *result.TenantID); err != nil {
			s.logger.WithError(err).Warn("Failed to persist tenant id on session open")
		}
	}

	s.metrics.SessionsOpened.Inc()
	return session, nil
}

func (s *OnboardingService) Session(id string) (*wizard.Session, error) {
	session, ok := s.registry.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *OnboardingService) ListPlans(ctx context.Context) ([]*entity.Plan, error) {
	return s.planRepo.List(ctx)
}

func (s *OnboardingService) SubmitBasicInfo(ctx context.Context, session *wizard.Session, tenantID string, form entity.TenantFormData) error {
	if tenantID == "" {
		return ErrTenantIDRequired
	}
	return session.SubmitBasicInfo(ctx, tenantID, form)
}

func (s *OnboardingService) SelectPlan(ctx context.Context, session *wizard.Session, planID uint64, cycle entity.BillingCycle) error {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrPlanNotFound
	}
	return session.SelectPlan(ctx, plan, cycle)
}

// CompleteStep marks the current step finished and advances. Completing
// AddonSelection first runs the plan assignment call; the step only advances
// when the call reports success, and a result arriving after the user has
// navigated elsewhere is ignored.
func (s *OnboardingService) CompleteStep(ctx context.Context, session *wizard.Session, step entity.Step) (entity.Step, error) {
	if step == entity.StepAddonSelection {
		return s.completeAddonSelection(ctx, session)
	}

	next, err := session.Machine().Complete(step)
	if err != nil {
		return next, err
	}
	s.metrics.StepCompletions.WithLabelValues(string(step)).Inc()
	return next, nil
}

func (s *OnboardingService) completeAddonSelection(ctx context.Context, session *wizard.Session) (entity.Step, error) {
	machine := session.Machine()
	if machine.CurrentStep() != entity.StepAddonSelection {
		return machine.CurrentStep(), wizard.ErrStepNotCurrent
	}
	tenantID := machine.TenantID()
	if tenantID == nil || *tenantID == "" {
		return machine.CurrentStep(), ErrTenantIDRequired
	}
	if session.Plan() == nil {
		return machine.CurrentStep(), wizard.ErrNoPlanSelected
	}

	req := &tenantapi.AssignPlanRequest{
		TenantID:     *tenantID,
		PlanID:       session.Plan().ID,
		BillingCycle: session.BillingCycle(),
		Branches:     session.Registry().Branches(),
		Addons:       session.Addons().Selections(),
	}

	// The session lock is released for the duration of the external call so
	// the wizard stays responsive; the step is re-checked afterwards and a
	// stale result is dropped as a no-op.
	session.Unlock()
	result, err := s.assignPlanSafely(ctx, req)
	session.Lock()

	if machine.CurrentStep() != entity.StepAddonSelection {
		s.logger.WithField("session_id", session.ID).Debug("Ignoring stale plan assignment result")
		return machine.CurrentStep(), nil
	}
	if err != nil {
		s.metrics.PlanAssignments.WithLabelValues("error").Inc()
		return machine.CurrentStep(), err
	}
	if !result.Success {
		s.metrics.PlanAssignments.WithLabelValues("rejected").Inc()
		return machine.CurrentStep(), &PlanAssignmentError{Message: result.ErrorMessage, Code: result.ErrorCode}
	}

	s.metrics.PlanAssignments.WithLabelValues("success").Inc()
	next, err := machine.Complete(entity.StepAddonSelection)
	if err != nil {
		return next, err
	}
	s.metrics.StepCompletions.WithLabelValues(string(entity.StepAddonSelection)).Inc()
	return next, nil
}

func (s *OnboardingService) assignPlanSafely(ctx context.Context, req *tenantapi.AssignPlanRequest) (_ tenantapi.AssignPlanResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("plan assignment panicked: %v", rec)
		}
	}()

	return s.assigner.AssignPlan(ctx, req)
}

func (s *OnboardingService) PreviousStep(session *wizard.Session) (entity.Step, error) {
	return session.Machine().Previous()
}

func (s *OnboardingService) PaymentFailed(session *wizard.Session, message, code string) error {
	if err := session.Machine().PaymentFailed(message, code); err != nil {
		return err
	}
	s.metrics.PaymentFailures.WithLabelValues(code).Inc()
	return nil
}

func (s *OnboardingService) RetryPayment(session *wizard.Session) error {
	return session.Machine().RetryPayment()
}

// Finish closes a session from the success step: persisted keys are cleared
// together and the live session is dropped.
func (s *OnboardingService) Finish(ctx context.Context, session *wizard.Session) error {
	if session.Machine().CurrentStep() != entity.StepSuccess {
		return wizard.ErrInvalidTransition
	}
	if err := session.ClearCache(ctx); err != nil {
		return err
	}
	s.registry.Delete(session.ID)
	s.metrics.SessionsClosed.Inc()
	return nil
}
