package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
	"github.com/vibast-solutions/ms-go-onboarding/app/factory"
	"github.com/vibast-solutions/ms-go-onboarding/app/mapper"
	"github.com/vibast-solutions/ms-go-onboarding/app/service"
	"github.com/vibast-solutions/ms-go-onboarding/app/types"
	"github.com/vibast-solutions/ms-go-onboarding/app/wizard"
)

type OnboardingController struct {
	onboardingService *service.OnboardingService
	logger            logrus.FieldLogger
}

func NewOnboardingController(onboardingService *service.OnboardingService) *OnboardingController {
	return &OnboardingController{
		onboardingService: onboardingService,
		logger:            factory.NewModuleLogger("onboarding-controller"),
	}
}

func (c *OnboardingController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *OnboardingController) ListPlans(ctx echo.Context) error {
	items, err := c.onboardingService.ListPlans(ctx.Request().Context())
	if err != nil {
		c.logger.WithError(err).Error("List plans failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListPlansResponse{
		Plans: mapper.PlansToPayload(items),
	})
}

func (c *OnboardingController) OpenSession(ctx echo.Context) error {
	req, err := types.NewOpenSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.OpenSession(ctx.Request().Context(), req.SessionID, req.TenantID)
	if err != nil {
		c.logger.WithError(err).Error("Open session failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	session.Lock()
	defer session.Unlock()
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) GetSession(ctx echo.Context) error {
	req, err := types.NewSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Get session failed")
	}

	session.Lock()
	defer session.Unlock()
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) SubmitBasicInfo(ctx echo.Context) error {
	req, err := types.NewBasicInfoRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Submit basic info failed")
	}

	session.Lock()
	defer session.Unlock()

	if err := c.onboardingService.SubmitBasicInfo(ctx.Request().Context(), session, req.TenantID, req.Form); err != nil {
		return c.writeSessionError(ctx, err, "Submit basic info failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) SelectPlan(ctx echo.Context) error {
	req, err := types.NewSelectPlanRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Select plan failed")
	}

	session.Lock()
	defer session.Unlock()

	if err := c.onboardingService.SelectPlan(ctx.Request().Context(), session, req.PlanID, req.Cycle()); err != nil {
		return c.writeSessionError(ctx, err, "Select plan failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) SetBillingCycle(ctx echo.Context) error {
	req, err := types.NewBillingCycleRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Set billing cycle failed")
	}

	session.Lock()
	defer session.Unlock()

	if err := session.SetBillingCycle(ctx.Request().Context(), entity.BillingCycle(req.BillingCycle)); err != nil {
		return c.writeSessionError(ctx, err, "Set billing cycle failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) SetBranchCount(ctx echo.Context) error {
	req, err := types.NewBranchCountRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Set branch count failed")
	}

	session.Lock()
	defer session.Unlock()

	if err := session.SetBranchCount(ctx.Request().Context(), req.Count); err != nil {
		return c.writeSessionError(ctx, err, "Set branch count failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) RenameBranch(ctx echo.Context) error {
	req, err := types.NewRenameBranchRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Rename branch failed")
	}

	session.Lock()
	defer session.Unlock()

	if err := session.RenameBranch(ctx.Request().Context(), req.Index, req.Name); err != nil {
		return c.writeSessionError(ctx, err, "Rename branch failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) SelectAddon(ctx echo.Context) error {
	req, err := types.NewSelectAddonRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Select addon failed")
	}

	branches := make([]entity.BranchSelection, 0, len(req.Branches))
	for _, branch := range req.Branches {
		branches = append(branches, entity.BranchSelection{
			BranchIndex: branch.Index,
			Selected:    branch.Selected,
		})
	}

	session.Lock()
	defer session.Unlock()

	if _, err := session.SelectAddon(ctx.Request().Context(), req.AddonID, branches); err != nil {
		return c.writeSessionError(ctx, err, "Select addon failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) RemoveAddon(ctx echo.Context) error {
	req, err := types.NewRemoveAddonRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Remove addon failed")
	}

	session.Lock()
	defer session.Unlock()

	if err := session.RemoveAddon(ctx.Request().Context(), req.AddonID); err != nil {
		return c.writeSessionError(ctx, err, "Remove addon failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) GetPricing(ctx echo.Context) error {
	req, err := types.NewSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Get pricing failed")
	}

	session.Lock()
	defer session.Unlock()

	if session.Plan() == nil {
		return c.writeError(ctx, http.StatusConflict, "no plan selected")
	}
	return ctx.JSON(http.StatusOK, &types.PricingResponse{
		Pricing: mapper.QuoteToPayload(session.Quote(), session.BillingCycle()),
	})
}

func (c *OnboardingController) CompleteStep(ctx echo.Context) error {
	req, err := types.NewCompleteStepRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Complete step failed")
	}

	session.Lock()
	defer session.Unlock()

	if _, err := c.onboardingService.CompleteStep(ctx.Request().Context(), session, entity.Step(req.Step)); err != nil {
		return c.writeSessionError(ctx, err, "Complete step failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) PreviousStep(ctx echo.Context) error {
	req, err := types.NewSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Previous step failed")
	}

	session.Lock()
	defer session.Unlock()

	if _, err := c.onboardingService.PreviousStep(session); err != nil {
		return c.writeSessionError(ctx, err, "Previous step failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) PaymentCallback(ctx echo.Context) error {
	req, err := types.NewPaymentCallbackRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Payment callback failed")
	}

	session.Lock()
	defer session.Unlock()

	if req.Status == "success" {
		_, err = c.onboardingService.CompleteStep(ctx.Request().Context(), session, entity.StepPayment)
	} else {
		err = c.onboardingService.PaymentFailed(session, req.Message, req.Code)
	}
	if err != nil {
		return c.writeSessionError(ctx, err, "Payment callback failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) RetryPayment(ctx echo.Context) error {
	req, err := types.NewSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Retry payment failed")
	}

	session.Lock()
	defer session.Unlock()

	if err := c.onboardingService.RetryPayment(session); err != nil {
		return c.writeSessionError(ctx, err, "Retry payment failed")
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToResponse(session))
}

func (c *OnboardingController) Finish(ctx echo.Context) error {
	req, err := types.NewSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.onboardingService.Session(req.SessionID)
	if err != nil {
		return c.writeSessionError(ctx, err, "Finish failed")
	}

	session.Lock()
	defer session.Unlock()

	if err := c.onboardingService.Finish(ctx.Request().Context(), session); err != nil {
		return c.writeSessionError(ctx, err, "Finish failed")
	}
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Onboarding completed successfully"})
}

// writeSessionError maps the wizard and service error taxonomy onto HTTP
// status codes; anything unrecognized is logged and reported as a 500.
func (c *OnboardingController) writeSessionError(ctx echo.Context, err error, logMessage string) error {
	var assignment *service.PlanAssignmentError

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return c.writeError(ctx, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrPlanNotFound):
		return c.writeError(ctx, http.StatusNotFound, "plan not found")
	case errors.Is(err, service.ErrTenantIDRequired),
		errors.Is(err, wizard.ErrInvalidBranchCount),
		errors.Is(err, wizard.ErrBranchIndexOutOfRange),
		errors.Is(err, wizard.ErrBranchSelectionRequired),
		errors.Is(err, wizard.ErrInvalidBillingCycle),
		errors.Is(err, wizard.ErrAddonNotInPlan):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, wizard.ErrInvalidTransition),
		errors.Is(err, wizard.ErrStepNotCurrent),
		errors.Is(err, wizard.ErrNoPlanSelected):
		return c.writeError(ctx, http.StatusConflict, err.Error())
	case errors.As(err, &assignment):
		return ctx.JSON(http.StatusUnprocessableEntity, &types.ErrorResponse{
			Error: assignment.Message,
			Code:  assignment.Code,
		})
	case errors.Is(err, service.ErrPlanAssignmentFailed):
		return c.writeError(ctx, http.StatusUnprocessableEntity, err.Error())
	default:
		c.logger.WithError(err).Error(logMessage)
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *OnboardingController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
