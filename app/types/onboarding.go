package types

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type OpenSessionRequest struct {
	SessionID string `json:"session_id"`
	TenantID  string `json:"tenant_id"`
}

func NewOpenSessionRequestFromContext(ctx echo.Context) (*OpenSessionRequest, error) {
	var body OpenSessionRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SessionID = strings.TrimSpace(body.SessionID)
	body.TenantID = strings.TrimSpace(body.TenantID)
	return &body, nil
}

func (r *OpenSessionRequest) Validate() error {
	return nil
}

type SessionRequest struct {
	SessionID string
}

func NewSessionRequestFromContext(ctx echo.Context) (*SessionRequest, error) {
	return &SessionRequest{SessionID: strings.TrimSpace(ctx.Param("id"))}, nil
}

func (r *SessionRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	return nil
}

type BasicInfoRequest struct {
	SessionID string
	TenantID  string                `json:"tenant_id"`
	Form      entity.TenantFormData `json:"form"`
}

func NewBasicInfoRequestFromContext(ctx echo.Context) (*BasicInfoRequest, error) {
	var body BasicInfoRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SessionID = strings.TrimSpace(ctx.Param("id"))
	body.TenantID = strings.TrimSpace(body.TenantID)
	body.Form.CompanyName = strings.TrimSpace(body.Form.CompanyName)
	body.Form.Email = strings.TrimSpace(body.Form.Email)
	return &body, nil
}

func (r *BasicInfoRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	if r.TenantID == "" {
		return errors.New("tenant_id is required")
	}
	if r.Form.CompanyName == "" {
		return errors.New("company_name is required")
	}
	if r.Form.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

type SelectPlanRequest struct {
	SessionID    string
	PlanID       uint64 `json:"plan_id"`
	BillingCycle string `json:"billing_cycle"`
}

func NewSelectPlanRequestFromContext(ctx echo.Context) (*SelectPlanRequest, error) {
	var body SelectPlanRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SessionID = strings.TrimSpace(ctx.Param("id"))
	body.BillingCycle = strings.TrimSpace(strings.ToLower(body.BillingCycle))
	return &body, nil
}

func (r *SelectPlanRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	if r.PlanID == 0 {
		return errors.New("plan_id is required")
	}
	if r.BillingCycle != "" && !entity.BillingCycle(r.BillingCycle).Valid() {
		return errors.New("billing_cycle must be monthly or annual")
	}
	return nil
}

// Cycle returns the requested billing cycle, defaulting to monthly.
func (r *SelectPlanRequest) Cycle() entity.BillingCycle {
	if r.BillingCycle == "" {
		return entity.BillingCycleMonthly
	}
	return entity.BillingCycle(r.BillingCycle)
}

type BillingCycleRequest struct {
	SessionID    string
	BillingCycle string `json:"billing_cycle"`
}

func NewBillingCycleRequestFromContext(ctx echo.Context) (*BillingCycleRequest, error) {
	var body BillingCycleRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SessionID = strings.TrimSpace(ctx.Param("id"))
	body.BillingCycle = strings.TrimSpace(strings.ToLower(body.BillingCycle))
	return &body, nil
}

func (r *BillingCycleRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	if !entity.BillingCycle(r.BillingCycle).Valid() {
		return errors.New("billing_cycle must be monthly or annual")
	}
	return nil
}

type BranchCountRequest struct {
	SessionID string
	Count     int `json:"count"`
}

func NewBranchCountRequestFromContext(ctx echo.Context) (*BranchCountRequest, error) {
	var body BranchCountRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SessionID = strings.TrimSpace(ctx.Param("id"))
	return &body, nil
}

func (r *BranchCountRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	if r.Count < 1 {
		return errors.New("count must be at least 1")
	}
	return nil
}

type RenameBranchRequest struct {
	SessionID string
	Index     int
	Name      string `json:"name"`
}

func NewRenameBranchRequestFromContext(ctx echo.Context) (*RenameBranchRequest, error) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return nil, err
	}

	var body RenameBranchRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SessionID = strings.TrimSpace(ctx.Param("id"))
	body.Index = index
	body.Name = strings.TrimSpace(body.Name)
	return &body, nil
}

func (r *RenameBranchRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type BranchSelectionPayload struct {
	Index    int  `json:"index"`
	Selected bool `json:"selected"`
}

type SelectAddonRequest struct {
	SessionID string
	AddonID   uint64
	Branches  []BranchSelectionPayload `json:"branches"`
}

func NewSelectAddonRequestFromContext(ctx echo.Context) (*SelectAddonRequest, error) {
	addonID, err := strconv.ParseUint(ctx.Param("addonID"), 10, 64)
	if err != nil {
		return nil, err
	}

	var body SelectAddonRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SessionID = strings.TrimSpace(ctx.Param("id"))
	body.AddonID = addonID
	return &body, nil
}

func (r *SelectAddonRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	if r.AddonID == 0 {
		return errors.New("invalid addon id")
	}
	return nil
}

type RemoveAddonRequest struct {
	SessionID string
	AddonID   uint64
}

func NewRemoveAddonRequestFromContext(ctx echo.Context) (*RemoveAddonRequest, error) {
	addonID, err := strconv.ParseUint(ctx.Param("addonID"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &RemoveAddonRequest{
		SessionID: strings.TrimSpace(ctx.Param("id")),
		AddonID:   addonID,
	}, nil
}

func (r *RemoveAddonRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	if r.AddonID == 0 {
		return errors.New("invalid addon id")
	}
	return nil
}

type CompleteStepRequest struct {
	SessionID string
	Step      string `json:"step"`
}

func NewCompleteStepRequestFromContext(ctx echo.Context) (*CompleteStepRequest, error) {
	var body CompleteStepRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SessionID = strings.TrimSpace(ctx.Param("id"))
	body.Step = strings.TrimSpace(strings.ToLower(body.Step))
	return &body, nil
}

func (r *CompleteStepRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	switch entity.Step(r.Step) {
	case entity.StepBasicInfo, entity.StepPlanSelection, entity.StepAddonSelection,
		entity.StepPlanSummary, entity.StepPayment:
	default:
		return errors.New("step is not completable")
	}
	return nil
}

type PaymentCallbackRequest struct {
	SessionID string
	Status    string `json:"status"`
	Message   string `json:"message"`
	Code      string `json:"code"`
}

func NewPaymentCallbackRequestFromContext(ctx echo.Context) (*PaymentCallbackRequest, error) {
	var body PaymentCallbackRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SessionID = strings.TrimSpace(ctx.Param("id"))
	body.Status = strings.TrimSpace(strings.ToLower(body.Status))
	return &body, nil
}

func (r *PaymentCallbackRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("invalid session id")
	}
	if r.Status != "success" && r.Status != "failed" {
		return errors.New("status must be success or failed")
	}
	return nil
}

type AddonTemplatePayload struct {
	ID                   uint64 `json:"id"`
	Name                 string `json:"name"`
	MonthlyPriceCents    int64  `json:"monthly_price_cents"`
	AnnualUnitPriceCents int64  `json:"annual_unit_price_cents"`
	PricingScope         string `json:"pricing_scope"`
	IsIncluded           bool   `json:"is_included"`
}

type PlanPayload struct {
	ID                    uint64                  `json:"id"`
	Code                  string                  `json:"code"`
	Name                  string                  `json:"name"`
	MonthlyPriceCents     int64                   `json:"monthly_price_cents"`
	AnnualUnitPriceCents  int64                   `json:"annual_unit_price_cents"`
	IncludedBranchesCount int32                   `json:"included_branches_count"`
	AnnualDiscountPercent int32                   `json:"annual_discount_percent"`
	Addons                []*AddonTemplatePayload `json:"addons"`
}

type ListPlansResponse struct {
	Plans []*PlanPayload `json:"plans"`
}

type PricingPayload struct {
	BillingCycle                 string `json:"billing_cycle"`
	PlanTotalCents               int64  `json:"plan_total_cents"`
	OrganizationAddonsTotalCents int64  `json:"organization_addons_total_cents"`
	BranchAddonsTotalCents       int64  `json:"branch_addons_total_cents"`
	GrandTotalCents              int64  `json:"grand_total_cents"`
}

type PricingResponse struct {
	Pricing *PricingPayload `json:"pricing"`
}

type BranchPayload struct {
	Index          int    `json:"index"`
	Name           string `json:"name"`
	IncludedInPlan bool   `json:"included_in_plan"`
}

type SelectedAddonPayload struct {
	AddonID           uint64                   `json:"addon_id"`
	Name              string                   `json:"name"`
	MonthlyPriceCents int64                    `json:"monthly_price_cents"`
	DisplayPriceCents int64                    `json:"display_price_cents"`
	PricingScope      string                   `json:"pricing_scope"`
	IsIncluded        bool                     `json:"is_included"`
	Branches          []BranchSelectionPayload `json:"branches,omitempty"`
}

type PaymentFailurePayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type SessionStateResponse struct {
	SessionID          string                  `json:"session_id"`
	TenantID           string                  `json:"tenant_id,omitempty"`
	CurrentStep        string                  `json:"current_step"`
	CompletedSteps     []string                `json:"completed_steps"`
	Plan               *PlanPayload            `json:"plan,omitempty"`
	BillingCycle       string                  `json:"billing_cycle"`
	Branches           []*BranchPayload        `json:"branches"`
	SelectedAddons     []*SelectedAddonPayload `json:"selected_addons"`
	Form               *entity.TenantFormData  `json:"form,omitempty"`
	Pricing            *PricingPayload         `json:"pricing,omitempty"`
	LastPaymentFailure *PaymentFailurePayload  `json:"last_payment_failure,omitempty"`
}
