package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
	"github.com/vibast-solutions/ms-go-onboarding/app/metrics"
	"github.com/vibast-solutions/ms-go-onboarding/app/service"
	"github.com/vibast-solutions/ms-go-onboarding/app/tenantapi"
)

type controllerStore struct {
	data map[string]string
}

func (s *controllerStore) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	value, ok := s.data[sessionID+"/"+key]
	return value, ok, nil
}

func (s *controllerStore) Set(_ context.Context, sessionID, key, value string) error {
	s.data[sessionID+"/"+key] = value
	return nil
}

func (s *controllerStore) Delete(_ context.Context, sessionID string, keys ...string) error {
	for _, key := range keys {
		delete(s.data, sessionID+"/"+key)
	}
	return nil
}

type controllerPlanRepo struct {
	listFn     func(ctx context.Context) ([]*entity.Plan, error)
	findByIDFn func(ctx context.Context, id uint64) (*entity.Plan, error)
}

func (r *controllerPlanRepo) List(ctx context.Context) ([]*entity.Plan, error) {
	if r.listFn != nil {
		return r.listFn(ctx)
	}
	return nil, nil
}

func (r *controllerPlanRepo) FindByID(ctx context.Context, id uint64) (*entity.Plan, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}

func catalogPlan() *entity.Plan {
	return &entity.Plan{
		ID:                    7,
		Code:                  "growth",
		Name:                  "Growth",
		MonthlyPriceCents:     10000,
		IncludedBranchesCount: 3,
		AnnualDiscountPercent: 20,
		Addons: []*entity.AddonTemplate{
			{ID: 1, PlanID: 7, Name: "Reporting", MonthlyPriceCents: 5000, PricingScope: entity.PricingScopeOrganization},
			{ID: 2, PlanID: 7, Name: "Kiosk", MonthlyPriceCents: 1000, PricingScope: entity.PricingScopeBranch},
		},
	}
}

func newControllerForTest(planRepo *controllerPlanRepo) *OnboardingController {
	store := &controllerStore{data: make(map[string]string)}
	m := metrics.New(prometheus.NewRegistry())
	registry := service.NewSessionRegistry(store)
	recovery := service.NewProgressRecoveryService(&tenantapi.StubStatusClient{}, m)
	svc := service.NewOnboardingService(registry, planRepo, recovery, &tenantapi.StubPlanAssigner{}, m)
	return NewOnboardingController(svc)
}

func perform(t *testing.T, handler func(echo.Context) error, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for name, value := range params {
		names = append(names, name)
		values = append(values, value)
	}
	ctx.SetParamNames(names...)
	ctx.SetParamValues(values...)

	if err := handler(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

type stateResponse struct {
	SessionID      string   `json:"session_id"`
	TenantID       string   `json:"tenant_id"`
	CurrentStep    string   `json:"current_step"`
	CompletedSteps []string `json:"completed_steps"`
	BillingCycle   string   `json:"billing_cycle"`
	Plan           *struct {
		ID uint64 `json:"id"`
	} `json:"plan"`
	SelectedAddons []struct {
		AddonID uint64 `json:"addon_id"`
	} `json:"selected_addons"`
	Pricing *struct {
		GrandTotalCents int64 `json:"grand_total_cents"`
	} `json:"pricing"`
	LastPaymentFailure *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"last_payment_failure"`
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateResponse {
	t.Helper()

	var state stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("unmarshal failed: %v body=%s", err, rec.Body.String())
	}
	return state
}

func openSession(t *testing.T, ctrl *OnboardingController) string {
	t.Helper()

	rec := perform(t, ctrl.OpenSession, http.MethodPost, "/onboarding/sessions", `{}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("open session: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	if state.SessionID == "" {
		t.Fatal("open session returned no session id")
	}
	if state.CurrentStep != "basic_info" {
		t.Fatalf("fresh session step = %s, want basic_info", state.CurrentStep)
	}
	return state.SessionID
}

func TestHealth(t *testing.T) {
	ctrl := newControllerForTest(&controllerPlanRepo{})
	rec := perform(t, ctrl.Health, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestListPlans(t *testing.T) {
	ctrl := newControllerForTest(&controllerPlanRepo{
		listFn: func(context.Context) ([]*entity.Plan, error) {
			return []*entity.Plan{catalogPlan()}, nil
		},
	})

	rec := perform(t, ctrl.ListPlans, http.MethodGet, "/plans", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Plans []struct {
			ID                   uint64 `json:"id"`
			AnnualUnitPriceCents int64  `json:"annual_unit_price_cents"`
		} `json:"plans"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(payload.Plans) != 1 || payload.Plans[0].ID != 7 {
		t.Fatalf("unexpected plans payload: %s", rec.Body.String())
	}
	// 10000 * 12 with a 20% discount.
	if payload.Plans[0].AnnualUnitPriceCents != 96000 {
		t.Fatalf("annual unit price = %d, want 96000", payload.Plans[0].AnnualUnitPriceCents)
	}
}

func TestOpenSessionBadBody(t *testing.T) {
	ctrl := newControllerForTest(&controllerPlanRepo{})
	rec := perform(t, ctrl.OpenSession, http.MethodPost, "/onboarding/sessions", "{bad", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	ctrl := newControllerForTest(&controllerPlanRepo{})
	rec := perform(t, ctrl.GetSession, http.MethodGet, "/onboarding/sessions/missing", "", map[string]string{"id": "missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSubmitBasicInfoRequiresTenantID(t *testing.T) {
	ctrl := newControllerForTest(&controllerPlanRepo{})
	id := openSession(t, ctrl)

	rec := perform(t, ctrl.SubmitBasicInfo, http.MethodPost, "/onboarding/sessions/"+id+"/basic-info",
		`{"form":{"company_name":"Acme","email":"ops@acme.test"}}`, map[string]string{"id": id})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSelectPlanUnknown(t *testing.T) {
	ctrl := newControllerForTest(&controllerPlanRepo{
		findByIDFn: func(context.Context, uint64) (*entity.Plan, error) { return nil, nil },
	})
	id := openSession(t, ctrl)

	rec := perform(t, ctrl.SelectPlan, http.MethodPut, "/onboarding/sessions/"+id+"/plan",
		`{"plan_id":99}`, map[string]string{"id": id})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCompleteStepNotCurrent(t *testing.T) {
	ctrl := newControllerForTest(&controllerPlanRepo{})
	id := openSession(t, ctrl)

	rec := perform(t, ctrl.CompleteStep, http.MethodPost, "/onboarding/sessions/"+id+"/steps/complete",
		`{"step":"plan_summary"}`, map[string]string{"id": id})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSelectAddonBranchScopedRequiresBranches(t *testing.T) {
	ctrl := newControllerForTest(&controllerPlanRepo{
		findByIDFn: func(_ context.Context, id uint64) (*entity.Plan, error) { return catalogPlan(), nil },
	})
	id := openSession(t, ctrl)

	rec := perform(t, ctrl.SelectPlan, http.MethodPut, "/onboarding/sessions/"+id+"/plan",
		`{"plan_id":7}`, map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("select plan: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = perform(t, ctrl.SelectAddon, http.MethodPut, "/onboarding/sessions/"+id+"/addons/2",
		`{}`, map[string]string{"id": id, "addonID": "2"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestOnboardingFlow(t *testing.T) {
	ctrl := newControllerForTest(&controllerPlanRepo{
		findByIDFn: func(_ context.Context, id uint64) (*entity.Plan, error) {
			if id != 7 {
				return nil, nil
			}
			return catalogPlan(), nil
		},
	})
	id := openSession(t, ctrl)
	params := map[string]string{"id": id}

	rec := perform(t, ctrl.SubmitBasicInfo, http.MethodPost, "/onboarding/sessions/"+id+"/basic-info",
		`{"tenant_id":"tenant-1","form":{"company_name":"Acme","email":"ops@acme.test"}}`, params)
	if rec.Code != http.StatusOK {
		t.Fatalf("basic info: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = perform(t, ctrl.CompleteStep, http.MethodPost, "/onboarding/sessions/"+id+"/steps/complete",
		`{"step":"basic_info"}`, params)
	if state := decodeState(t, rec); state.CurrentStep != "plan_selection" {
		t.Fatalf("step = %s, want plan_selection (body=%s)", state.CurrentStep, rec.Body.String())
	}

	rec = perform(t, ctrl.SelectPlan, http.MethodPut, "/onboarding/sessions/"+id+"/plan",
		`{"plan_id":7,"billing_cycle":"monthly"}`, params)
	if state := decodeState(t, rec); state.Plan == nil || state.Plan.ID != 7 {
		t.Fatalf("plan not selected: %s", rec.Body.String())
	}

	rec = perform(t, ctrl.CompleteStep, http.MethodPost, "/onboarding/sessions/"+id+"/steps/complete",
		`{"step":"plan_selection"}`, params)
	if state := decodeState(t, rec); state.CurrentStep != "addon_selection" {
		t.Fatalf("step = %s, want addon_selection", state.CurrentStep)
	}

	rec = perform(t, ctrl.SelectAddon, http.MethodPut, "/onboarding/sessions/"+id+"/addons/2",
		`{"branches":[{"index":1,"selected":true}]}`, map[string]string{"id": id, "addonID": "2"})
	if state := decodeState(t, rec); len(state.SelectedAddons) != 1 {
		t.Fatalf("selected addons: %s", rec.Body.String())
	}

	rec = perform(t, ctrl.GetPricing, http.MethodGet, "/onboarding/sessions/"+id+"/pricing", "", params)
	var pricingPayload struct {
		Pricing struct {
			GrandTotalCents int64 `json:"grand_total_cents"`
		} `json:"pricing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pricingPayload); err != nil {
		t.Fatalf("unmarshal pricing failed: %v", err)
	}
	// Plan 10000 plus one branch-scoped addon applied to a single branch.
	if pricingPayload.Pricing.GrandTotalCents != 11000 {
		t.Fatalf("grand total = %d, want 11000", pricingPayload.Pricing.GrandTotalCents)
	}

	rec = perform(t, ctrl.CompleteStep, http.MethodPost, "/onboarding/sessions/"+id+"/steps/complete",
		`{"step":"addon_selection"}`, params)
	if state := decodeState(t, rec); state.CurrentStep != "plan_summary" {
		t.Fatalf("step = %s, want plan_summary (body=%s)", state.CurrentStep, rec.Body.String())
	}

	rec = perform(t, ctrl.CompleteStep, http.MethodPost, "/onboarding/sessions/"+id+"/steps/complete",
		`{"step":"plan_summary"}`, params)
	if state := decodeState(t, rec); state.CurrentStep != "payment" {
		t.Fatalf("step = %s, want payment", state.CurrentStep)
	}

	rec = perform(t, ctrl.PaymentCallback, http.MethodPost, "/onboarding/sessions/"+id+"/payment/callback",
		`{"status":"failed","message":"card declined","code":"card_declined"}`, params)
	state := decodeState(t, rec)
	if state.CurrentStep != "payment_failed" {
		t.Fatalf("step = %s, want payment_failed", state.CurrentStep)
	}
	if state.LastPaymentFailure == nil || state.LastPaymentFailure.Code != "card_declined" {
		t.Fatalf("payment failure not reported: %s", rec.Body.String())
	}

	rec = perform(t, ctrl.RetryPayment, http.MethodPost, "/onboarding/sessions/"+id+"/payment/retry", "", params)
	if state := decodeState(t, rec); state.CurrentStep != "payment" {
		t.Fatalf("step = %s, want payment after retry", state.CurrentStep)
	}

	rec = perform(t, ctrl.PaymentCallback, http.MethodPost, "/onboarding/sessions/"+id+"/payment/callback",
		`{"status":"success"}`, params)
	state = decodeState(t, rec)
	if state.CurrentStep != "success" {
		t.Fatalf("step = %s, want success", state.CurrentStep)
	}
	if state.LastPaymentFailure != nil {
		t.Fatal("payment failure not cleared after success")
	}

	rec = perform(t, ctrl.Finish, http.MethodPost, "/onboarding/sessions/"+id+"/finish", "", params)
	if rec.Code != http.StatusOK {
		t.Fatalf("finish: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = perform(t, ctrl.GetSession, http.MethodGet, "/onboarding/sessions/"+id, "", params)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after finish, got %d", rec.Code)
	}
}
