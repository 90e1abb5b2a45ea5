package tenantapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
)

// HTTPClient talks to the tenant service's REST API. Timeouts live here at
// the transport boundary, not in the wizard core.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type statusResponse struct {
	TenantInfo struct {
		CompanyName string `json:"company_name"`
		ContactName string `json:"contact_name"`
		Email       string `json:"email"`
		Phone       string `json:"phone"`
		AddressLine string `json:"address_line"`
		City        string `json:"city"`
		Country     string `json:"country"`
		PostalCode  string `json:"postal_code"`
	} `json:"tenant_info"`
	VerificationStatus struct {
		EmailVerified   bool       `json:"email_verified"`
		PhoneVerified   bool       `json:"phone_verified"`
		BothVerified    bool       `json:"both_verified"`
		EmailVerifiedAt *time.Time `json:"email_verified_at"`
		PhoneVerifiedAt *time.Time `json:"phone_verified_at"`
	} `json:"verification_status"`
	BasicInfoStatus struct {
		IsComplete        bool     `json:"is_complete"`
		ValidationErrors  []string `json:"validation_errors"`
		ValidationMessage string   `json:"validation_message"`
	} `json:"basic_info_status"`
}

func (c *HTTPClient) FetchStatus(ctx context.Context, tenantID string) (*entity.TenantStatus, error) {
	url := fmt.Sprintf("%s/tenants/%s/status", c.baseURL, tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tenant status request failed with status %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	return &entity.TenantStatus{
		TenantInfo: entity.TenantFormData{
			CompanyName: body.TenantInfo.CompanyName,
			ContactName: body.TenantInfo.ContactName,
			Email:       body.TenantInfo.Email,
			Phone:       body.TenantInfo.Phone,
			AddressLine: body.TenantInfo.AddressLine,
			City:        body.TenantInfo.City,
			Country:     body.TenantInfo.Country,
			PostalCode:  body.TenantInfo.PostalCode,
		},
		VerificationStatus: entity.VerificationStatus{
			EmailVerified:   body.VerificationStatus.EmailVerified,
			PhoneVerified:   body.VerificationStatus.PhoneVerified,
			BothVerified:    body.VerificationStatus.BothVerified,
			EmailVerifiedAt: body.VerificationStatus.EmailVerifiedAt,
			PhoneVerifiedAt: body.VerificationStatus.PhoneVerifiedAt,
		},
		BasicInfoStatus: entity.BasicInfoStatus{
			IsComplete:        body.BasicInfoStatus.IsComplete,
			ValidationErrors:  body.BasicInfoStatus.ValidationErrors,
			ValidationMessage: body.BasicInfoStatus.ValidationMessage,
		},
	}, nil
}

type assignPlanResponse struct {
	Success bool `json:"success"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *HTTPClient) AssignPlan(ctx context.Context, assignReq *AssignPlanRequest) (AssignPlanResult, error) {
	payload, err := json.Marshal(assignReq)
	if err != nil {
		return AssignPlanResult{}, err
	}

	url := fmt.Sprintf("%s/tenants/%s/plan", c.baseURL, assignReq.TenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return AssignPlanResult{}, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return AssignPlanResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AssignPlanResult{}, fmt.Errorf("plan assignment request failed with status %d", resp.StatusCode)
	}

	var body assignPlanResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return AssignPlanResult{}, err
	}

	result := AssignPlanResult{Success: body.Success}
	if body.Error != nil {
		result.ErrorMessage = body.Error.Message
		result.ErrorCode = body.Error.Code
	}
	return result, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}
