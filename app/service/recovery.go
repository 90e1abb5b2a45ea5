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

// RecoveryResult is the reconciliation decision for one resumed session.
type RecoveryResult struct {
	Step           entity.Step
	CompletedSteps map[entity.Step]bool
	TenantID       *string
	Snapshot       *entity.WizardSnapshot
	FormData       *entity.TenantFormData
	// Reset is true when recovery failed and all persisted keys were cleared.
	Reset bool
}

// ProgressRecoveryService decides the resume step by reconciling cached
// progress against the tenant status endpoint. The endpoint is the source of
// truth for progress; the cache only restores selections.
type ProgressRecoveryService struct {
	statusClient tenantapi.StatusClient
	metrics      *metrics.Metrics
	logger       logrus.FieldLogger
}

func NewProgressRecoveryService(statusClient tenantapi.StatusClient, m *metrics.Metrics) *ProgressRecoveryService {
	return &ProgressRecoveryService{
		statusClient: statusClient,
		metrics:      m,
		logger:       factory.NewModuleLogger("progress-recovery"),
	}
}

// ResolveInitialStep resolves where the session resumes. A status check
// failure clears every persisted key and restarts at basic info; recovery
// must never leave the user stuck in a step whose prerequisites cannot be
// confirmed.
func (s *ProgressRecoveryService) ResolveInitialStep(ctx context.Context, cache *wizard.Cache, requestTenantID string) (*RecoveryResult, error) {
	tenantID := requestTenantID
	if tenantID == "" {
		cached, err := cache.LoadTenantID(ctx)
		if err != nil {
			return nil, err
		}
		tenantID = cached
	}

	snapshot, err := cache.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	form, err := cache.LoadFormData(ctx)
	if err != nil {
		return nil, err
	}

	if tenantID == "" {
		return &RecoveryResult{
			Step:           entity.StepBasicInfo,
			CompletedSteps: map[entity.Step]bool{},
			Snapshot:       snapshot,
			FormData:       form,
		}, nil
	}

	status, err := s.fetchStatusSafely(ctx, tenantID)
	if err != nil {
		s.logger.WithError(err).WithField("tenant_id", tenantID).Warn("Status check failed, resetting wizard")
		s.metrics.RecoveryResets.Inc()
		if clearErr := cache.Clear(ctx); clearErr != nil {
			s.logger.WithError(clearErr).Error("Failed to clear wizard cache after recovery failure")
		}
		return &RecoveryResult{
			Step:           entity.StepBasicInfo,
			CompletedSteps: map[entity.Step]bool{},
			Reset:          true,
		}, nil
	}

	merged := mergeFormData(form, status.TenantInfo)
	if err := cache.SaveFormData(ctx, &merged); err != nil {
		s.logger.WithError(err).Warn("Failed to re-cache restored form data")
	}

	result := &RecoveryResult{
		CompletedSteps: map[entity.Step]bool{},
		TenantID:       &tenantID,
		Snapshot:       snapshot,
		FormData:       &merged,
	}
	if status.BasicInfoStatus.IsComplete && status.VerificationStatus.BothVerified {
		result.Step = entity.StepPlanSelection
		result.CompletedSteps[entity.StepBasicInfo] = true
	} else {
		result.Step = entity.StepBasicInfo
	}
	return result, nil
}

func (s *ProgressRecoveryService) fetchStatusSafely(ctx context.Context, tenantID string) (status *entity.TenantStatus, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("status check panicked: %v", rec)
		}
	}()

	status, err = s.statusClient.FetchStatus(ctx, tenantID)
	if err == nil && status == nil {
		err = fmt.Errorf("status endpoint returned no data for tenant %s", tenantID)
	}
	return status, err
}

// mergeFormData overlays the server-verified contact fields onto the cached
// form; server values win when present.
func mergeFormData(cached *entity.TenantFormData, server entity.TenantFormData) entity.TenantFormData {
	merged := entity.TenantFormData{}
	if cached != nil {
		merged = *cached
	}
	if server.CompanyName != "" {
		merged.CompanyName = server.CompanyName
	}
	if server.ContactName != "" {
		merged.ContactName = server.ContactName
	}
	if server.Email != "" {
		merged.Email = server.Email
	}
	if server.Phone != "" {
		merged.Phone = server.Phone
	}
	if server.AddressLine != "" {
		merged.AddressLine = server.AddressLine
	}
	if server.City != "" {
		merged.City = server.City
	}
	if server.Country != "" {
		merged.Country = server.Country
	}
	if server.PostalCode != "" {
		merged.PostalCode = server.PostalCode
	}
	return merged
}
