package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
	"github.com/vibast-solutions/ms-go-onboarding/app/metrics"
	"github.com/vibast-solutions/ms-go-onboarding/app/tenantapi"
	"github.com/vibast-solutions/ms-go-onboarding/app/wizard"
)

type memoryStore struct {
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	value, ok := s.data[sessionID+"/"+key]
	return value, ok, nil
}

func (s *memoryStore) Set(_ context.Context, sessionID, key, value string) error {
	s.data[sessionID+"/"+key] = value
	return nil
}

func (s *memoryStore) Delete(_ context.Context, sessionID string, keys ...string) error {
	for _, key := range keys {
		delete(s.data, sessionID+"/"+key)
	}
	return nil
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func TestResolveInitialStepWithoutTenant(t *testing.T) {
	recovery := NewProgressRecoveryService(&tenantapi.StubStatusClient{
		FetchFn: func(context.Context, string) (*entity.TenantStatus, error) {
			t.Fatal("status endpoint must not be called without a tenant id")
			return nil, nil
		},
	}, newTestMetrics())
	cache := wizard.NewCache(newMemoryStore(), "sess-1")

	result, err := recovery.ResolveInitialStep(context.Background(), cache, "")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Step != entity.StepBasicInfo {
		t.Fatalf("step = %s, want basic_info", result.Step)
	}
	if len(result.CompletedSteps) != 0 {
		t.Fatalf("completed steps = %v, want empty", result.CompletedSteps)
	}
}

func TestResolveInitialStepSkipsBasicInfoWhenVerified(t *testing.T) {
	recovery := NewProgressRecoveryService(&tenantapi.StubStatusClient{
		FetchFn: func(_ context.Context, tenantID string) (*entity.TenantStatus, error) {
			if tenantID != "tenant-42" {
				t.Fatalf("unexpected tenant id %q", tenantID)
			}
			return &entity.TenantStatus{
				TenantInfo:         entity.TenantFormData{CompanyName: "Acme", Email: "ops@acme.test"},
				VerificationStatus: entity.VerificationStatus{BothVerified: true},
				BasicInfoStatus:    entity.BasicInfoStatus{IsComplete: true},
			}, nil
		},
	}, newTestMetrics())

	store := newMemoryStore()
	cache := wizard.NewCache(store, "sess-1")
	_ = cache.SaveFormData(context.Background(), &entity.TenantFormData{Phone: "555-1234"})

	result, err := recovery.ResolveInitialStep(context.Background(), cache, "tenant-42")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Step != entity.StepPlanSelection {
		t.Fatalf("step = %s, want plan_selection", result.Step)
	}
	if !result.CompletedSteps[entity.StepBasicInfo] {
		t.Fatal("basic info not marked complete")
	}

	// Server fields overlay the cached form; untouched fields survive.
	if result.FormData.CompanyName != "Acme" || result.FormData.Phone != "555-1234" {
		t.Fatalf("merged form = %+v", result.FormData)
	}

	recached, _ := cache.LoadFormData(context.Background())
	if recached == nil || recached.CompanyName != "Acme" {
		t.Fatalf("restored form not re-cached: %+v", recached)
	}
}

func TestResolveInitialStepRedoesBasicInfoWhenIncomplete(t *testing.T) {
	recovery := NewProgressRecoveryService(&tenantapi.StubStatusClient{
		FetchFn: func(context.Context, string) (*entity.TenantStatus, error) {
			return &entity.TenantStatus{
				VerificationStatus: entity.VerificationStatus{EmailVerified: true},
				BasicInfoStatus:    entity.BasicInfoStatus{IsComplete: false},
			}, nil
		},
	}, newTestMetrics())
	cache := wizard.NewCache(newMemoryStore(), "sess-1")

	result, err := recovery.ResolveInitialStep(context.Background(), cache, "tenant-42")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Step != entity.StepBasicInfo {
		t.Fatalf("step = %s, want basic_info", result.Step)
	}
	if result.CompletedSteps[entity.StepBasicInfo] {
		t.Fatal("basic info wrongly marked complete")
	}
}

func TestResolveInitialStepResetsOnStatusFailure(t *testing.T) {
	recovery := NewProgressRecoveryService(&tenantapi.StubStatusClient{
		FetchFn: func(context.Context, string) (*entity.TenantStatus, error) {
			return nil, errors.New("status service down")
		},
	}, newTestMetrics())

	store := newMemoryStore()
	cache := wizard.NewCache(store, "sess-1")
	ctx := context.Background()
	_ = cache.SaveTenantID(ctx, "tenant-42")
	_ = cache.SaveSnapshot(ctx, &entity.WizardSnapshot{BranchCount: 2})
	_ = cache.SaveFormData(ctx, &entity.TenantFormData{CompanyName: "Acme"})

	result, err := recovery.ResolveInitialStep(ctx, cache, "")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !result.Reset {
		t.Fatal("expected reset")
	}
	if result.Step != entity.StepBasicInfo || result.Snapshot != nil || result.TenantID != nil {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.data) != 0 {
		t.Fatalf("persisted keys not cleared: %v", store.data)
	}
}

func TestResolveInitialStepResetsOnStatusPanic(t *testing.T) {
	recovery := NewProgressRecoveryService(&tenantapi.StubStatusClient{
		FetchFn: func(context.Context, string) (*entity.TenantStatus, error) {
			panic("boom")
		},
	}, newTestMetrics())
	cache := wizard.NewCache(newMemoryStore(), "sess-1")

	result, err := recovery.ResolveInitialStep(context.Background(), cache, "tenant-42")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !result.Reset || result.Step != entity.StepBasicInfo {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestResolveInitialStepUsesCachedTenantID(t *testing.T) {
	var seen string
	recovery := NewProgressRecoveryService(&tenantapi.StubStatusClient{
		FetchFn: func(_ context.Context, tenantID string) (*entity.TenantStatus, error) {
			seen = tenantID
			return &entity.TenantStatus{
				VerificationStatus: entity.VerificationStatus{BothVerified: true},
				BasicInfoStatus:    entity.BasicInfoStatus{IsComplete: true},
			}, nil
		},
	}, newTestMetrics())

	cache := wizard.NewCache(newMemoryStore(), "sess-1")
	_ = cache.SaveTenantID(context.Background(), "tenant-cached")

	if _, err := recovery.ResolveInitialStep(context.Background(), cache, ""); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if seen != "tenant-cached" {
		t.Fatalf("tenant id = %q, want tenant-cached", seen)
	}
}
