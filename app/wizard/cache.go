package wizard

import (
	"context"
	"encoding/json"

	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
)

// Persisted keys per wizard session. All three are cleared together on
// successful completion or unrecoverable recovery failure.
const (
	KeyTenantID         = "tenant_id"
	KeySelectedPlanData = "selected_plan_data"
	KeyTenantFormData   = "tenant_form_data"
)

// KeyValueStore is the durable store behind the wizard cache. Implementations
// live in app/repository; the wizard core is storage-agnostic.
type KeyValueStore interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID string, keys ...string) error
}

// Cache serializes in-progress selections for one session. Writes are
// write-through: callers persist after every mutation so a reload never
// loses work. Loads tolerate missing or corrupt payloads by returning nil.
type Cache struct {
	store     KeyValueStore
	sessionID string
}

func NewCache(store KeyValueStore, sessionID string) *Cache {
	return &Cache{store: store, sessionID: sessionID}
}

func (c *Cache) SaveSnapshot(ctx context.Context, snapshot *entity.WizardSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.sessionID, KeySelectedPlanData, string(data))
}

func (c *Cache) LoadSnapshot(ctx context.Context) (*entity.WizardSnapshot, error) {
	raw, ok, err := c.store.Get(ctx, c.sessionID, KeySelectedPlanData)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	snapshot := &entity.WizardSnapshot{}
	if err := json.Unmarshal([]byte(raw), snapshot); err != nil {
		return nil, nil
	}
	return snapshot, nil
}

func (c *Cache) SaveFormData(ctx context.Context, form *entity.TenantFormData) error {
	data, err := json.Marshal(form)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.sessionID, KeyTenantFormData, string(data))
}

func (c *Cache) LoadFormData(ctx context.Context) (*entity.TenantFormData, error) {
	raw, ok, err := c.store.Get(ctx, c.sessionID, KeyTenantFormData)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	form := &entity.TenantFormData{}
	if err := json.Unmarshal([]byte(raw), form); err != nil {
		return nil, nil
	}
	return form, nil
}

func (c *Cache) SaveTenantID(ctx context.Context, tenantID string) error {
	return c.store.Set(ctx, c.sessionID, KeyTenantID, tenantID)
}

func (c *Cache) LoadTenantID(ctx context.Context) (string, error) {
	raw, ok, err := c.store.Get(ctx, c.sessionID, KeyTenantID)
	if err != nil || !ok {
		return "", err
	}
	return raw, nil
}

func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, c.sessionID, KeyTenantID, KeySelectedPlanData, KeyTenantFormData)
}
