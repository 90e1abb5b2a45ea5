package wizard

import (
	"context"
	"sync"

	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
	"github.com/vibast-solutions/ms-go-onboarding/app/pricing"
)

// Session is one in-flight wizard. Mutations follow mutate-then-persist: the
// in-memory state changes first, then the snapshot is written through the
// cache, so the last completed mutation always wins. The embedded mutex
// serializes request handlers on the same session; concurrent browser tabs
// are last-write-wins and not otherwise reconciled.
type Session struct {
	sync.Mutex

	ID string

	machine  *StateMachine
	registry *BranchRegistry
	addons   *AddonSelectionManager
	cache    *Cache

	plan  *entity.Plan
	cycle entity.BillingCycle
	form  entity.TenantFormData
}

func NewSession(id string, store KeyValueStore) *Session {
	return &Session{
		ID:       id,
		machine:  NewStateMachine(entity.StepBasicInfo, nil, nil),
		registry: NewBranchRegistry(1),
		addons:   NewAddonSelectionManager(),
		cache:    NewCache(store, id),
		cycle:    entity.BillingCycleMonthly,
	}
}

// Restore rebuilds the session from a recovery decision and an optional
// cached snapshot. The snapshot carries selections only; progress comes from
// the caller (ProgressRecoveryService), never from the cache alone.
func (s *Session) Restore(initial entity.Step, completed map[entity.Step]bool, tenantID *string, snapshot *entity.WizardSnapshot, form *entity.TenantFormData) {
	s.machine = NewStateMachine(initial, completed, tenantID)
	if form != nil {
		s.form = *form
	}
	if snapshot == nil {
		return
	}

	s.plan = snapshot.SelectedPlan
	if snapshot.BillingCycle.Valid() {
		s.cycle = snapshot.BillingCycle
	}
	if s.plan != nil {
		s.registry = NewBranchRegistry(s.plan.IncludedBranchesCount)
	}
	if len(snapshot.Branches) > 0 {
		s.registry.SetBranches(snapshot.Branches)
	}
	s.addons.SetSelections(snapshot.SelectedAddons)
	s.addons.SyncBranches(s.registry.Branches())
}

func (s *Session) Machine() *StateMachine              { return s.machine }
func (s *Session) Registry() *BranchRegistry           { return s.registry }
func (s *Session) Addons() *AddonSelectionManager      { return s.addons }
func (s *Session) Cache() *Cache                       { return s.cache }
func (s *Session) Plan() *entity.Plan                  { return s.plan }
func (s *Session) BillingCycle() entity.BillingCycle   { return s.cycle }
func (s *Session) FormData() entity.TenantFormData     { return s.form }
func (s *Session) SetFormData(f entity.TenantFormData) { s.form = f }

// SubmitBasicInfo stores the contact fields and attaches the tenant ID the
// front-end obtained from the tenant service.
func (s *Session) SubmitBasicInfo(ctx context.Context, tenantID string, form entity.TenantFormData) error {
	s.form = form
	s.machine.SetTenantID(tenantID)
	if err := s.cache.SaveTenantID(ctx, tenantID); err != nil {
		return err
	}
	return s.cache.SaveFormData(ctx, &form)
}

// SelectPlan switches the session to a plan. Changing plans resets branches
// to the plan's included count and reseeds the selection list with the plan's
// bundled addons.
func (s *Session) SelectPlan(ctx context.Context, plan *entity.Plan, cycle entity.BillingCycle) error {
	if plan == nil {
		return ErrNoPlanSelected
	}
	if !cycle.Valid() {
		return ErrInvalidBillingCycle
	}

	planChanged := s.plan == nil || s.plan.ID != plan.ID
	s.plan = plan
	s.cycle = cycle
	if planChanged {
		s.registry = NewBranchRegistry(plan.IncludedBranchesCount)
		s.addons = NewAddonSelectionManager()
		s.selectIncludedAddons()
	}
	return s.persist(ctx)
}

// selectIncludedAddons seeds bundled addons so they appear in the selection
// list; they contribute zero to totals.
func (s *Session) selectIncludedAddons() {
	for _, tpl := range s.plan.Addons {
		if !tpl.IsIncluded {
			continue
		}
		var branchSelections []entity.BranchSelection
		if tpl.PricingScope == entity.PricingScopeBranch {
			for _, b := range s.registry.Branches() {
				branchSelections = append(branchSelections, entity.BranchSelection{
					BranchIndex: b.Index,
					BranchName:  b.Name,
					Selected:    true,
				})
			}
		}
		_, _ = s.addons.Select(tpl, branchSelections, s.registry)
	}
}

func (s *Session) SetBillingCycle(ctx context.Context, cycle entity.BillingCycle) error {
	if !cycle.Valid() {
		return ErrInvalidBillingCycle
	}
	s.cycle = cycle
	return s.persist(ctx)
}

func (s *Session) SetBranchCount(ctx context.Context, n int) error {
	if err := s.registry.SetBranchCount(n); err != nil {
		return err
	}
	s.addons.SyncBranches(s.registry.Branches())
	return s.persist(ctx)
}

func (s *Session) RenameBranch(ctx context.Context, index int, name string) error {
	if err := s.registry.RenameBranch(index, name); err != nil {
		return err
	}
	s.addons.SyncBranches(s.registry.Branches())
	return s.persist(ctx)
}

func (s *Session) SelectAddon(ctx context.Context, addonID uint64, branchSelections []entity.BranchSelection) (*entity.SelectedAddon, error) {
	if s.plan == nil {
		return nil, ErrNoPlanSelected
	}
	var tpl *entity.AddonTemplate
	for _, candidate := range s.plan.Addons {
		if candidate.ID == addonID {
			tpl = candidate
			break
		}
	}
	if tpl == nil {
		return nil, ErrAddonNotInPlan
	}

	selected, err := s.addons.Select(tpl, branchSelections, s.registry)
	if err != nil {
		return nil, err
	}
	return selected, s.persist(ctx)
}

func (s *Session) RemoveAddon(ctx context.Context, addonID uint64) error {
	s.addons.Remove(addonID)
	return s.persist(ctx)
}

// Snapshot builds the persisted projection of the current selections.
func (s *Session) Snapshot() *entity.WizardSnapshot {
	return &entity.WizardSnapshot{
		SelectedPlan:   s.plan,
		BillingCycle:   s.cycle,
		BranchCount:    s.registry.Count(),
		Branches:       s.registry.Branches(),
		SelectedAddons: s.addons.Selections(),
	}
}

// Quote computes the price breakdown for the current selections.
func (s *Session) Quote() pricing.Quote {
	return pricing.Compute(s.plan, s.cycle, s.addons.Selections())
}

// ClearCache drops all persisted keys for this session.
func (s *Session) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

func (s *Session) persist(ctx context.Context) error {
	return s.cache.SaveSnapshot(ctx, s.Snapshot())
}
