package wizard

import "github.com/vibast-solutions/ms-go-onboarding/app/entity"

// AddonSelectionManager owns the set of selected addons. At most one entry
// exists per addon ID; organization-scoped selections never carry a branch
// list, and branch-scoped selections only reference indices the registry
// currently has.
type AddonSelectionManager struct {
	selections []*entity.SelectedAddon
}

func NewAddonSelectionManager() *AddonSelectionManager {
	return &AddonSelectionManager{}
}

// Select stores (or replaces, whole-list semantics) the selection for one
// addon template. Branch-scoped addons require a branch-selection list;
// entries referencing unknown indices are trimmed, and branch names are
// normalized from the registry.
func (m *AddonSelectionManager) Select(tpl *entity.AddonTemplate, branchSelections []entity.BranchSelection, registry *BranchRegistry) (*entity.SelectedAddon, error) {
	selected := &entity.SelectedAddon{
		AddonID:           tpl.ID,
		Name:              tpl.Name,
		MonthlyPriceCents: tpl.MonthlyPriceCents,
		PricingScope:      tpl.PricingScope,
		IsIncluded:        tpl.IsIncluded,
	}

	if tpl.PricingScope == entity.PricingScopeBranch {
		if len(branchSelections) == 0 {
			return nil, ErrBranchSelectionRequired
		}
		branches := registry.Branches()
		for _, sel := range branchSelections {
			if sel.BranchIndex < 0 || sel.BranchIndex >= len(branches) {
				continue
			}
			sel.BranchName = branches[sel.BranchIndex].Name
			selected.Branches = append(selected.Branches, sel)
		}
	}

	for i, existing := range m.selections {
		if existing.AddonID == tpl.ID {
			m.selections[i] = selected
			return selected, nil
		}
	}
	m.selections = append(m.selections, selected)
	return selected, nil
}

// Remove deletes the addon entirely. Removing an unselected addon is a no-op.
func (m *AddonSelectionManager) Remove(addonID uint64) {
	for i, existing := range m.selections {
		if existing.AddonID == addonID {
			m.selections = append(m.selections[:i], m.selections[i+1:]...)
			return
		}
	}
}

func (m *AddonSelectionManager) IsSelected(addonID uint64) bool {
	return m.Selection(addonID) != nil
}

func (m *AddonSelectionManager) Selection(addonID uint64) *entity.SelectedAddon {
	for _, existing := range m.selections {
		if existing.AddonID == addonID {
			return existing
		}
	}
	return nil
}

// Selections returns the ordered selection list as a copy of the slice.
func (m *AddonSelectionManager) Selections() []*entity.SelectedAddon {
	out := make([]*entity.SelectedAddon, len(m.selections))
	copy(out, m.selections)
	return out
}

// SyncBranches drops branch references that no longer exist and refreshes
// branch names after a registry mutation.
func (m *AddonSelectionManager) SyncBranches(branches []entity.Branch) {
	for _, sel := range m.selections {
		if sel.PricingScope != entity.PricingScopeBranch {
			continue
		}
		kept := sel.Branches[:0]
		for _, b := range sel.Branches {
			if b.BranchIndex < 0 || b.BranchIndex >= len(branches) {
				continue
			}
			b.BranchName = branches[b.BranchIndex].Name
			kept = append(kept, b)
		}
		sel.Branches = kept
	}
}

// SetSelections restores the list from a persisted snapshot, keeping the
// first entry per addon ID.
func (m *AddonSelectionManager) SetSelections(selections []*entity.SelectedAddon) {
	m.selections = m.selections[:0]
	seen := make(map[uint64]bool, len(selections))
	for _, sel := range selections {
		if sel == nil || seen[sel.AddonID] {
			continue
		}
		seen[sel.AddonID] = true
		if sel.PricingScope != entity.PricingScopeBranch {
			sel.Branches = nil
		}
		m.selections = append(m.selections, sel)
	}
}
