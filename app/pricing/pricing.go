package pricing

import "github.com/vibast-solutions/ms-go-onboarding/app/entity"

// Quote is the price breakdown for one set of wizard selections. All amounts
// are integer cents for the selected billing cycle.
type Quote struct {
	PlanTotalCents               int64
	OrganizationAddonsTotalCents int64
	BranchAddonsTotalCents       int64
	GrandTotalCents              int64
}

// UnitPriceCents converts a monthly amount to the unit price for the given
// billing cycle. Annual amounts are floor(m * 12 * (1 - d/100)); monthly
// amounts pass through unchanged. Discounts outside [0,100] are clamped.
func UnitPriceCents(monthlyCents int64, cycle entity.BillingCycle, discountPercent int32) int64 {
	if monthlyCents <= 0 {
		return 0
	}
	if cycle != entity.BillingCycleAnnual {
		return monthlyCents
	}
	d := int64(discountPercent)
	if d < 0 {
		d = 0
	}
	if d > 100 {
		d = 100
	}
	return monthlyCents * 12 * (100 - d) / 100
}

// AddonMonthlyCents is the monthly contribution of one selected addon.
// Included addons contribute nothing. Branch-scoped addons are priced per
// branch they are applied to.
func AddonMonthlyCents(addon *entity.SelectedAddon) int64 {
	if addon == nil || addon.IsIncluded || addon.MonthlyPriceCents <= 0 {
		return 0
	}
	if addon.PricingScope != entity.PricingScopeBranch {
		return addon.MonthlyPriceCents
	}
	applied := int64(0)
	for _, b := range addon.Branches {
		if b.Selected {
			applied++
		}
	}
	return addon.MonthlyPriceCents * applied
}

// AddonDisplayPriceCents is the single-addon display figure for the given
// cycle, using the same annualization rule as the totals.
func AddonDisplayPriceCents(addon *entity.SelectedAddon, cycle entity.BillingCycle, discountPercent int32) int64 {
	return UnitPriceCents(AddonMonthlyCents(addon), cycle, discountPercent)
}

// Compute derives the full quote for a plan, billing cycle and addon
// selection. A nil plan or invalid cycle yields an all-zero quote. Addon
// partitions are summed monthly first and annualized on the summed total,
// not per addon.
func Compute(plan *entity.Plan, cycle entity.BillingCycle, addons []*entity.SelectedAddon) Quote {
	if plan == nil || !cycle.Valid() {
		return Quote{}
	}

	discount := plan.AnnualDiscountPercent
	planTotal := UnitPriceCents(plan.MonthlyPriceCents, cycle, discount) * int64(plan.IncludedBranchesCount)

	var orgMonthly, branchMonthly int64
	for _, addon := range addons {
		if addon == nil {
			continue
		}
		if addon.PricingScope == entity.PricingScopeBranch {
			branchMonthly += AddonMonthlyCents(addon)
		} else {
			orgMonthly += AddonMonthlyCents(addon)
		}
	}

	orgTotal := UnitPriceCents(orgMonthly, cycle, discount)
	branchTotal := UnitPriceCents(branchMonthly, cycle, discount)

	return Quote{
		PlanTotalCents:               planTotal,
		OrganizationAddonsTotalCents: orgTotal,
		BranchAddonsTotalCents:       branchTotal,
		GrandTotalCents:              planTotal + orgTotal + branchTotal,
	}
}
