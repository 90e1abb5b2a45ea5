package mapper

import (
	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
	"github.com/vibast-solutions/ms-go-onboarding/app/pricing"
	"github.com/vibast-solutions/ms-go-onboarding/app/types"
	"github.com/vibast-solutions/ms-go-onboarding/app/wizard"
)

func PlanToPayload(item *entity.Plan) *types.PlanPayload {
	if item == nil {
		return nil
	}

	payload := &types.PlanPayload{
		ID:                    item.ID,
		Code:                  item.Code,
		Name:                  item.Name,
		MonthlyPriceCents:     item.MonthlyPriceCents,
		AnnualUnitPriceCents:  pricing.UnitPriceCents(item.MonthlyPriceCents, entity.BillingCycleAnnual, item.AnnualDiscountPercent),
		IncludedBranchesCount: item.IncludedBranchesCount,
		AnnualDiscountPercent: item.AnnualDiscountPercent,
		Addons:                make([]*types.AddonTemplatePayload, 0, len(item.Addons)),
	}
	for _, addon := range item.Addons {
		payload.Addons = append(payload.Addons, &types.AddonTemplatePayload{
			ID:                   addon.ID,
			Name:                 addon.Name,
			MonthlyPriceCents:    addon.MonthlyPriceCents,
			AnnualUnitPriceCents: pricing.UnitPriceCents(addon.MonthlyPriceCents, entity.BillingCycleAnnual, item.AnnualDiscountPercent),
			PricingScope:         string(addon.PricingScope),
			IsIncluded:           addon.IsIncluded,
		})
	}
	return payload
}

func PlansToPayload(items []*entity.Plan) []*types.PlanPayload {
	result := make([]*types.PlanPayload, 0, len(items))
	for _, item := range items {
		result = append(result, PlanToPayload(item))
	}
	return result
}

func QuoteToPayload(quote pricing.Quote, cycle entity.BillingCycle) *types.PricingPayload {
	return &types.PricingPayload{
		BillingCycle:                 string(cycle),
		PlanTotalCents:               quote.PlanTotalCents,
		OrganizationAddonsTotalCents: quote.OrganizationAddonsTotalCents,
		BranchAddonsTotalCents:       quote.BranchAddonsTotalCents,
		GrandTotalCents:              quote.GrandTotalCents,
	}
}

func branchesToPayload(items []entity.Branch) []*types.BranchPayload {
	result := make([]*types.BranchPayload, 0, len(items))
	for _, item := range items {
		result = append(result, &types.BranchPayload{
			Index:          item.Index,
			Name:           item.Name,
			IncludedInPlan: item.IncludedInPlan,
		})
	}
	return result
}

func selectedAddonsToPayload(items []*entity.SelectedAddon, plan *entity.Plan, cycle entity.BillingCycle) []*types.SelectedAddonPayload {
	discount := int32(0)
	if plan != nil {
		discount = plan.AnnualDiscountPercent
	}

	result := make([]*types.SelectedAddonPayload, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payload := &types.SelectedAddonPayload{
			AddonID:           item.AddonID,
			Name:              item.Name,
			MonthlyPriceCents: item.MonthlyPriceCents,
			DisplayPriceCents: pricing.AddonDisplayPriceCents(item, cycle, discount),
			PricingScope:      string(item.PricingScope),
			IsIncluded:        item.IsIncluded,
		}
		for _, branch := range item.Branches {
			payload.Branches = append(payload.Branches, types.BranchSelectionPayload{
				Index:    branch.BranchIndex,
				Selected: branch.Selected,
			})
		}
		result = append(result, payload)
	}
	return result
}

// SessionToResponse renders the full wizard state. The caller holds the
// session lock.
func SessionToResponse(session *wizard.Session) *types.SessionStateResponse {
	machine := session.Machine()
	form := session.FormData()

	response := &types.SessionStateResponse{
		SessionID:      session.ID,
		CurrentStep:    string(machine.CurrentStep()),
		CompletedSteps: stepsToStrings(machine.CompletedSteps()),
		Plan:           PlanToPayload(session.Plan()),
		BillingCycle:   string(session.BillingCycle()),
		Branches:       branchesToPayload(session.Registry().Branches()),
		SelectedAddons: selectedAddonsToPayload(session.Addons().Selections(), session.Plan(), session.BillingCycle()),
		Form:           &form,
	}
	if tenantID := machine.TenantID(); tenantID != nil {
		response.TenantID = *tenantID
	}
	if failure := machine.LastPaymentFailure(); failure != nil {
		response.LastPaymentFailure = &types.PaymentFailurePayload{
			Message: failure.Message,
			Code:    failure.Code,
		}
	}
	if session.Plan() != nil {
		response.Pricing = QuoteToPayload(session.Quote(), session.BillingCycle())
	}
	return response
}

func stepsToStrings(steps []entity.Step) []string {
	result := make([]string, 0, len(steps))
	for _, step := range steps {
		result = append(result, string(step))
	}
	return result
}
