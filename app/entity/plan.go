package entity

import "time"

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

func (c BillingCycle) Valid() bool {
	return c == BillingCycleMonthly || c == BillingCycleAnnual
}

type PricingScope string

const (
	PricingScopeOrganization PricingScope = "organization"
	PricingScopeBranch       PricingScope = "branch"
)

// Plan is the catalog entry a tenant subscribes to. Immutable once fetched;
// prices are integer cents.
type Plan struct {
	ID                    uint64           `json:"id"`
	Code                  string           `json:"code"`
	Name                  string           `json:"name"`
	MonthlyPriceCents     int64            `json:"monthly_price_cents"`
	IncludedBranchesCount int32            `json:"included_branches_count"`
	AnnualDiscountPercent int32            `json:"annual_discount_percent"`
	Addons                []*AddonTemplate `json:"addons"`
	CreatedAt             time.Time        `json:"-"`
	UpdatedAt             time.Time        `json:"-"`
}

type AddonTemplate struct {
	ID                uint64       `json:"id"`
	PlanID            uint64       `json:"plan_id"`
	Name              string       `json:"name"`
	MonthlyPriceCents int64        `json:"monthly_price_cents"`
	PricingScope      PricingScope `json:"pricing_scope"`
	IsIncluded        bool         `json:"is_included"`
	CreatedAt         time.Time    `json:"-"`
	UpdatedAt         time.Time    `json:"-"`
}
