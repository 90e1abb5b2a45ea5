package entity

// Step is one stage of the onboarding wizard.
type Step string

const (
	StepBasicInfo      Step = "basic_info"
	StepPlanSelection  Step = "plan_selection"
	StepAddonSelection Step = "addon_selection"
	StepPlanSummary    Step = "plan_summary"
	StepPayment        Step = "payment"
	StepPaymentFailed  Step = "payment_failed"
	StepSuccess        Step = "success"
)

// Branch is one branch slot of the tenant-to-be. Indices are 0-based and
// contiguous within the current branch count.
type Branch struct {
	Index          int    `json:"index"`
	Name           string `json:"name"`
	IncludedInPlan bool   `json:"included_in_plan"`
}

// BranchSelection marks whether a branch-scoped addon applies to one branch.
type BranchSelection struct {
	BranchIndex int    `json:"branch_index"`
	BranchName  string `json:"branch_name"`
	Selected    bool   `json:"selected"`
}

// SelectedAddon is one chosen addon. Branches is nil for organization-scoped
// addons and always a subset of the registry's current indices otherwise.
type SelectedAddon struct {
	AddonID           uint64            `json:"addon_id"`
	Name              string            `json:"name"`
	MonthlyPriceCents int64             `json:"monthly_price_cents"`
	PricingScope      PricingScope      `json:"pricing_scope"`
	IsIncluded        bool              `json:"is_included"`
	Branches          []BranchSelection `json:"branches,omitempty"`
}

// WizardSnapshot is the persisted projection of a wizard session: selections
// only, never step progress (progress is reconstructed from the tenant status
// endpoint on resume).
type WizardSnapshot struct {
	SelectedPlan   *Plan            `json:"selected_plan"`
	BillingCycle   BillingCycle     `json:"billing_cycle"`
	BranchCount    int              `json:"branch_count"`
	Branches       []Branch         `json:"branches"`
	SelectedAddons []*SelectedAddon `json:"selected_addons"`
}

// TenantFormData holds the basic-info step's contact and address fields.
type TenantFormData struct {
	CompanyName string `json:"company_name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	Country     string `json:"country"`
	PostalCode  string `json:"postal_code"`
}

// PaymentFailure carries the human-readable message and machine code of a
// declined payment.
type PaymentFailure struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// OnboardingState is the in-memory wizard progress for one session.
type OnboardingState struct {
	CurrentStep        Step
	CompletedSteps     map[Step]bool
	TenantID           *string
	LastPaymentFailure *PaymentFailure
}
