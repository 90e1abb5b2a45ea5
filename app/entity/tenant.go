package entity

import "time"

// TenantStatus is the tenant service's view of a tenant mid-onboarding.
type TenantStatus struct {
	TenantInfo         TenantFormData
	VerificationStatus VerificationStatus
	BasicInfoStatus    BasicInfoStatus
}

type VerificationStatus struct {
	EmailVerified   bool
	PhoneVerified   bool
	BothVerified    bool
	EmailVerifiedAt *time.Time
	PhoneVerifiedAt *time.Time
}

type BasicInfoStatus struct {
	IsComplete        bool
	ValidationErrors  []string
	ValidationMessage string
}
