package domain

// ============================================================
// Customer / Profile
// ============================================================

// RoleAdmin is the fixed role of the single operator profile.
const RoleAdmin = "admin"

// PaymentStatus is the billing state of the customer.
type PaymentStatus string

const (
	PaymentTrial  PaymentStatus = "trial"
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// Payment holds the billing sub-record of the profile.
type Payment struct {
	Status       PaymentStatus `json:"status"`
	BillingCycle *string       `json:"billing_cycle"`
	NextDue      *string       `json:"next_due"`
}

// CustomerProfile is the single persisted record driving all provisioning decisions.
// BusinessType and Plan stay nil until profiling (or a manual set) fills them.
type CustomerProfile struct {
	BusinessType *string `json:"business_type"`
	Plan         *int    `json:"plan"`
	Role         string  `json:"role"`
	Payment      Payment `json:"payment"`
	ClientID     string  `json:"client_id,omitempty"`
}

// Document is the on-disk shape: a single top-level "profile" key.
type Document struct {
	Profile CustomerProfile `json:"profile"`
}

// DefaultProfile returns the trial profile created on first access.
func DefaultProfile() CustomerProfile {
	return CustomerProfile{
		Role:    RoleAdmin,
		Payment: Payment{Status: PaymentTrial},
	}
}

// IsConfigured reports whether both business type and plan are set.
// Empty strings and a zero plan count as unset.
func (p *CustomerProfile) IsConfigured() bool {
	return p.BusinessType != nil && *p.BusinessType != "" &&
		p.Plan != nil && *p.Plan != 0
}

// BusinessTypeValue returns the business type or "" when unset.
func (p *CustomerProfile) BusinessTypeValue() string {
	if p.BusinessType == nil {
		return ""
	}
	return *p.BusinessType
}

// PlanValue returns the plan or 0 when unset.
func (p *CustomerProfile) PlanValue() int {
	if p.Plan == nil {
		return 0
	}
	return *p.Plan
}

// SetBusiness overwrites business type and plan.
func (p *CustomerProfile) SetBusiness(businessType string, plan int) {
	p.BusinessType = &businessType
	p.Plan = &plan
}

// PaymentBlocked reports whether payment state forbids creating stations.
func (p *CustomerProfile) PaymentBlocked() bool {
	return p.Payment.Status == PaymentUnpaid
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (p *CustomerProfile) Clone() *CustomerProfile {
	c := *p
	if p.BusinessType != nil {
		v := *p.BusinessType
		c.BusinessType = &v
	}
	if p.Plan != nil {
		v := *p.Plan
		c.Plan = &v
	}
	if p.Payment.BillingCycle != nil {
		v := *p.Payment.BillingCycle
		c.Payment.BillingCycle = &v
	}
	if p.Payment.NextDue != nil {
		v := *p.Payment.NextDue
		c.Payment.NextDue = &v
	}
	return &c
}
