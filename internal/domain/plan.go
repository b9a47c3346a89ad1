package domain

// Plan tiers sold to customers, expressed as the monthly price.
const (
	PlanBase     = 29
	PlanPlus     = 69
	PlanBusiness = 159
)

// PlanQuota returns how many stations a plan may own.
// Unknown or unset plans get zero, which refuses provisioning.
func PlanQuota(plan *int) int {
	if plan == nil {
		return 0
	}
	switch *plan {
	case PlanBase:
		return 1
	case PlanPlus:
		return 1
	case PlanBusiness:
		return 5
	default:
		return 0
	}
}
