package enum

// ── Group A: Billing state (mirrors Stripe, stored verbatim) ──

const (
	SubscriptionStatusActive            = "active"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusFailed            = "failed"
)

// ── Group B: Plan feature tiers (plans.features->>'type') ──

const (
	PlanFeatureEditor = "editor"
	PlanFeatureDesign = "design"
)

// ── Group C: Roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleStaff   = "STAFF"
)

// ── Group D: Configurable labels (no DB constraint) ──

const (
	ComponentKindText  = "TEXT"
	ComponentKindImage = "IMAGE"
	ComponentKindShape = "SHAPE"
	ComponentKindLogo  = "LOGO"
)

const (
	BillingIntervalMonth = "month"
	BillingIntervalYear  = "year"
)
