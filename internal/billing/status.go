// Package billing classifies a restaurant's subscriptions into an access
// decision and talks to Stripe.
//
// Evaluate is a pure function: the same input always yields the same
// StatusInfo, and malformed or missing fields are treated as falsy rather
// than reported as errors.
package billing

import (
	"slices"
	"time"

	"github.com/menuboard/api/internal/enum"
)

// PlanFeatures is the decoded plans.features column. Only Type takes part in
// access decisions.
type PlanFeatures struct {
	Type string `json:"type"`
}

// Plan is the subset of a plan the evaluator looks at.
type Plan struct {
	Name     string       `json:"name"`
	Features PlanFeatures `json:"features"`
}

// Subscription is one subscription record as seen by the evaluator.
// A nil Plan behaves like a plan with no feature type.
type Subscription struct {
	Status         string     `json:"status"`
	IsActive       bool       `json:"is_active"`
	CanceledAt     *time.Time `json:"canceled_at"`
	CancelAt       *time.Time `json:"cancel_at"`
	TrialActivated bool       `json:"trial_activated"`
	TrialEndDate   *time.Time `json:"trial_end_date"`
	Plan           *Plan      `json:"plan"`
}

// FeatureType returns plan.features.type, or "" when the plan is missing.
func (s Subscription) FeatureType() string {
	if s.Plan == nil {
		return ""
	}
	return s.Plan.Features.Type
}

// EvaluateOptions carries the caller-side inputs to Evaluate.
type EvaluateOptions struct {
	// IsPrivilegedRole short-circuits to full access.
	IsPrivilegedRole bool
	// RestaurantOverride accepts an active subscription of any plan type.
	RestaurantOverride bool
}

// StatusInfo is the access decision derived from a set of subscriptions.
type StatusInfo struct {
	IsActive          bool `json:"is_active"`
	IsTrialing        bool `json:"is_trialing"`
	IsCanceled        bool `json:"is_canceled"`
	IsPastDue         bool `json:"is_past_due"`
	HasPaymentIssues  bool `json:"has_payment_issues"`
	ShouldShowBanner  bool `json:"should_show_banner"`
	CanAccessFeatures bool `json:"can_access_features"`
}

// IsActiveSubscription: is_active, status active or trialing, and no
// cancellation timestamp of either kind.
func IsActiveSubscription(s Subscription) bool {
	if !s.IsActive {
		return false
	}
	if s.Status != enum.SubscriptionStatusActive && s.Status != enum.SubscriptionStatusTrialing {
		return false
	}
	return s.CanceledAt == nil && s.CancelAt == nil
}

// IsTrialingSubscription: status trialing with an activated trial that has
// an end date.
func IsTrialingSubscription(s Subscription) bool {
	return s.Status == enum.SubscriptionStatusTrialing && s.TrialActivated && s.TrialEndDate != nil
}

// IsCanceledSubscription: status canceled or any cancellation timestamp set.
func IsCanceledSubscription(s Subscription) bool {
	return s.Status == enum.SubscriptionStatusCanceled || s.CanceledAt != nil || s.CancelAt != nil
}

// HasPaymentIssue reports a billing failure status.
func HasPaymentIssue(s Subscription) bool {
	switch s.Status {
	case enum.SubscriptionStatusPastDue,
		enum.SubscriptionStatusIncomplete,
		enum.SubscriptionStatusIncompleteExpired,
		enum.SubscriptionStatusFailed,
		enum.SubscriptionStatusUnpaid:
		return true
	}
	return false
}

// IsPendingCancellation: still active and paid for, but scheduled to end.
func IsPendingCancellation(s Subscription) bool {
	return s.Status == enum.SubscriptionStatusActive && s.IsActive && (s.CancelAt != nil || s.CanceledAt != nil)
}

// Evaluate reduces a list of subscriptions to a StatusInfo.
//
// Each flag is an existence test over the editor-plan subscriptions: one
// active record grants access no matter how many canceled or failed records
// sit next to it. Records are not ranked by recency.
func Evaluate(subs []Subscription, opts EvaluateOptions) StatusInfo {
	if opts.IsPrivilegedRole {
		return StatusInfo{IsActive: true, CanAccessFeatures: true}
	}

	editor := make([]Subscription, 0, len(subs))
	for _, s := range subs {
		if s.FeatureType() == enum.PlanFeatureEditor {
			editor = append(editor, s)
		}
	}

	info := StatusInfo{
		IsActive:         slices.ContainsFunc(editor, IsActiveSubscription),
		IsTrialing:       slices.ContainsFunc(editor, IsTrialingSubscription),
		IsCanceled:       slices.ContainsFunc(editor, IsCanceledSubscription),
		IsPastDue:        slices.ContainsFunc(editor, isPastDue),
		HasPaymentIssues: slices.ContainsFunc(editor, HasPaymentIssue),
	}

	if opts.RestaurantOverride && slices.ContainsFunc(subs, IsActiveSubscription) {
		info.IsActive = true
	}

	info.CanAccessFeatures = info.IsActive || info.IsTrialing
	info.ShouldShowBanner = !info.CanAccessFeatures
	return info
}

func isPastDue(s Subscription) bool {
	return s.Status == enum.SubscriptionStatusPastDue
}
