package billing

import (
	"slices"

	"github.com/menuboard/api/internal/enum"
)

// Display statuses decide which subscription card renders first. They have
// no bearing on access.
const (
	DisplayActive              = "active"
	DisplayTrialing            = "trialing"
	DisplayPaymentFailed       = "payment_failed"
	DisplayPastDue             = "past_due"
	DisplayFailed              = "failed"
	DisplayIncomplete          = "incomplete"
	DisplayUnpaid              = "unpaid"
	DisplayPendingCancellation = "pending_cancellation"
	DisplayCanceled            = "canceled"
)

var displayPriority = map[string]int{
	DisplayActive:              0,
	DisplayTrialing:            1,
	DisplayPaymentFailed:       2,
	DisplayPastDue:             3,
	DisplayFailed:              4,
	DisplayIncomplete:          4,
	DisplayUnpaid:              4,
	DisplayPendingCancellation: 5,
	DisplayCanceled:            6,
}

// unknownPriority sorts unrecognized statuses after every known one.
const unknownPriority = 7

// DisplayStatus maps a subscription onto its card status.
func DisplayStatus(s Subscription) string {
	if IsPendingCancellation(s) {
		return DisplayPendingCancellation
	}
	switch s.Status {
	case enum.SubscriptionStatusIncompleteExpired:
		return DisplayPaymentFailed
	case enum.SubscriptionStatusActive:
		if s.CanceledAt != nil || s.CancelAt != nil {
			return DisplayCanceled
		}
		return DisplayActive
	}
	return s.Status
}

// Priority returns the rank of a display status; lower renders first.
func Priority(display string) int {
	if p, ok := displayPriority[display]; ok {
		return p
	}
	return unknownPriority
}

// ComparePriority orders two subscriptions by display priority.
func ComparePriority(a, b Subscription) int {
	return Priority(DisplayStatus(a)) - Priority(DisplayStatus(b))
}

// SortForDisplay sorts subs in place by display priority. Equal priorities
// keep their input order.
func SortForDisplay(subs []Subscription) {
	slices.SortStableFunc(subs, ComparePriority)
}
