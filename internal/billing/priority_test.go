package billing

import (
	"testing"
	"time"

	"github.com/menuboard/api/internal/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayStatus(t *testing.T) {
	cancelAt := time.Now().Add(48 * time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want string
	}{
		{"active", Subscription{Status: enum.SubscriptionStatusActive, IsActive: true}, DisplayActive},
		{"trialing", Subscription{Status: enum.SubscriptionStatusTrialing, IsActive: true}, DisplayTrialing},
		{"pending cancellation", Subscription{Status: enum.SubscriptionStatusActive, IsActive: true, CancelAt: &cancelAt}, DisplayPendingCancellation},
		{"active but deactivated after cancel", Subscription{Status: enum.SubscriptionStatusActive, CancelAt: &cancelAt}, DisplayCanceled},
		{"incomplete expired", Subscription{Status: enum.SubscriptionStatusIncompleteExpired}, DisplayPaymentFailed},
		{"past due", Subscription{Status: enum.SubscriptionStatusPastDue}, DisplayPastDue},
		{"unpaid", Subscription{Status: enum.SubscriptionStatusUnpaid}, DisplayUnpaid},
		{"canceled", Subscription{Status: enum.SubscriptionStatusCanceled}, DisplayCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayStatus(tt.sub))
		})
	}
}

func TestPriorityOrder(t *testing.T) {
	ordered := []string{
		DisplayActive, DisplayTrialing, DisplayPaymentFailed, DisplayPastDue,
		DisplayFailed, DisplayPendingCancellation, DisplayCanceled,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, Priority(ordered[i-1]), Priority(ordered[i]), "%s before %s", ordered[i-1], ordered[i])
	}

	assert.Equal(t, Priority(DisplayFailed), Priority(DisplayIncomplete))
	assert.Equal(t, Priority(DisplayFailed), Priority(DisplayUnpaid))
	assert.Greater(t, Priority("something_new"), Priority(DisplayCanceled))
}

func TestSortForDisplay(t *testing.T) {
	cancelAt := time.Now().Add(48 * time.Hour)
	subs := []Subscription{
		{Status: enum.SubscriptionStatusCanceled, Plan: &Plan{Name: "old"}},
		{Status: enum.SubscriptionStatusActive, IsActive: true, CancelAt: &cancelAt, Plan: &Plan{Name: "ending"}},
		{Status: enum.SubscriptionStatusUnpaid, Plan: &Plan{Name: "unpaid"}},
		{Status: enum.SubscriptionStatusActive, IsActive: true, Plan: &Plan{Name: "current"}},
		{Status: enum.SubscriptionStatusIncomplete, Plan: &Plan{Name: "incomplete"}},
		{Status: enum.SubscriptionStatusTrialing, IsActive: true, Plan: &Plan{Name: "trial"}},
	}

	SortForDisplay(subs)

	var names []string
	for _, s := range subs {
		require.NotNil(t, s.Plan)
		names = append(names, s.Plan.Name)
	}
	// unpaid and incomplete share a rank and keep their input order.
	assert.Equal(t, []string{"current", "trial", "unpaid", "incomplete", "ending", "old"}, names)
}
