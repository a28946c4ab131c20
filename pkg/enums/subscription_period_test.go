package enums

import "testing"

func TestSubscriptionPeriodMonths(t *testing.T) {
	cases := map[SubscriptionPeriod]int{
		SubscriptionPeriodOneMonth:     1,
		SubscriptionPeriodThreeMonths:  3,
		SubscriptionPeriodSixMonths:    6,
		SubscriptionPeriodTwelveMonths: 12,
	}
	for period, months := range cases {
		if got := period.Months(); got != months {
			t.Fatalf("expected %s to map to %d months, got %d", period, months, got)
		}
	}
}

func TestSubscriptionPeriodMonthsUnknown(t *testing.T) {
	if got := SubscriptionPeriod("LIFETIME").Months(); got != 0 {
		t.Fatalf("unknown period should map to 0 months, got %d", got)
	}
	if got := SubscriptionPeriod("").Months(); got != 0 {
		t.Fatalf("empty period should map to 0 months, got %d", got)
	}
}

func TestParseSubscriptionPeriodNormalizesCase(t *testing.T) {
	period, err := ParseSubscriptionPeriod(" three_months ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if period != SubscriptionPeriodThreeMonths {
		t.Fatalf("expected THREE_MONTHS, got %s", period)
	}
}

func TestParseInviteStatusLegacySpelling(t *testing.T) {
	status, err := ParseInviteStatus("canceled")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != InviteStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", status)
	}
}

func TestTemplateForInviteStatus(t *testing.T) {
	cases := map[InviteStatus]EmailTemplate{
		InviteStatusCompleted: EmailTemplateInviteCompleted,
		InviteStatusSent:      EmailTemplateInviteSent,
		InviteStatusPending:   EmailTemplateInvitePending,
		InviteStatusCancelled: EmailTemplateInviteCanceled,
		InviteStatus("BOGUS"): EmailTemplateInvitePending,
	}
	for status, template := range cases {
		if got := TemplateForInviteStatus(status); got != template {
			t.Fatalf("status %s: expected template %s, got %s", status, template, got)
		}
	}
}
