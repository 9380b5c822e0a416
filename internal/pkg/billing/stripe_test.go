package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/JulianBeck/CastDeck/app/models"
)

func TestParseWebhookEvent(t *testing.T) {
	event, err := ParseWebhookEvent([]byte(`{"id":"evt_1","type":"charge.succeeded","data":{"object":{"id":"ch_1"}}}`))
	if err != nil {
		t.Fatalf("ParseWebhookEvent returned error: %v", err)
	}
	if event.ID != "evt_1" || event.Type != "charge.succeeded" {
		t.Fatalf("unexpected envelope: %+v", event)
	}
	if len(event.Data.Object) == 0 {
		t.Fatalf("expected raw object payload to be kept")
	}
}

func TestParseWebhookEvent_Invalid(t *testing.T) {
	payloads := [][]byte{
		[]byte(`not json`),
		[]byte(`{"type":"charge.succeeded"}`),
		[]byte(`{"id":"evt_1"}`),
		[]byte(`{"id":"  ","type":"charge.succeeded"}`),
	}
	for _, payload := range payloads {
		if _, err := ParseWebhookEvent(payload); !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseWebhookEvent(%s) error = %v, want ErrValidation", payload, err)
		}
	}
}

func TestIsRecognizedEventType(t *testing.T) {
	for _, eventType := range []string{
		EventCheckoutSessionCompleted,
		EventSubscriptionCreated,
		EventSubscriptionUpdated,
		EventSubscriptionDeleted,
		EventCustomerDeleted,
		EventInvoicePaymentSucceeded,
		EventInvoicePaymentFailed,
		EventChargeSucceeded,
	} {
		if !IsRecognizedEventType(eventType) {
			t.Fatalf("expected %q to be recognized", eventType)
		}
	}
	for _, eventType := range []string{"payout.paid", "customer.created", ""} {
		if IsRecognizedEventType(eventType) {
			t.Fatalf("expected %q to be unrecognized", eventType)
		}
	}
}

func TestIsGiftCheckout(t *testing.T) {
	if !IsGiftCheckout(map[string]string{"isGift": "true"}) {
		t.Fatalf("expected isGift=true to mark a gift")
	}
	if !IsGiftCheckout(map[string]string{"isGift": " TRUE "}) {
		t.Fatalf("expected case and whitespace to be ignored")
	}
	if IsGiftCheckout(map[string]string{"isGift": "false"}) || IsGiftCheckout(nil) {
		t.Fatalf("expected non-gift metadata to not mark a gift")
	}
}

func TestParseGiftRequest(t *testing.T) {
	req, err := ParseGiftRequest(map[string]string{
		"recipientUserId": "42",
		"giftDuration":    "monthly",
		"giftQuantity":    "3",
		"giftSenderName":  "StreamFan99",
		"giftMessage":     "enjoy!",
	})
	if err != nil {
		t.Fatalf("ParseGiftRequest returned error: %v", err)
	}
	if req.RecipientUserID != 42 || req.GiftType != models.GiftTypeMonthly || req.GiftQuantity != 3 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.SenderName != "StreamFan99" || req.GiftMessage != "enjoy!" {
		t.Fatalf("unexpected sender fields: %+v", req)
	}
}

func TestParseGiftRequest_Defaults(t *testing.T) {
	req, err := ParseGiftRequest(map[string]string{
		"recipientUserId": "42",
		"giftDuration":    "annual",
	})
	if err != nil {
		t.Fatalf("ParseGiftRequest returned error: %v", err)
	}
	if req.GiftQuantity != 1 {
		t.Fatalf("missing quantity should default to 1, got %d", req.GiftQuantity)
	}
}

func TestParseGiftRequest_LifetimeNormalizesQuantity(t *testing.T) {
	req, err := ParseGiftRequest(map[string]string{
		"recipientUserId": "42",
		"giftDuration":    "lifetime",
		"giftQuantity":    "5",
	})
	if err != nil {
		t.Fatalf("ParseGiftRequest returned error: %v", err)
	}
	if req.GiftQuantity != 1 {
		t.Fatalf("lifetime quantity should normalize to 1, got %d", req.GiftQuantity)
	}
}

func TestParseGiftRequest_Invalid(t *testing.T) {
	tests := []map[string]string{
		{"giftDuration": "monthly"},
		{"recipientUserId": "0", "giftDuration": "monthly"},
		{"recipientUserId": "abc", "giftDuration": "monthly"},
		{"recipientUserId": "42", "giftDuration": "weekly"},
		{"recipientUserId": "42"},
		{"recipientUserId": "42", "giftDuration": "monthly", "giftQuantity": "zero"},
		{"recipientUserId": "42", "giftDuration": "monthly", "giftQuantity": "0"},
	}
	for _, metadata := range tests {
		if _, err := ParseGiftRequest(metadata); !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseGiftRequest(%v) error = %v, want ErrValidation", metadata, err)
		}
	}
}

func TestStripeStatusToSubscriptionStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "active", want: models.SubscriptionStatusActive},
		{in: "trialing", want: models.SubscriptionStatusTrialing},
		{in: "past_due", want: models.SubscriptionStatusPastDue},
		{in: "unpaid", want: models.SubscriptionStatusPastDue},
		{in: "canceled", want: models.SubscriptionStatusCanceled},
		{in: "incomplete_expired", want: models.SubscriptionStatusIncomplete},
		{in: "", want: models.SubscriptionStatusIncomplete},
	}
	for _, tt := range tests {
		if got := StripeStatusToSubscriptionStatus(tt.in); got != tt.want {
			t.Fatalf("StripeStatusToSubscriptionStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripeSubscriptionAccessors(t *testing.T) {
	var sub StripeSubscription
	if sub.PriceID() != "" {
		t.Fatalf("expected empty price id without items")
	}
	if sub.PeriodEnd() != nil {
		t.Fatalf("expected nil period end when unset")
	}

	sub.CurrentPeriodEnd = 1740000000
	sub.Items.Data = []struct {
		Price struct {
			ID string `json:"id"`
		} `json:"price"`
	}{{}}
	sub.Items.Data[0].Price.ID = "price_pro_monthly"

	if got := sub.PriceID(); got != "price_pro_monthly" {
		t.Fatalf("PriceID = %q", got)
	}
	end := sub.PeriodEnd()
	if end == nil || !end.Equal(time.Unix(1740000000, 0)) || end.Location() != time.UTC {
		t.Fatalf("PeriodEnd = %v, want UTC epoch 1740000000", end)
	}
}
