package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JulianBeck/CastDeck/app/models"
)

// Event types this core applies. Everything else is acknowledged without
// effects and without a ledger row, so adding a handler later can still
// process a redelivered event.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventCustomerDeleted          = "customer.deleted"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
	EventChargeSucceeded          = "charge.succeeded"
)

// WebhookEvent is the Stripe event envelope. The object payload stays raw
// until the type switch decides how to decode it.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseWebhookEvent decodes the envelope and rejects events without the
// provider-assigned id the idempotency ledger keys on.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, fmt.Errorf("%w: event id is missing", ErrValidation)
	}
	if strings.TrimSpace(event.Type) == "" {
		return nil, fmt.Errorf("%w: event type is missing", ErrValidation)
	}
	return &event, nil
}

// IsRecognizedEventType reports whether this core has a handler for the
// given event type.
func IsRecognizedEventType(eventType string) bool {
	switch eventType {
	case EventCheckoutSessionCompleted,
		EventSubscriptionCreated,
		EventSubscriptionUpdated,
		EventSubscriptionDeleted,
		EventCustomerDeleted,
		EventInvoicePaymentSucceeded,
		EventInvoicePaymentFailed,
		EventChargeSucceeded:
		return true
	default:
		return false
	}
}

// CheckoutSession is the subset of Stripe's checkout session object the
// webhook processor consumes. ClientReferenceID carries the local user id
// set when the checkout was created.
type CheckoutSession struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// StripeSubscription is the subset of Stripe's subscription object used for
// direct subscription sync.
type StripeSubscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

// PriceID returns the first item's price id, empty when Stripe sent none.
func (s *StripeSubscription) PriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// PeriodEnd converts the epoch period end to UTC, nil when unset.
func (s *StripeSubscription) PeriodEnd() *time.Time {
	if s.CurrentPeriodEnd == 0 {
		return nil
	}
	t := time.Unix(s.CurrentPeriodEnd, 0).UTC()
	return &t
}

// StripeInvoice is the subset of Stripe's invoice object used on payment
// events.
type StripeInvoice struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	PeriodEnd    int64  `json:"period_end"`
}

// StripeCustomer is the subset of Stripe's customer object used on
// customer.deleted.
type StripeCustomer struct {
	ID string `json:"id"`
}

// GiftRequest is the validated gift command extracted from checkout session
// metadata.
type GiftRequest struct {
	RecipientUserID uint   `validate:"required"`
	GiftType        string `validate:"required,oneof=monthly annual lifetime"`
	GiftQuantity    int    `validate:"min=1"`
	SenderName      string `validate:"max=150"`
	GiftMessage     string `validate:"max=2000"`
}

var giftValidator = validator.New()

// IsGiftCheckout reports whether checkout metadata marks a gift purchase.
func IsGiftCheckout(metadata map[string]string) bool {
	return strings.EqualFold(strings.TrimSpace(metadata["isGift"]), "true")
}

// ParseGiftRequest converts checkout metadata into a GiftRequest. All
// metadata values arrive as strings from Stripe; quantity defaults to 1
// when absent and lifetime gifts always normalize to quantity 1.
func ParseGiftRequest(metadata map[string]string) (*GiftRequest, error) {
	recipientRaw := strings.TrimSpace(metadata["recipientUserId"])
	if recipientRaw == "" {
		return nil, fmt.Errorf("%w: recipientUserId is missing", ErrValidation)
	}
	recipientID, err := strconv.ParseUint(recipientRaw, 10, 32)
	if err != nil || recipientID == 0 {
		return nil, fmt.Errorf("%w: recipientUserId %q is not a valid user id", ErrValidation, recipientRaw)
	}

	giftType := strings.ToLower(strings.TrimSpace(metadata["giftDuration"]))
	if !models.IsValidGiftType(giftType) {
		return nil, fmt.Errorf("%w: unknown gift duration %q", ErrValidation, metadata["giftDuration"])
	}

	quantity := 1
	if quantityRaw := strings.TrimSpace(metadata["giftQuantity"]); quantityRaw != "" {
		quantity, err = strconv.Atoi(quantityRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: giftQuantity %q is not a number", ErrValidation, quantityRaw)
		}
	}
	if giftType == models.GiftTypeLifetime {
		quantity = 1
	}

	req := &GiftRequest{
		RecipientUserID: uint(recipientID),
		GiftType:        giftType,
		GiftQuantity:    quantity,
		SenderName:      strings.TrimSpace(metadata["giftSenderName"]),
		GiftMessage:     strings.TrimSpace(metadata["giftMessage"]),
	}
	if err := giftValidator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, verrs)
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return req, nil
}

// StripeStatusToSubscriptionStatus maps Stripe subscription statuses onto
// the local status enum.
func StripeStatusToSubscriptionStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active":
		return models.SubscriptionStatusActive
	case "trialing":
		return models.SubscriptionStatusTrialing
	case "past_due", "unpaid":
		return models.SubscriptionStatusPastDue
	case "canceled":
		return models.SubscriptionStatusCanceled
	default:
		return models.SubscriptionStatusIncomplete
	}
}
