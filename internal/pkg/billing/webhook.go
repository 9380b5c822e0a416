package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JulianBeck/CastDeck/app/models"
)

// Service applies inbound Stripe webhook events to local subscription
// state. Both the payment client configuration and the repository are
// injected so transaction boundaries stay explicit and the reconciliation
// logic is testable without a live provider.
type Service struct {
	repo          Repository
	webhookSecret string
	now           func() time.Time
}

// NewService creates the webhook processing service.
func NewService(repo Repository, webhookSecret string) *Service {
	return &Service{
		repo:          repo,
		webhookSecret: webhookSecret,
		now:           time.Now,
	}
}

// WebhookOutcome describes what processing an event did. The JSON shape is
// the acknowledgement body; it is informational only.
type WebhookOutcome struct {
	Received   bool   `json:"received"`
	Idempotent bool   `json:"idempotent,omitempty"`
	Ignored    bool   `json:"ignored,omitempty"`
	Gift       bool   `json:"gift,omitempty"`
	EventID    string `json:"-"`
	EventType  string `json:"-"`
	// UserID is the user whose entitlement may have changed, for cache
	// invalidation. Zero when the event touched nobody.
	UserID uint `json:"-"`
}

// ProcessWebhook runs one inbound delivery through
// verify -> dedupe -> apply. The ledger insert and all side effects share a
// single transaction: a failure rolls back everything including the ledger
// row, so the provider's redelivery re-enters with identical effect, while
// a committed ledger row short-circuits any redelivery to an idempotent
// acknowledgement.
func (s *Service) ProcessWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookOutcome, error) {
	if !VerifyStripeWebhookSignature(payload, signatureHeader, s.webhookSecret) {
		return nil, ErrVerification
	}

	event, err := ParseWebhookEvent(payload)
	if err != nil {
		return nil, err
	}

	outcome := &WebhookOutcome{
		Received:  true,
		EventID:   event.ID,
		EventType: event.Type,
	}

	// Fast path for redeliveries; the unique ledger insert inside the
	// transaction still catches concurrent duplicates racing this check.
	processed, err := s.repo.HasProcessedEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if processed {
		outcome.Idempotent = true
		return outcome, nil
	}

	if !IsRecognizedEventType(event.Type) {
		// Acknowledged without a ledger row so a later release that handles
		// this type can still process a redelivery.
		outcome.Ignored = true
		return outcome, nil
	}

	err = s.repo.WithinTransaction(ctx, func(tx Repository) error {
		created, txErr := tx.CreateProcessedEvent(ctx, &models.ProcessedWebhookEvent{
			EventID:   event.ID,
			EventType: event.Type,
		})
		if txErr != nil {
			return txErr
		}
		if !created {
			outcome.Idempotent = true
			return nil
		}
		return s.applyEvent(ctx, tx, event, outcome)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *Service) applyEvent(ctx context.Context, tx Repository, event *WebhookEvent, outcome *WebhookOutcome) error {
	switch event.Type {
	case EventCheckoutSessionCompleted:
		return s.applyCheckoutCompleted(ctx, tx, event, outcome)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return s.applySubscriptionSync(ctx, tx, event, outcome)
	case EventSubscriptionDeleted:
		return s.applySubscriptionDeleted(ctx, tx, event, outcome)
	case EventCustomerDeleted:
		return s.applyCustomerDeleted(ctx, tx, event, outcome)
	case EventInvoicePaymentSucceeded:
		return s.applyPaymentSucceeded(ctx, tx, event, outcome)
	case EventInvoicePaymentFailed:
		return s.applyPaymentFailed(ctx, tx, event, outcome)
	case EventChargeSucceeded:
		// One-time charges reach subscription state via their checkout
		// session; the charge itself is ledger-only.
		return nil
	default:
		return fmt.Errorf("%w: unexpected event type %q", ErrValidation, event.Type)
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, tx Repository, event *WebhookEvent, outcome *WebhookOutcome) error {
	var session CheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return fmt.Errorf("%w: checkout session: %v", ErrValidation, err)
	}

	if IsGiftCheckout(session.Metadata) {
		req, err := ParseGiftRequest(session.Metadata)
		if err != nil {
			return err
		}
		grant, err := s.grantGift(ctx, tx, req, s.now())
		if err != nil {
			return err
		}
		outcome.Gift = true
		outcome.UserID = grant.Subscription.UserID
		return nil
	}

	userID, err := parseLocalUserID(session.ClientReferenceID)
	if err != nil {
		return err
	}
	user, err := tx.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: checkout user %d", ErrReferential, userID)
	}

	sub, err := s.findDirectSubscription(ctx, tx, session.Subscription, user.ID)
	if err != nil {
		return err
	}
	if sub == nil {
		sub = &models.Subscription{UserID: user.ID}
	}
	sub.Tier = models.SubscriptionTierPro
	sub.Status = models.SubscriptionStatusActive
	sub.StripeCustomerID = session.Customer
	sub.StripeSubscriptionID = session.Subscription
	if strings.EqualFold(session.Metadata["transactionType"], models.TransactionTypeLifetime) {
		sub.TransactionType = models.TransactionTypeLifetime
		sub.CurrentPeriodEnd = nil
	} else {
		sub.TransactionType = models.TransactionTypeRecurring
	}
	if len(session.Metadata) > 0 {
		raw, err := json.Marshal(session.Metadata)
		if err == nil {
			sub.MetadataJSON = string(raw)
		}
	}
	if err := tx.SaveSubscription(ctx, sub); err != nil {
		return err
	}
	outcome.UserID = user.ID
	return nil
}

func (s *Service) applySubscriptionSync(ctx context.Context, tx Repository, event *WebhookEvent, outcome *WebhookOutcome) error {
	var stripeSub StripeSubscription
	if err := json.Unmarshal(event.Data.Object, &stripeSub); err != nil {
		return fmt.Errorf("%w: subscription object: %v", ErrValidation, err)
	}
	if strings.TrimSpace(stripeSub.ID) == "" {
		return fmt.Errorf("%w: subscription id is missing", ErrValidation)
	}

	sub, err := s.findDirectSubscription(ctx, tx, stripeSub.ID, 0)
	if err != nil {
		return err
	}
	if sub == nil {
		sub, err = s.findDirectByCustomer(ctx, tx, stripeSub.Customer)
		if err != nil {
			return err
		}
	}
	if sub == nil {
		// Likely arrived before the checkout event; roll back and let the
		// provider retry once the row exists.
		return fmt.Errorf("%w: no local subscription for %s", ErrReferential, stripeSub.ID)
	}

	sub.Status = StripeStatusToSubscriptionStatus(stripeSub.Status)
	sub.CancelAtPeriodEnd = stripeSub.CancelAtPeriodEnd
	sub.StripeSubscriptionID = stripeSub.ID
	if stripeSub.Customer != "" {
		sub.StripeCustomerID = stripeSub.Customer
	}
	if priceID := stripeSub.PriceID(); priceID != "" {
		sub.StripePriceID = priceID
	}
	if !sub.IsLifetime() {
		sub.CurrentPeriodEnd = stripeSub.PeriodEnd()
	}
	if err := tx.SaveSubscription(ctx, sub); err != nil {
		return err
	}
	outcome.UserID = sub.UserID
	return nil
}

func (s *Service) applySubscriptionDeleted(ctx context.Context, tx Repository, event *WebhookEvent, outcome *WebhookOutcome) error {
	var stripeSub StripeSubscription
	if err := json.Unmarshal(event.Data.Object, &stripeSub); err != nil {
		return fmt.Errorf("%w: subscription object: %v", ErrValidation, err)
	}

	sub, err := tx.GetSubscriptionByStripeID(ctx, stripeSub.ID)
	if err != nil {
		return err
	}
	if sub == nil {
		// Nothing local to cancel; acknowledging avoids a retry loop for a
		// subscription this system never tracked.
		return nil
	}
	sub.Status = models.SubscriptionStatusCanceled
	if err := tx.SaveSubscription(ctx, sub); err != nil {
		return err
	}
	outcome.UserID = sub.UserID
	return nil
}

func (s *Service) applyCustomerDeleted(ctx context.Context, tx Repository, event *WebhookEvent, outcome *WebhookOutcome) error {
	var customer StripeCustomer
	if err := json.Unmarshal(event.Data.Object, &customer); err != nil {
		return fmt.Errorf("%w: customer object: %v", ErrValidation, err)
	}
	if strings.TrimSpace(customer.ID) == "" {
		return fmt.Errorf("%w: customer id is missing", ErrValidation)
	}

	subs, err := tx.ListSubscriptionsByStripeCustomer(ctx, customer.ID)
	if err != nil {
		return err
	}
	for i := range subs {
		subs[i].Status = models.SubscriptionStatusCanceled
		if err := tx.SaveSubscription(ctx, &subs[i]); err != nil {
			return err
		}
		outcome.UserID = subs[i].UserID
	}
	return nil
}

func (s *Service) applyPaymentSucceeded(ctx context.Context, tx Repository, event *WebhookEvent, outcome *WebhookOutcome) error {
	var invoice StripeInvoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return fmt.Errorf("%w: invoice object: %v", ErrValidation, err)
	}
	if invoice.Subscription == "" {
		// One-time invoice without a subscription, nothing to renew.
		return nil
	}

	sub, err := tx.GetSubscriptionByStripeID(ctx, invoice.Subscription)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("%w: no local subscription for invoice %s", ErrReferential, invoice.ID)
	}

	sub.Status = models.SubscriptionStatusActive
	if invoice.PeriodEnd > 0 && !sub.IsLifetime() {
		periodEnd := time.Unix(invoice.PeriodEnd, 0).UTC()
		sub.CurrentPeriodEnd = &periodEnd
	}
	if err := tx.SaveSubscription(ctx, sub); err != nil {
		return err
	}
	outcome.UserID = sub.UserID
	return nil
}

func (s *Service) applyPaymentFailed(ctx context.Context, tx Repository, event *WebhookEvent, outcome *WebhookOutcome) error {
	var invoice StripeInvoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return fmt.Errorf("%w: invoice object: %v", ErrValidation, err)
	}
	if invoice.Subscription == "" {
		return nil
	}

	sub, err := tx.GetSubscriptionByStripeID(ctx, invoice.Subscription)
	if err != nil {
		return err
	}
	if sub == nil {
		// A failed payment for an untracked subscription has no local
		// effect worth retrying for.
		return nil
	}
	sub.Status = models.SubscriptionStatusPastDue
	if err := tx.SaveSubscription(ctx, sub); err != nil {
		return err
	}
	outcome.UserID = sub.UserID
	return nil
}

// findDirectSubscription locates the user's non-gift subscription row,
// preferring an exact Stripe subscription id match.
func (s *Service) findDirectSubscription(ctx context.Context, tx Repository, stripeSubscriptionID string, userID uint) (*models.Subscription, error) {
	if stripeSubscriptionID != "" {
		sub, err := tx.GetSubscriptionByStripeID(ctx, stripeSubscriptionID)
		if err != nil || sub != nil {
			return sub, err
		}
	}
	if userID == 0 {
		return nil, nil
	}
	subs, err := tx.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if !subs[i].IsGift {
			return &subs[i], nil
		}
	}
	return nil, nil
}

func (s *Service) findDirectByCustomer(ctx context.Context, tx Repository, customerID string) (*models.Subscription, error) {
	if customerID == "" {
		return nil, nil
	}
	subs, err := tx.ListSubscriptionsByStripeCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if !subs[i].IsGift {
			return &subs[i], nil
		}
	}
	return nil, nil
}

func parseLocalUserID(raw string) (uint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: client_reference_id is missing", ErrValidation)
	}
	id, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: client_reference_id %q is not a valid user id", ErrValidation, raw)
	}
	return uint(id), nil
}
