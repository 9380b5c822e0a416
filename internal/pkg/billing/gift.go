package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/JulianBeck/CastDeck/app/models"
)

// GiftGrant is the result of applying one gift transaction.
type GiftGrant struct {
	Subscription *models.Subscription
	GiftDetails  *models.GiftDetails
	Notification *models.Notification
}

// GrantGift applies a gift purchase to the recipient inside its own
// transaction. The webhook path calls grantGift directly so the gift shares
// the event's transaction instead.
func (s *Service) GrantGift(ctx context.Context, req *GiftRequest, now time.Time) (*GiftGrant, error) {
	var grant *GiftGrant
	err := s.repo.WithinTransaction(ctx, func(tx Repository) error {
		var txErr error
		grant, txErr = s.grantGift(ctx, tx, req, now)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// grantGift extends or creates the recipient's gift subscription, appends
// the immutable gift record and its notification. Must run inside a
// transaction: the read-modify-write on the existing gift subscription is
// only safe under the FOR UPDATE lock the repository takes. No individual
// step retries; on rollback the provider redelivers the whole event and the
// idempotency ledger keeps committed effects from doubling.
func (s *Service) grantGift(ctx context.Context, repo Repository, req *GiftRequest, now time.Time) (*GiftGrant, error) {
	quantity := req.GiftQuantity
	if req.GiftType == models.GiftTypeLifetime {
		// Deterministic normalization, mirrored in ParseGiftRequest.
		quantity = 1
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: gift quantity must be at least 1", ErrValidation)
	}

	recipient, err := repo.GetUserByID(ctx, req.RecipientUserID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, fmt.Errorf("%w: gift recipient %d", ErrReferential, req.RecipientUserID)
	}

	// Only the gift subscription is ever extended by a gift. A direct paid
	// subscription the recipient may hold stays untouched and keeps
	// outranking the gift in entitlement resolution.
	sub, err := repo.GetActiveGiftSubscriptionForUpdate(ctx, recipient.ID)
	if err != nil {
		return nil, err
	}

	var currentExpiration *time.Time
	alreadyLifetime := false
	if sub != nil {
		currentExpiration = sub.CurrentPeriodEnd
		alreadyLifetime = sub.IsLifetime()
	}
	newExpiration := AggregateGiftDuration(req.GiftType, quantity, currentExpiration, alreadyLifetime, now)

	if sub == nil {
		sub = &models.Subscription{
			UserID:          recipient.ID,
			Tier:            models.SubscriptionTierPro,
			Status:          models.SubscriptionStatusActive,
			TransactionType: models.TransactionTypeRecurring,
			IsGift:          true,
		}
	}
	sub.CurrentPeriodEnd = &newExpiration
	if req.GiftType == models.GiftTypeLifetime {
		sub.TransactionType = models.TransactionTypeLifetime
	}
	if err := repo.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}

	details := &models.GiftDetails{
		SubscriptionID: sub.ID,
		SenderName:     req.SenderName,
		GiftMessage:    req.GiftMessage,
		GiftType:       req.GiftType,
		GiftQuantity:   quantity,
	}
	if err := repo.CreateGiftDetails(ctx, details); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		UserID:        recipient.ID,
		Type:          models.NotificationTypeGiftSubscription,
		GiftDetailsID: details.ID,
	}
	if err := repo.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}

	return &GiftGrant{
		Subscription: sub,
		GiftDetails:  details,
		Notification: notification,
	}, nil
}
