package billing

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JulianBeck/CastDeck/app/models"
)

// Repository provides the DB operations used by the billing service. Lookup
// methods return (nil, nil) when no row matches so callers can distinguish
// "not there" from store failures without unwrapping driver errors.
type Repository interface {
	// WithinTransaction runs fn against a transactional copy of the
	// repository. The transaction commits when fn returns nil and rolls
	// back otherwise.
	WithinTransaction(ctx context.Context, fn func(Repository) error) error

	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error)
	ListSubscriptionsByStripeCustomer(ctx context.Context, customerID string) ([]models.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)

	// GetActiveGiftSubscriptionForUpdate loads the recipient's entitling
	// gift subscription under a row lock. Two concurrent gifts for the same
	// recipient serialize here; without the lock both would read the same
	// stale period end and the second write would clobber the first
	// extension.
	GetActiveGiftSubscriptionForUpdate(ctx context.Context, userID uint) (*models.Subscription, error)

	SaveSubscription(ctx context.Context, sub *models.Subscription) error
	CreateGiftDetails(ctx context.Context, details *models.GiftDetails) error
	CreateNotification(ctx context.Context, notification *models.Notification) error

	// CreateProcessedEvent inserts an idempotency ledger row. Returns false
	// without error when the event id was already recorded.
	CreateProcessedEvent(ctx context.Context, event *models.ProcessedWebhookEvent) (bool, error)
	HasProcessedEvent(ctx context.Context, eventID string) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithinTransaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListSubscriptionsByStripeCustomer(ctx context.Context, customerID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).Find(&subs).Error
	return subs, err
}

func (r *gormRepository) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetActiveGiftSubscriptionForUpdate(ctx context.Context, userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND is_gift = ? AND status IN ?", userID, true,
			[]string{models.SubscriptionStatusActive, models.SubscriptionStatusTrialing}).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *gormRepository) CreateGiftDetails(ctx context.Context, details *models.GiftDetails) error {
	return r.db.WithContext(ctx).Create(details).Error
}

func (r *gormRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *gormRepository) CreateProcessedEvent(ctx context.Context, event *models.ProcessedWebhookEvent) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) HasProcessedEvent(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProcessedWebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}
