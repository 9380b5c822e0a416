package constants

// Static route constants
const (
	StripeWebhookRoute = "/webhooks/stripe"

	APIPrefix   = "/api"
	APIV1Prefix = "/v1"

	EntitlementRoute      = "/users/:id/entitlement"
	FeatureCheckRoute     = "/users/:id/features/:feature"
	NotificationsRoute    = "/users/:id/notifications"
	NotificationReadRoute = "/notifications/:id/read"
	WebhookStatsRoute     = "/webhook-stats"
)
