package types

// WebhookEventType enumerates the processor webhook events the gateway
// dispatches on. Anything else is acknowledged and ignored.
type WebhookEventType string

const (
	WebhookEventTypeSubscriptionCreated WebhookEventType = "customer.subscription.created"
	WebhookEventTypeInvoicePaymentOK    WebhookEventType = "invoice.payment_succeeded"
	WebhookEventTypeInvoicePaymentFail  WebhookEventType = "invoice.payment_failed"
)
