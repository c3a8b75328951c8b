package notification

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"taskboard-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, payload, sub, options)
}

// SubscriptionStore is the slice of the store the Web Push fallback needs.
type SubscriptionStore interface {
	PushSubscriptionsFor(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeleteExpiredPushSubscription(ctx context.Context, endpoint string) error
}

// WebPushFallback delivers notifications to a user's browsers through Web
// Push while the user has no live connection.
type WebPushFallback struct {
	subs    SubscriptionStore
	options *webpush.Options
	sender  NotificationSender
	timeout time.Duration
}

// NewWebPushFallback creates a fallback that gives up on a user after timeout.
func NewWebPushFallback(subs SubscriptionStore, options *webpush.Options, timeout time.Duration) *WebPushFallback {
	if timeout <= 0 {
		timeout = defaultPushTimeout
	}
	return &WebPushFallback{
		subs:    subs,
		options: options,
		sender:  &WebPushSender{}, // Use the real sender by default
		timeout: timeout,
	}
}

// SendOffline pushes payload to every subscription the user has registered.
func (f *WebPushFallback) SendOffline(ctx context.Context, userID int64, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	subs, err := f.subs.PushSubscriptionsFor(ctx, userID)
	if err != nil {
		log.Printf("Error fetching push subscriptions for user %d: %v", userID, err)
		return
	}
	for _, sub := range subs {
		f.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (f *WebPushFallback) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := f.sender.Send(ctx, payload, wpSub, f.options)
	if err != nil {
		log.Printf("Error sending web push to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := f.subs.DeleteExpiredPushSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	case resp.StatusCode >= http.StatusBadRequest:
		log.Printf("Web push to %s rejected with status %d", sub.Endpoint, resp.StatusCode)
	}
}
