package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/Domenick1991/compoundaccess/config"
	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/SherClockHolmes/webpush-go"
)

// Notifier delivers one message to a resident.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	line := fmt.Sprintf("notify resident %s: %s: %s", msg.ResidentID, msg.Title, msg.Body)
	if n.logger == nil {
		log.Print(line)
		return nil
	}
	n.logger.Print(line)
	return nil
}

// PushSender sends a single web push notification.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

type webPushClient struct{}

func (webPushClient) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

type SubscriptionStore interface {
	ListByResident(ctx context.Context, residentID string) ([]domain.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

// WebPushNotifier sends a message to every browser a resident subscribed.
// Subscriptions the push service reports as gone are deleted.
type WebPushNotifier struct {
	subscriptions SubscriptionStore
	options       *webpush.Options
	sender        PushSender
}

func NewWebPushNotifier(subscriptions SubscriptionStore, cfg config.PushConfig) *WebPushNotifier {
	return &WebPushNotifier{
		subscriptions: subscriptions,
		options: &webpush.Options{
			Subscriber:      cfg.Subject,
			VAPIDPublicKey:  cfg.PublicKey,
			VAPIDPrivateKey: cfg.PrivateKey,
			TTL:             cfg.TTL,
		},
		sender: webPushClient{},
	}
}

func (n *WebPushNotifier) Notify(ctx context.Context, msg Message) error {
	subs, err := n.subscriptions.ListByResident(ctx, msg.ResidentID)
	if err != nil {
		return fmt.Errorf("list push subscriptions for %s: %w", msg.ResidentID, err)
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		n.send(ctx, sub, payload)
	}
	return nil
}

func (n *WebPushNotifier) send(ctx context.Context, sub domain.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := n.sender.Send(payload, wpSub, n.options)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := n.subscriptions.Delete(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
