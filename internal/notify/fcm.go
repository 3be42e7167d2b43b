package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"garage_door/internal/models"

	"github.com/sony/gobreaker"
)

const (
	DefaultFCMURL          = "https://fcm.googleapis.com/fcm/send"
	DefaultBreakerFailures = 3
	DefaultBreakerOpenFor  = time.Minute

	alertTitle = "Garage door alert"
)

// FCMConfig configures the Firebase Cloud Messaging sender.
type FCMConfig struct {
	URL             string
	Key             string // server key, sent as "key=<Key>"
	BreakerFailures int    // consecutive failures before the breaker opens
	BreakerOpenFor  time.Duration
}

// FCM posts legacy FCM messages. After BreakerFailures consecutive errors
// it stops calling the endpoint for BreakerOpenFor.
type FCM struct {
	url    string
	key    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

func NewFCM(cfg FCMConfig, client *http.Client) *FCM {
	if cfg.URL == "" {
		cfg.URL = DefaultFCMURL
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = DefaultBreakerFailures
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = DefaultBreakerOpenFor
	}
	if client == nil {
		client = &http.Client{}
	}
	key := strings.TrimSpace(cfg.Key)
	if key != "" && !strings.HasPrefix(key, "key=") {
		key = "key=" + key
	}
	fails := uint32(cfg.BreakerFailures)
	return &FCM{
		url:    cfg.URL,
		key:    key,
		client: client,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "fcm",
			Timeout: cfg.BreakerOpenFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= fails
			},
		}),
	}
}

func (f *FCM) Name() string { return "fcm" }

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound"`
}

type fcmMessage struct {
	Notification *fcmNotification  `json:"notification,omitempty"`
	Data         map[string]string `json:"data"`
	To           string            `json:"to"`
}

func fcmPayload(n models.Notification) fcmMessage {
	msg := fcmMessage{
		Data: map[string]string{"event": string(n.State)},
		To:   n.Target,
	}
	if n.Kind == models.NotifyAlert {
		msg.Notification = &fcmNotification{
			Title: alertTitle,
			Body:  fmt.Sprintf("Your %s has been %s for %s", n.DoorName, n.State, n.DurationTx),
			Sound: "default",
		}
	}
	return msg
}

func (f *FCM) Send(ctx context.Context, n models.Notification) error {
	if f.key == "" || n.Target == "" {
		return fmt.Errorf("%w: no push key or device target", ErrNotification)
	}
	body, err := json.Marshal(fcmPayload(n))
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrNotification, err)
	}

	_, err = f.cb.Execute(func() (any, error) {
		return nil, f.post(ctx, body)
	})
	if err != nil {
		return fmt.Errorf("%w: fcm: %w", ErrNotification, err)
	}
	return nil
}

func (f *FCM) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.key)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
