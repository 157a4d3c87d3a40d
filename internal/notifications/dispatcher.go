// Package notifications forwards moderation queue events to webhook
// subscribers.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

// subscriberBuffer is how many events Run can fall behind before the broker
// starts dropping them for this subscriber.
const subscriberBuffer = 64

// Dispatcher delivers notifications to webhook subscribers.
type Dispatcher struct {
	hooks  []Webhook
	client *http.Client
	log    *zap.Logger
	now    func() time.Time
}

// NewDispatcher creates a Dispatcher for the given webhooks.
func NewDispatcher(hooks []Webhook, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		hooks: hooks,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
		now: time.Now,
	}
}

// Run subscribes to broker and dispatches every event until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, broker *moderation.Broker) {
	events, unsubscribe := broker.Subscribe(subscriberBuffer)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			d.Dispatch(ctx, e)
		}
	}
}

// Dispatch sends the event to every matching webhook and returns how many
// deliveries succeeded. Failures are logged, not returned.
func (d *Dispatcher) Dispatch(ctx context.Context, e moderation.Event) int {
	n := FromEvent(e, d.now())
	payload, err := json.Marshal(n)
	if err != nil {
		d.log.Error("encoding notification", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, hook := range d.hooks {
		if !hook.wants(n) {
			continue
		}
		if err := d.SendWebhook(ctx, hook.URL, payload); err != nil {
			d.log.Warn("webhook delivery failed",
				zap.String("url", hook.URL),
				zap.String("item_id", n.ItemID),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}

// SendWebhook POSTs payload to the given URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (h Webhook) wants(n Notification) bool {
	if !severityMatches(n.Severity, h.MinSeverity) {
		return false
	}
	if len(h.Events) == 0 {
		return true
	}
	for _, t := range h.Events {
		if t == n.Event {
			return true
		}
	}
	return false
}

var severityLevels = map[moderation.Severity]int{
	moderation.SeverityLow:    0,
	moderation.SeverityMedium: 1,
	moderation.SeverityHigh:   2,
}

// severityMatches returns true if the severity meets or exceeds the filter threshold.
func severityMatches(actual, filter moderation.Severity) bool {
	if filter == "" {
		return true
	}
	return severityLevels[actual] >= severityLevels[filter]
}
