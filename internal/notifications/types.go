package notifications

import (
	"time"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

// Webhook is a subscriber endpoint. An empty MinSeverity receives every
// severity; empty Events receives every event type.
type Webhook struct {
	URL         string                 `json:"url"`
	MinSeverity moderation.Severity    `json:"min_severity,omitempty"`
	Events      []moderation.EventType `json:"events,omitempty"`
}

// Notification is the JSON body POSTed to webhooks.
type Notification struct {
	Event     moderation.EventType `json:"event"`
	ItemID    string               `json:"item_id"`
	Reason    moderation.Reason    `json:"reason"`
	Severity  moderation.Severity  `json:"severity"`
	Status    moderation.Status    `json:"status"`
	Actor     string               `json:"actor,omitempty"`
	PIIMasked bool                 `json:"pii_masked"`
	Content   string               `json:"content"`
	CreatedAt time.Time            `json:"created_at"`
}

// FromEvent builds the notification for a queue event. Actor is the
// moderator of a review; PIIMasked reports whether flagging redacted content.
func FromEvent(e moderation.Event, now time.Time) Notification {
	n := Notification{
		Event:     e.Type,
		ItemID:    e.Item.ID,
		Reason:    e.Item.Reason,
		Severity:  e.Item.Severity,
		Status:    e.Item.Status,
		Content:   e.Item.Content,
		CreatedAt: now,
	}
	for _, a := range e.Audit {
		switch a.Action {
		case moderation.ActionPIIMasked:
			n.PIIMasked = true
		case moderation.ActionApproved, moderation.ActionRejected:
			n.Actor = a.AdminID
		}
	}
	return n
}
