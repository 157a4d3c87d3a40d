// Package moderation implements the content moderation queue: flagging with
// automatic PII redaction, moderator review, and the audit trail that records
// both.
package moderation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxContentLength is the number of characters of submitted content kept on
// a flagged item.
const MaxContentLength = 500

// SystemActorID is the audit actor recorded for automated redaction.
const SystemActorID = "SYSTEM_PRIVACY_GUARD"

// DefaultAdminID is the moderator recorded when a reviewer does not
// identify themselves.
const DefaultAdminID = "admin_system"

// PIIMaskedReason is the explanation attached to automated redaction entries.
const PIIMaskedReason = "Automated redaction of sensitive data pattern (GDPR/CCPA Safety)."

var (
	ErrNotFound        = errors.New("moderation item not found")
	ErrStorage         = errors.New("moderation storage failure")
	ErrAlreadyResolved = errors.New("moderation item already resolved")
	ErrInvalidDecision = errors.New("decision must be Approved or Rejected")
)

// storageErr marks err as a storage failure while keeping the cause reachable.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// Reason is the category a reporter selects when flagging content.
type Reason string

const (
	ReasonHateSpeech     Reason = "Hate Speech"
	ReasonSpam           Reason = "Spam"
	ReasonPersonalAttack Reason = "Personal Attack"
	ReasonMisinformation Reason = "Misinformation"
)

// Reasons lists every valid reason in display order.
var Reasons = []Reason{ReasonHateSpeech, ReasonSpam, ReasonPersonalAttack, ReasonMisinformation}

// ParseReason matches s case-insensitively against the known reasons.
func ParseReason(s string) (Reason, error) {
	for _, r := range Reasons {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid reason %q: must be one of Hate Speech, Spam, Personal Attack, Misinformation", s)
}

// Severity is the coarse priority assigned at flagging time.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// SeverityFor derives the severity of a flag from its reason. Low is never
// produced.
func SeverityFor(r Reason) Severity {
	if r == ReasonHateSpeech {
		return SeverityHigh
	}
	return SeverityMedium
}

// Status is the review state of a flagged item.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

// Terminal reports whether the status is a review outcome.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q: must be one of Pending, Approved, Rejected", s)
}

// ParseFilter parses a queue filter. "All" and the empty string select every
// item and are returned as the empty Status.
func ParseFilter(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	return ParseStatus(s)
}

// Action is what an audit entry records.
type Action string

const (
	ActionApproved  Action = "Approved"
	ActionRejected  Action = "Rejected"
	ActionPIIMasked Action = "PII_MASKED"
)

// ParseAction matches s case-insensitively against the known actions.
func ParseAction(s string) (Action, error) {
	for _, a := range []Action{ActionApproved, ActionRejected, ActionPIIMasked} {
		if strings.EqualFold(strings.TrimSpace(s), string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("invalid action %q: must be one of Approved, Rejected, PII_MASKED", s)
}

// Item is a unit of user-submitted content reported for review. Content is
// stored already redacted.
type Item struct {
	ID        string    `json:"id"`
	Submitter string    `json:"submitter"`
	Content   string    `json:"content"`
	Reason    Reason    `json:"reason"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}

// AuditEntry is an immutable record of a moderation action. ItemID is a
// reference only; the item may no longer match the recorded action.
type AuditEntry struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	AdminID   string    `json:"adminId"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// AuditFilter narrows AuditLogs. The zero value matches everything.
type AuditFilter struct {
	ItemID string
	Action Action
}

func (f AuditFilter) match(e AuditEntry) bool {
	if f.ItemID != "" && e.ItemID != f.ItemID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return true
}

// Stats counts queue items per status.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
