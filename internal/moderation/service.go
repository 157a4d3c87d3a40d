package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/modguard/internal/redact"
)

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Logger *zap.Logger
	// MaxContentLength lowers the truncation limit; it cannot exceed
	// MaxContentLength.
	MaxContentLength int
	Broker           *Broker
}

// Service orchestrates flagging, review and queries against a Store.
// Timestamps are kept at millisecond precision, the precision both stores
// persist, so a returned item equals its stored copy.
type Service struct {
	store  Store
	log    *zap.Logger
	maxLen int
	events *Broker

	now   func() time.Time
	newID func() string
}

// NewService creates a Service over store.
func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:  store,
		log:    opts.Logger,
		maxLen: opts.MaxContentLength,
		events: opts.Broker,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:  func() string { return uuid.New().String() },
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.maxLen <= 0 || s.maxLen > MaxContentLength {
		s.maxLen = MaxContentLength
	}
	if s.events == nil {
		s.events = NewBroker()
	}
	return s
}

// Events returns the broker that receives queue change events.
func (s *Service) Events() *Broker { return s.events }

// Flag truncates and redacts content, then queues it as a Pending item.
// When redaction changed the content a PII_MASKED audit entry is appended
// under SystemActorID. Content is never rejected; the only failures are
// storage failures.
func (s *Service) Flag(ctx context.Context, submitter, content string, reason Reason) (Item, error) {
	safe, matches := redact.Redact(truncate(content, s.maxLen))

	item := Item{
		ID:        s.newID(),
		Submitter: submitter,
		Content:   safe,
		Reason:    reason,
		Severity:  SeverityFor(reason),
		Timestamp: s.now(),
		Status:    StatusPending,
	}
	if err := s.store.AppendItem(ctx, item); err != nil {
		return Item{}, fmt.Errorf("flagging content: %w", err)
	}

	s.log.Info("content flagged",
		zap.String("item_id", item.ID),
		zap.String("submitter", submitter),
		zap.String("reason", string(reason)),
		zap.String("severity", string(item.Severity)),
	)

	var audit []AuditEntry
	if matches.Any() {
		entry := AuditEntry{
			ID:        s.newID(),
			ItemID:    item.ID,
			AdminID:   SystemActorID,
			Action:    ActionPIIMasked,
			Timestamp: s.now(),
			Reason:    PIIMaskedReason,
		}
		if err := s.store.AppendAudit(ctx, entry); err != nil {
			return Item{}, fmt.Errorf("recording redaction for %s: %w", item.ID, err)
		}
		audit = append(audit, entry)
		s.log.Info("pii redacted",
			zap.String("item_id", item.ID),
			zap.String("categories", matches.String()),
		)
	}

	s.events.Publish(Event{Type: EventFlagged, Item: item, Audit: audit})
	return item, nil
}

// Review resolves a Pending item as Approved or Rejected and records the
// decision. Unknown ids fail with ErrNotFound and items already resolved
// fail with ErrAlreadyResolved; neither appends an audit entry. The store
// applies the check, the status change and the audit append atomically.
func (s *Service) Review(ctx context.Context, itemID, adminID string, decision Status) error {
	if !decision.Terminal() {
		return fmt.Errorf("%w: got %q", ErrInvalidDecision, decision)
	}

	entry := AuditEntry{
		ID:        s.newID(),
		ItemID:    itemID,
		AdminID:   adminID,
		Action:    Action(decision),
		Timestamp: s.now(),
	}
	item, err := s.store.ResolveItem(ctx, itemID, decision, entry)
	if err != nil {
		return fmt.Errorf("reviewing item: %w", err)
	}

	s.log.Info("item reviewed",
		zap.String("item_id", itemID),
		zap.String("admin_id", adminID),
		zap.String("decision", string(decision)),
	)

	s.events.Publish(Event{Type: EventReviewed, Item: item, Audit: []AuditEntry{entry}})
	return nil
}

// Queue returns the flagged items in insertion order. An empty filter
// returns every item.
func (s *Service) Queue(ctx context.Context, filter Status) ([]Item, error) {
	return s.store.ListItems(ctx, filter)
}

// Item returns a single flagged item.
func (s *Service) Item(ctx context.Context, id string) (Item, error) {
	return s.store.GetItem(ctx, id)
}

// AuditLogs returns the audit trail in chronological order, narrowed by
// filter.
func (s *Service) AuditLogs(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	entries, err := s.store.ListAudit(ctx)
	if err != nil {
		return nil, err
	}
	if filter == (AuditFilter{}) {
		return entries, nil
	}
	out := entries[:0]
	for _, e := range entries {
		if filter.match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Stats counts queue items by status.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.store.ListItems(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case StatusPending:
			st.Pending++
		case StatusApproved:
			st.Approved++
		case StatusRejected:
			st.Rejected++
		}
	}
	return st, nil
}
