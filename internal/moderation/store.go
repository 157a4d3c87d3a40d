package moderation

import "context"

// Store is the sole owner of the flagged items and the audit trail. Each
// mutation is atomic with respect to other mutations on the same store, and
// every read returns a copy the caller may modify freely.
type Store interface {
	// AppendItem inserts a new item at the end of the queue.
	AppendItem(ctx context.Context, item Item) error
	// UpdateItemStatus overwrites the status of an existing item, leaving
	// every other field untouched. Returns ErrNotFound for unknown ids.
	UpdateItemStatus(ctx context.Context, id string, status Status) error
	// ResolveItem sets a Pending item to decision and appends entry as one
	// atomic step, returning the updated item. Unknown ids fail with
	// ErrNotFound and items no longer Pending with ErrAlreadyResolved; in
	// both cases nothing is written.
	ResolveItem(ctx context.Context, id string, decision Status, entry AuditEntry) (Item, error)
	// GetItem returns the item with the given id or ErrNotFound.
	GetItem(ctx context.Context, id string) (Item, error)
	// ListItems returns items in insertion order. An empty status returns
	// all of them.
	ListItems(ctx context.Context, status Status) ([]Item, error)
	// AppendAudit appends an entry without checking that its item exists.
	AppendAudit(ctx context.Context, entry AuditEntry) error
	// ListAudit returns audit entries in insertion order.
	ListAudit(ctx context.Context) ([]AuditEntry, error)
}
