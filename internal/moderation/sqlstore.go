package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/modguard/internal/db"
)

// SQLStore keeps the queue and audit trail in SQLite. Insertion order is the
// autoincrement seq column; timestamps are Unix milliseconds.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a Store backed by the given database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

const itemColumns = "id, submitter, content, reason, severity, created_at, status"

// AppendItem inserts a new queue item.
func (s *SQLStore) AppendItem(ctx context.Context, item Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_queue (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Submitter,
		item.Content,
		string(item.Reason),
		string(item.Severity),
		item.Timestamp.UnixMilli(),
		string(item.Status),
	)
	if err != nil {
		return storageErr("inserting item", err)
	}
	return nil
}

// UpdateItemStatus sets the status of an existing item.
func (s *SQLStore) UpdateItemStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE moderation_queue SET status = ? WHERE id = ?",
		string(status), id,
	)
	if err != nil {
		return storageErr("updating item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("updating item", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// GetItem retrieves a single item.
func (s *SQLStore) GetItem(ctx context.Context, id string) (Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM moderation_queue WHERE id = ?", id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Item{}, storageErr("reading item", err)
	}
	return item, nil
}

// ListItems returns queue items in insertion order, optionally filtered by
// status.
func (s *SQLStore) ListItems(ctx context.Context, status Status) ([]Item, error) {
	query := "SELECT " + itemColumns + " FROM moderation_queue"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("querying items", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("scanning item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("querying items", err)
	}
	return items, nil
}

// AppendAudit inserts an audit entry.
func (s *SQLStore) AppendAudit(ctx context.Context, entry AuditEntry) error {
	return insertAudit(ctx, s.db, entry)
}

// ResolveItem moves a Pending item to decision and records entry in one
// transaction. The status condition in the UPDATE is the guard, so two
// reviewers racing on the same database cannot both succeed.
func (s *SQLStore) ResolveItem(ctx context.Context, id string, decision Status, entry AuditEntry) (Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, storageErr("beginning review", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE moderation_queue SET status = ? WHERE id = ? AND status = ?",
		string(decision), id, string(StatusPending),
	)
	if err != nil {
		return Item{}, storageErr("updating item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Item{}, storageErr("updating item", err)
	}
	if n == 0 {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM moderation_queue WHERE id = ?", id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return Item{}, storageErr("reading item", err)
		}
		return Item{}, fmt.Errorf("%w: %s is %s", ErrAlreadyResolved, id, current)
	}

	if err := insertAudit(ctx, tx, entry); err != nil {
		return Item{}, err
	}
	item, err := scanItem(tx.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM moderation_queue WHERE id = ?", id))
	if err != nil {
		return Item{}, storageErr("reading item", err)
	}
	if err := tx.Commit(); err != nil {
		return Item{}, storageErr("committing review", err)
	}
	return item, nil
}

// execer is implemented by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAudit(ctx context.Context, ex execer, entry AuditEntry) error {
	var reason sql.NullString
	if entry.Reason != "" {
		reason = sql.NullString{String: entry.Reason, Valid: true}
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO moderation_audit (id, item_id, admin_id, action, created_at, reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ItemID,
		entry.AdminID,
		string(entry.Action),
		entry.Timestamp.UnixMilli(),
		reason,
	)
	if err != nil {
		return storageErr("inserting audit entry", err)
	}
	return nil
}

// ListAudit returns the audit trail in chronological order.
func (s *SQLStore) ListAudit(ctx context.Context) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, admin_id, action, created_at, reason
		FROM moderation_audit ORDER BY seq`)
	if err != nil {
		return nil, storageErr("querying audit entries", err)
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		var (
			e      AuditEntry
			action string
			ms     int64
			reason sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ItemID, &e.AdminID, &action, &ms, &reason); err != nil {
			return nil, storageErr("scanning audit entry", err)
		}
		e.Action = Action(action)
		e.Timestamp = time.UnixMilli(ms).UTC()
		if reason.Valid {
			e.Reason = reason.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("querying audit entries", err)
	}
	return entries, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (Item, error) {
	var (
		item                     Item
		reason, severity, status string
		ms                       int64
	)
	if err := sc.Scan(&item.ID, &item.Submitter, &item.Content, &reason, &severity, &ms, &status); err != nil {
		return Item{}, err
	}
	item.Reason = Reason(reason)
	item.Severity = Severity(severity)
	item.Status = Status(status)
	item.Timestamp = time.UnixMilli(ms).UTC()
	return item, nil
}
