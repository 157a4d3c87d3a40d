package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// FileVersion is the document format version written by FileStore.
const FileVersion = 1

// FileStore keeps both collections in a single JSON document on disk, under
// the keys "moderation_queue" and "moderation_audit". The document is read
// and rewritten whole on every call. Writes go through a temp file and a
// rename so readers never observe a partial document. Every call holds an
// advisory lock on a sibling ".lock" file, exclusive for writes and shared
// for reads, so separate processes sharing the file do not lose updates.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore at path. The file is created on first
// write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type fileDocument struct {
	Version int           `json:"version"`
	Queue   []itemRecord  `json:"moderation_queue"`
	Audit   []auditRecord `json:"moderation_audit"`
}

type itemRecord struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Content   string `json:"content"`
	Reason    string `json:"reason"`
	Severity  string `json:"severity"`
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"`
}

type auditRecord struct {
	ID        string `json:"id"`
	ItemID    string `json:"itemId"`
	AdminID   string `json:"adminId"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	Reason    string `json:"reason,omitempty"`
}

func toItemRecord(it Item) itemRecord {
	return itemRecord{
		ID:        it.ID,
		User:      it.Submitter,
		Content:   it.Content,
		Reason:    string(it.Reason),
		Severity:  string(it.Severity),
		Timestamp: it.Timestamp.UnixMilli(),
		Status:    string(it.Status),
	}
}

func (r itemRecord) item() Item {
	return Item{
		ID:        r.ID,
		Submitter: r.User,
		Content:   r.Content,
		Reason:    Reason(r.Reason),
		Severity:  Severity(r.Severity),
		Timestamp: time.UnixMilli(r.Timestamp).UTC(),
		Status:    Status(r.Status),
	}
}

func toAuditRecord(e AuditEntry) auditRecord {
	return auditRecord{
		ID:        e.ID,
		ItemID:    e.ItemID,
		AdminID:   e.AdminID,
		Action:    string(e.Action),
		Timestamp: e.Timestamp.UnixMilli(),
		Reason:    e.Reason,
	}
}

func (r auditRecord) entry() AuditEntry {
	return AuditEntry{
		ID:        r.ID,
		ItemID:    r.ItemID,
		AdminID:   r.AdminID,
		Action:    Action(r.Action),
		Timestamp: time.UnixMilli(r.Timestamp).UTC(),
		Reason:    r.Reason,
	}
}

// load reads the document. A missing file is an empty document; version 0
// is accepted as the unversioned legacy layout.
func (s *FileStore) load() (*fileDocument, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileDocument{Version: FileVersion}, nil
	}
	if err != nil {
		return nil, storageErr("reading "+s.path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, storageErr("decoding "+s.path, err)
	}
	if doc.Version > FileVersion {
		return nil, storageErr("decoding "+s.path,
			fmt.Errorf("document version %d is newer than supported version %d", doc.Version, FileVersion))
	}
	doc.Version = FileVersion
	return &doc, nil
}

func (s *FileStore) save(doc *fileDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return storageErr("creating store directory", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return storageErr("encoding document", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return storageErr("writing "+s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return storageErr("writing "+s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return storageErr("writing "+s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return storageErr("writing "+s.path, err)
	}
	return nil
}

// lock takes the cross-process lock and returns its release function.
func (s *FileStore) lock(shared bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, storageErr("creating store directory", err)
	}
	fl := flock.New(s.path + ".lock")
	lock := fl.Lock
	if shared {
		lock = fl.RLock
	}
	if err := lock(); err != nil {
		return nil, storageErr("locking "+s.path, err)
	}
	return func() { fl.Unlock() }, nil
}

// update loads the document, applies fn and saves the result if fn succeeds.
func (s *FileStore) update(fn func(doc *fileDocument) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(false)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *FileStore) read() (*fileDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(true)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.load()
}

// AppendItem inserts a new queue item.
func (s *FileStore) AppendItem(_ context.Context, item Item) error {
	return s.update(func(doc *fileDocument) error {
		doc.Queue = append(doc.Queue, toItemRecord(item))
		return nil
	})
}

// UpdateItemStatus sets the status of an existing item.
func (s *FileStore) UpdateItemStatus(_ context.Context, id string, status Status) error {
	return s.update(func(doc *fileDocument) error {
		for i := range doc.Queue {
			if doc.Queue[i].ID == id {
				doc.Queue[i].Status = string(status)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// ResolveItem moves a Pending item to decision and appends entry in a
// single locked load-modify-save.
func (s *FileStore) ResolveItem(_ context.Context, id string, decision Status, entry AuditEntry) (Item, error) {
	var resolved Item
	err := s.update(func(doc *fileDocument) error {
		for i := range doc.Queue {
			r := &doc.Queue[i]
			if r.ID != id {
				continue
			}
			if Status(r.Status) != StatusPending {
				return fmt.Errorf("%w: %s is %s", ErrAlreadyResolved, id, r.Status)
			}
			r.Status = string(decision)
			doc.Audit = append(doc.Audit, toAuditRecord(entry))
			resolved = r.item()
			return nil
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	})
	if err != nil {
		return Item{}, err
	}
	return resolved, nil
}

// GetItem retrieves a single item.
func (s *FileStore) GetItem(_ context.Context, id string) (Item, error) {
	doc, err := s.read()
	if err != nil {
		return Item{}, err
	}
	for _, r := range doc.Queue {
		if r.ID == id {
			return r.item(), nil
		}
	}
	return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ListItems returns queue items in insertion order, optionally filtered by
// status.
func (s *FileStore) ListItems(_ context.Context, status Status) ([]Item, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	items := []Item{}
	for _, r := range doc.Queue {
		if status != "" && Status(r.Status) != status {
			continue
		}
		items = append(items, r.item())
	}
	return items, nil
}

// AppendAudit appends an audit entry.
func (s *FileStore) AppendAudit(_ context.Context, entry AuditEntry) error {
	return s.update(func(doc *fileDocument) error {
		doc.Audit = append(doc.Audit, toAuditRecord(entry))
		return nil
	})
}

// ListAudit returns the audit trail in chronological order.
func (s *FileStore) ListAudit(_ context.Context) ([]AuditEntry, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	entries := make([]AuditEntry, 0, len(doc.Audit))
	for _, r := range doc.Audit {
		entries = append(entries, r.entry())
	}
	return entries, nil
}
