package moderation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/modguard/internal/db"
)

// storeFactories lists every Store implementation; each test runs against all
// of them.
var storeFactories = map[string]func(t *testing.T) Store{
	"sqlite": func(t *testing.T) Store {
		database, err := db.OpenMemory()
		if err != nil {
			t.Fatalf("OpenMemory: %v", err)
		}
		t.Cleanup(func() { database.Close() })
		return NewSQLStore(database)
	},
	"file": func(t *testing.T) Store {
		return NewFileStore(filepath.Join(t.TempDir(), "moderation.json"))
	},
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func sampleItem(id string, status Status) Item {
	return Item{
		ID:        id,
		Submitter: "reporter",
		Content:   "content of " + id,
		Reason:    ReasonMisinformation,
		Severity:  SeverityMedium,
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 123_000_000, time.UTC),
		Status:    status,
	}
}

func TestStoreAppendAndGetItem(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := sampleItem("i1", StatusPending)
		if err := s.AppendItem(ctx, want); err != nil {
			t.Fatalf("AppendItem: %v", err)
		}

		got, err := s.GetItem(ctx, "i1")
		if err != nil {
			t.Fatalf("GetItem: %v", err)
		}
		if got.Submitter != want.Submitter || got.Content != want.Content ||
			got.Reason != want.Reason || got.Severity != want.Severity || got.Status != want.Status {
			t.Errorf("GetItem = %+v, want %+v", got, want)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
		}

		if _, err := s.GetItem(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetItem(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func TestStoreUpdateItemStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		s.AppendItem(ctx, sampleItem("i1", StatusPending))

		if err := s.UpdateItemStatus(ctx, "i1", StatusRejected); err != nil {
			t.Fatalf("UpdateItemStatus: %v", err)
		}
		got, _ := s.GetItem(ctx, "i1")
		if got.Status != StatusRejected {
			t.Errorf("Status = %q, want %q", got.Status, StatusRejected)
		}
		if got.Content != "content of i1" {
			t.Errorf("Content changed to %q", got.Content)
		}

		err := s.UpdateItemStatus(ctx, "missing", StatusApproved)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateItemStatus(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func TestStoreListItemsOrderAndFilter(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		// Ids deliberately sort differently from insertion order.
		for _, it := range []Item{
			sampleItem("c", StatusApproved),
			sampleItem("a", StatusPending),
			sampleItem("b", StatusApproved),
		} {
			if err := s.AppendItem(ctx, it); err != nil {
				t.Fatalf("AppendItem: %v", err)
			}
		}

		all, err := s.ListItems(ctx, "")
		if err != nil {
			t.Fatalf("ListItems: %v", err)
		}
		if ids := itemIDs(all); ids != "c,a,b" {
			t.Errorf("ListItems order = %s, want c,a,b", ids)
		}

		approved, _ := s.ListItems(ctx, StatusApproved)
		if ids := itemIDs(approved); ids != "c,b" {
			t.Errorf("approved = %s, want c,b", ids)
		}

		rejected, err := s.ListItems(ctx, StatusRejected)
		if err != nil {
			t.Fatalf("ListItems: %v", err)
		}
		if rejected == nil || len(rejected) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", rejected)
		}
	})
}

func TestStoreAuditTrail(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

		entries := []AuditEntry{
			{ID: "z", ItemID: "i1", AdminID: SystemActorID, Action: ActionPIIMasked, Timestamp: ts, Reason: PIIMaskedReason},
			// Dangling item reference is accepted.
			{ID: "y", ItemID: "ghost", AdminID: "mod", Action: ActionRejected, Timestamp: ts.Add(time.Second)},
		}
		for _, e := range entries {
			if err := s.AppendAudit(ctx, e); err != nil {
				t.Fatalf("AppendAudit: %v", err)
			}
		}

		got, err := s.ListAudit(ctx)
		if err != nil {
			t.Fatalf("ListAudit: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(got))
		}
		if got[0].ID != "z" || got[1].ID != "y" {
			t.Errorf("order = [%s %s], want [z y]", got[0].ID, got[1].ID)
		}
		if got[0].Reason != PIIMaskedReason {
			t.Errorf("Reason = %q, want %q", got[0].Reason, PIIMaskedReason)
		}
		if got[1].Reason != "" {
			t.Errorf("expected empty reason, got %q", got[1].Reason)
		}
		if !got[1].Timestamp.Equal(ts.Add(time.Second)) {
			t.Errorf("Timestamp = %v", got[1].Timestamp)
		}
	})
}

func itemIDs(items []Item) string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return strings.Join(ids, ",")
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "moderation.json")
	ctx := context.Background()

	first := NewFileStore(path)
	if err := first.AppendItem(ctx, sampleItem("i1", StatusPending)); err != nil {
		t.Fatalf("AppendItem: %v", err)
	}

	second := NewFileStore(path)
	items, err := second.ListItems(ctx, "")
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 || items[0].ID != "i1" {
		t.Errorf("items = %+v", items)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}
	for _, key := range []string{`"version": 1`, `"moderation_queue"`, `"moderation_audit"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("document missing %s:\n%s", key, data)
		}
	}
}

func TestFileStoreLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moderation.json")
	legacy := `{"moderation_queue":[{"id":"abc123xyz","user":"a@b.co","content":"hi","reason":"Spam","severity":"Medium","timestamp":1700000000000,"status":"Pending"}]}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(path)
	item, err := s.GetItem(context.Background(), "abc123xyz")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Submitter != "a@b.co" || item.Timestamp.UnixMilli() != 1700000000000 {
		t.Errorf("item = %+v", item)
	}
}

func TestFileStoreRejectsBadDocuments(t *testing.T) {
	tests := map[string]string{
		"corrupt": `{not json`,
		"newer":   `{"version": 7}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "moderation.json")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			s := NewFileStore(path)
			if _, err := s.ListItems(context.Background(), ""); !errors.Is(err, ErrStorage) {
				t.Errorf("ListItems error = %v, want ErrStorage", err)
			}
			if err := s.AppendAudit(context.Background(), AuditEntry{ID: "x"}); !errors.Is(err, ErrStorage) {
				t.Errorf("AppendAudit error = %v, want ErrStorage", err)
			}
			after, _ := os.ReadFile(path)
			if string(after) != body {
				t.Error("failed write must leave the document untouched")
			}
		})
	}
}

func TestSQLStoreWrapsDriverErrors(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	s := NewSQLStore(database)
	database.Close()

	if _, err := s.ListItems(context.Background(), ""); !errors.Is(err, ErrStorage) {
		t.Errorf("ListItems on closed db error = %v, want ErrStorage", err)
	}
	if err := s.AppendItem(context.Background(), sampleItem("i1", StatusPending)); !errors.Is(err, ErrStorage) {
		t.Errorf("AppendItem on closed db error = %v, want ErrStorage", err)
	}
}

func TestStoreResolveItem(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.AppendItem(ctx, sampleItem("i1", StatusPending)); err != nil {
			t.Fatalf("AppendItem: %v", err)
		}
		entry := AuditEntry{ID: "a1", ItemID: "i1", AdminID: "mod", Action: ActionRejected, Timestamp: time.UnixMilli(1_700_000_000_000).UTC()}

		got, err := s.ResolveItem(ctx, "i1", StatusRejected, entry)
		if err != nil {
			t.Fatalf("ResolveItem: %v", err)
		}
		want := sampleItem("i1", StatusRejected)
		if got != want {
			t.Errorf("ResolveItem = %+v, want %+v", got, want)
		}

		second := entry
		second.ID = "a2"
		if _, err := s.ResolveItem(ctx, "i1", StatusApproved, second); !errors.Is(err, ErrAlreadyResolved) {
			t.Errorf("second ResolveItem error = %v, want ErrAlreadyResolved", err)
		}
		if _, err := s.ResolveItem(ctx, "ghost", StatusApproved, second); !errors.Is(err, ErrNotFound) {
			t.Errorf("ResolveItem on unknown id error = %v, want ErrNotFound", err)
		}

		stored, _ := s.GetItem(ctx, "i1")
		if stored.Status != StatusRejected {
			t.Errorf("Status = %q, want %q", stored.Status, StatusRejected)
		}
		audit, _ := s.ListAudit(ctx)
		if len(audit) != 1 || audit[0].ID != "a1" {
			t.Errorf("audit = %+v, want only a1", audit)
		}
	})
}

// sharedStores opens two independent stores over the same backing file, the
// way the CLI and the HTTP server do when run side by side.
var sharedStores = map[string]func(t *testing.T) (Store, Store){
	"sqlite": func(t *testing.T) (Store, Store) {
		path := filepath.Join(t.TempDir(), "modguard.db")
		open := func() Store {
			database, err := db.Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			t.Cleanup(func() { database.Close() })
			return NewSQLStore(database)
		}
		return open(), open()
	},
	"file": func(t *testing.T) (Store, Store) {
		path := filepath.Join(t.TempDir(), "moderation.json")
		return NewFileStore(path), NewFileStore(path)
	},
}

func TestSharedStoresDoNotLoseAppends(t *testing.T) {
	const perStore = 40
	for name, open := range sharedStores {
		t.Run(name, func(t *testing.T) {
			a, b := open(t)
			ctx := context.Background()

			var wg sync.WaitGroup
			errs := make(chan error, 2*perStore)
			for i, s := range []Store{a, b} {
				wg.Add(1)
				go func(i int, s Store) {
					defer wg.Done()
					for n := 0; n < perStore; n++ {
						if err := s.AppendItem(ctx, sampleItem(fmt.Sprintf("s%d-%d", i, n), StatusPending)); err != nil {
							errs <- err
						}
					}
				}(i, s)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("AppendItem: %v", err)
			}

			items, err := a.ListItems(ctx, "")
			if err != nil {
				t.Fatalf("ListItems: %v", err)
			}
			if len(items) != 2*perStore {
				t.Errorf("stored %d items, want %d", len(items), 2*perStore)
			}
		})
	}
}

func TestSharedStoresResolveOnce(t *testing.T) {
	const count = 30
	for name, open := range sharedStores {
		t.Run(name, func(t *testing.T) {
			a, b := open(t)
			ctx := context.Background()
			for n := 0; n < count; n++ {
				if err := a.AppendItem(ctx, sampleItem(fmt.Sprintf("i%d", n), StatusPending)); err != nil {
					t.Fatalf("AppendItem: %v", err)
				}
			}

			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				wins     = map[string]int{}
				failures []error
			)
			reviewers := []struct {
				store    Store
				decision Status
			}{
				{a, StatusApproved},
				{b, StatusRejected},
			}
			for r, rv := range reviewers {
				wg.Add(1)
				go func(r int, s Store, decision Status) {
					defer wg.Done()
					for n := 0; n < count; n++ {
						id := fmt.Sprintf("i%d", n)
						entry := AuditEntry{
							ID:        fmt.Sprintf("a%d-%d", r, n),
							ItemID:    id,
							AdminID:   fmt.Sprintf("mod-%d", r),
							Action:    Action(decision),
							Timestamp: time.UnixMilli(1_700_000_000_000).UTC(),
						}
						_, err := s.ResolveItem(ctx, id, decision, entry)
						mu.Lock()
						switch {
						case err == nil:
							wins[id]++
						case !errors.Is(err, ErrAlreadyResolved):
							failures = append(failures, err)
						}
						mu.Unlock()
					}
				}(r, rv.store, rv.decision)
			}
			wg.Wait()

			for _, err := range failures {
				t.Errorf("ResolveItem: %v", err)
			}
			for n := 0; n < count; n++ {
				id := fmt.Sprintf("i%d", n)
				if wins[id] != 1 {
					t.Errorf("%s resolved %d times, want 1", id, wins[id])
				}
			}
			audit, err := b.ListAudit(ctx)
			if err != nil {
				t.Fatalf("ListAudit: %v", err)
			}
			if len(audit) != count {
				t.Errorf("audit entries = %d, want %d", len(audit), count)
			}
		})
	}
}
