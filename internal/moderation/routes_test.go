package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func setupRouter(t *testing.T) (*Service, chi.Router) {
	t.Helper()
	svc := setupService(t)
	r := chi.NewRouter()
	RegisterRoutes(r, svc)
	return svc, r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFlagEndpoint(t *testing.T) {
	_, r := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/moderation/flags",
		`{"submitter":"u@example.com","content":"spam from 8.8.8.8","reason":"hate speech"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var item Item
	if err := json.NewDecoder(w.Body).Decode(&item); err != nil {
		t.Fatalf("decoding item: %v", err)
	}
	if item.Reason != ReasonHateSpeech || item.Severity != SeverityHigh {
		t.Errorf("item = %+v", item)
	}
	if item.Content != "spam from [IP REDACTED]" {
		t.Errorf("Content = %q", item.Content)
	}
}

func TestFlagEndpointRejectsUnknownReason(t *testing.T) {
	_, r := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/moderation/flags", `{"submitter":"u","content":"x","reason":"boring"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/moderation/flags", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestQueueEndpointFilter(t *testing.T) {
	svc, r := setupRouter(t)
	ctx := context.Background()

	a, _ := svc.Flag(ctx, "u", "one", ReasonSpam)
	svc.Flag(ctx, "u", "two", ReasonSpam)
	svc.Review(ctx, a.ID, "mod", StatusApproved)

	tests := []struct {
		query string
		want  int
		code  int
	}{
		{"", 2, http.StatusOK},
		{"?status=All", 2, http.StatusOK},
		{"?status=Approved", 1, http.StatusOK},
		{"?status=pending", 1, http.StatusOK},
		{"?status=Rejected", 0, http.StatusOK},
		{"?status=Weird", 0, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := doJSON(r, http.MethodGet, "/api/moderation/queue"+tt.query, "")
		if w.Code != tt.code {
			t.Errorf("GET queue%s: code %d, want %d", tt.query, w.Code, tt.code)
			continue
		}
		if tt.code != http.StatusOK {
			continue
		}
		var items []Item
		if err := json.NewDecoder(w.Body).Decode(&items); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if len(items) != tt.want {
			t.Errorf("GET queue%s: %d items, want %d", tt.query, len(items), tt.want)
		}
	}
}

func TestReviewEndpoint(t *testing.T) {
	svc, r := setupRouter(t)
	ctx := context.Background()
	item, _ := svc.Flag(ctx, "u", "text", ReasonSpam)

	w := doJSON(r, http.MethodPost, "/api/moderation/queue/"+item.ID+"/review", `{"decision":"Rejected"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got Item
	json.NewDecoder(w.Body).Decode(&got)
	if got.Status != StatusRejected {
		t.Errorf("Status = %q, want %q", got.Status, StatusRejected)
	}

	logs, _ := svc.AuditLogs(ctx, AuditFilter{ItemID: item.ID})
	if len(logs) != 1 || logs[0].AdminID != DefaultAdminID {
		t.Errorf("expected default admin on audit entry, got %+v", logs)
	}

	w = doJSON(r, http.MethodPost, "/api/moderation/queue/"+item.ID+"/review", `{"decision":"Approved","admin_id":"m"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("second review: expected 409, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/moderation/queue/missing/review", `{"decision":"Approved"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing item: expected 404, got %d", w.Code)
	}

	other, _ := svc.Flag(ctx, "u", "text", ReasonSpam)
	w = doJSON(r, http.MethodPost, "/api/moderation/queue/"+other.ID+"/review", `{"decision":"Pending"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("pending decision: expected 400, got %d", w.Code)
	}
}

func TestGetItemEndpoint(t *testing.T) {
	svc, r := setupRouter(t)
	item, _ := svc.Flag(context.Background(), "u", "text", ReasonSpam)

	w := doJSON(r, http.MethodGet, "/api/moderation/queue/"+item.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/api/moderation/queue/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAuditAndStatsEndpoints(t *testing.T) {
	svc, r := setupRouter(t)
	ctx := context.Background()
	item, _ := svc.Flag(ctx, "u", "mail me: a@b.com", ReasonSpam)
	svc.Review(ctx, item.ID, "mod", StatusApproved)

	w := doJSON(r, http.MethodGet, "/api/moderation/audit?action=pii_masked", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var entries []AuditEntry
	json.NewDecoder(w.Body).Decode(&entries)
	if len(entries) != 1 || entries[0].Action != ActionPIIMasked {
		t.Errorf("entries = %+v", entries)
	}

	w = doJSON(r, http.MethodGet, "/api/moderation/audit?action=deleted", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown action, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/moderation/stats", "")
	var st Stats
	json.NewDecoder(w.Body).Decode(&st)
	if st != (Stats{Total: 1, Approved: 1}) {
		t.Errorf("stats = %+v", st)
	}
}

func TestEventStream(t *testing.T) {
	svc, r := setupRouter(t)
	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/moderation"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	// Wait for the handler to subscribe before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for svc.Events().Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	item, err := svc.Flag(context.Background(), "u", "hello", ReasonSpam)
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if ev.Type != EventFlagged || ev.Item.ID != item.ID {
		t.Errorf("event = %+v", ev)
	}
}

func TestBrokerDropsForFullSubscribers(t *testing.T) {
	b := NewBroker()
	ch, unsubscribe := b.Subscribe(1)

	b.Publish(Event{Type: EventFlagged})
	b.Publish(Event{Type: EventReviewed}) // buffer full, dropped

	if ev := <-ch; ev.Type != EventFlagged {
		t.Errorf("first event = %q", ev.Type)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected second event %+v", ev)
	default:
	}

	unsubscribe()
	unsubscribe()
	if b.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", b.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}
