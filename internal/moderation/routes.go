package moderation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts moderation endpoints under /api/moderation and the
// live event stream at /ws/moderation.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/moderation", func(r chi.Router) {
		r.Post("/flags", handleFlag(svc))
		r.Get("/queue", handleQueue(svc))
		r.Get("/queue/{id}", handleGetItem(svc))
		r.Post("/queue/{id}/review", handleReview(svc))
		r.Get("/audit", handleAudit(svc))
		r.Get("/stats", handleStats(svc))
	})
	r.Get("/ws/moderation", handleStream(svc))
}

type flagRequest struct {
	Submitter string `json:"submitter"`
	Content   string `json:"content"`
	Reason    string `json:"reason"`
}

type reviewRequest struct {
	AdminID  string `json:"admin_id"`
	Decision string `json:"decision"`
}

func handleFlag(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flagRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		reason, err := ParseReason(req.Reason)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		item, err := svc.Flag(r.Context(), req.Submitter, req.Content, reason)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func handleQueue(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := ParseFilter(r.URL.Query().Get("status"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		items, err := svc.Queue(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleGetItem(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.Item(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func handleReview(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		decision, err := ParseStatus(req.Decision)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.AdminID == "" {
			req.AdminID = DefaultAdminID
		}

		id := chi.URLParam(r, "id")
		if err := svc.Review(r.Context(), id, req.AdminID, decision); err != nil {
			writeError(w, err)
			return
		}

		item, err := svc.Item(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func handleAudit(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := AuditFilter{ItemID: q.Get("item_id")}
		if v := q.Get("action"); v != "" {
			action, err := ParseAction(v)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			filter.Action = action
		}

		entries, err := svc.AuditLogs(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleStats(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// handleStream pushes every queue event to the client until it disconnects.
func handleStream(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			svc.log.Warn("moderation: websocket upgrade", zap.Error(err))
			return
		}
		defer conn.Close()

		events, unsubscribe := svc.Events().Subscribe(32)
		defer unsubscribe()

		// The client never sends anything meaningful; reading only detects
		// the close.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						svc.log.Warn("moderation: websocket read", zap.Error(err))
					}
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					svc.log.Warn("moderation: websocket write", zap.Error(err))
					return
				}
			}
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyResolved):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidDecision):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
