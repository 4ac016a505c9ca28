package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/deadNightTiger/chatty/chatlog"
	"github.com/deadNightTiger/chatty/session"
)

// Handlers holds the dependencies shared by the HTTP endpoints.
type Handlers struct {
	db       *sql.DB
	sess     *session.Session
	messages *chatlog.Store
}

// HandleHealthz responds to liveness probe requests by checking database
// connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports readiness: the database must answer and the chat
// connection must be registered.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		ok   func() bool
	}{
		{"database", func() bool { return h.db.PingContext(r.Context()) == nil }},
		{"chat", h.sess.IsRegistered},
	}
	for _, check := range checks {
		if !check.ok() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
			})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

type statusResponse struct {
	State          string   `json:"state"`
	ConnectionInfo string   `json:"connection_info"`
	Username       string   `json:"username"`
	JoinedChannels []string `json:"joined_channels"`
	OpenChannels   []string `json:"open_channels"`
}

// HandleStatus returns a snapshot of the chat session.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		State:          h.sess.State().String(),
		ConnectionInfo: h.sess.ConnectionInfo(),
		Username:       h.sess.Username(),
		JoinedChannels: h.sess.JoinedChannels(),
		OpenChannels:   h.sess.OpenChannels(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleChatRecent returns the most recent stored messages for ?channel=,
// newest first, up to ?limit= (default 50).
func (h *Handlers) HandleChatRecent(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		http.Error(w, "missing channel", http.StatusBadRequest)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	msgs, err := h.messages.Recent(r.Context(), channel, limit)
	if err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(msgs)
}
