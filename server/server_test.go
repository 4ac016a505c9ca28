package server_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/deadNightTiger/chatty/server"
	"github.com/deadNightTiger/chatty/session"
	"github.com/deadNightTiger/chatty/testutil"
)

// testMux builds the handler around a registered fake session and a database
// handle that is never actually dialed by the endpoints under test.
func testMux(t *testing.T) http.Handler {
	t.Helper()
	listener := testutil.NewRecordingListener()
	net := testutil.NewFakeNetwork()
	sess := session.New(listener, session.Options{Label: "main"}, nil, net.Factory)
	sess.Connect("irc.example.com", "6667", "botuser", "oauth:secret", []string{"#chan"})
	fc := net.Conn("main")
	fc.Register()
	fc.ConfirmJoin("#chan", "botuser")

	database, err := sql.Open("pgx", "postgres://nobody@localhost:1/none")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return server.NewMux(database, sess)
}

func TestStatusEndpoint(t *testing.T) {
	mux := testMux(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		State          string   `json:"state"`
		ConnectionInfo string   `json:"connection_info"`
		Username       string   `json:"username"`
		JoinedChannels []string `json:"joined_channels"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State != "registered" {
		t.Errorf("state = %q", resp.State)
	}
	if resp.Username != "botuser" {
		t.Errorf("username = %q", resp.Username)
	}
	if len(resp.JoinedChannels) != 1 || resp.JoinedChannels[0] != "#chan" {
		t.Errorf("joined = %v", resp.JoinedChannels)
	}
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("no correlation id header")
	}
}

func TestHealthzWithoutDatabase(t *testing.T) {
	mux := testMux(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestChatRecentRequiresChannel(t *testing.T) {
	mux := testMux(t)
	req := httptest.NewRequest(http.MethodGet, "/chat/recent", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	mux := testMux(t)
	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
