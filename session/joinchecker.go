package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/deadNightTiger/chatty/telemetry"
)

// joinTimeout is how long a sent join may go unacknowledged before it is
// reported as stuck.
const joinTimeout = 15 * time.Second

// joinChecker tracks pending joins per channel and reports the ones the
// server never answered. Purely diagnostic; it triggers no retry.
type joinChecker struct {
	conn    *conn
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func newJoinChecker(c *conn) *joinChecker {
	return &joinChecker{conn: c, timeout: joinTimeout, pending: make(map[string]*time.Timer)}
}

// attempt arms the timeout for a channel, replacing any previous one so at
// most one is pending per channel.
func (j *joinChecker) attempt(channel string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if t, ok := j.pending[channel]; ok {
		t.Stop()
	}
	j.pending[channel] = time.AfterFunc(j.timeout, func() {
		j.onTimeout(channel)
	})
}

// cancel clears the pending timeout for a channel.
func (j *joinChecker) cancel(channel string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if t, ok := j.pending[channel]; ok {
		t.Stop()
		delete(j.pending, channel)
	}
}

// cancelAll clears every pending timeout, e.g. on disconnect.
func (j *joinChecker) cancelAll() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for ch, t := range j.pending {
		t.Stop()
		delete(j.pending, ch)
	}
}

func (j *joinChecker) onTimeout(channel string) {
	j.mu.Lock()
	_, ok := j.pending[channel]
	delete(j.pending, channel)
	j.mu.Unlock()
	if !ok {
		return
	}
	telemetry.Inc(telemetry.JoinTimeouts)
	slog.Warn("join not acknowledged",
		slog.String("conn", j.conn.label),
		slog.String("channel", channel))
	if j.conn.isPrimary() {
		j.conn.sess.listener.OnJoinTimeout(channel)
	}
}
