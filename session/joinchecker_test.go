package session

import (
	"sync"
	"testing"
	"time"
)

type joinTimeoutRecorder struct {
	NopListener

	mu       sync.Mutex
	channels []string
}

func (r *joinTimeoutRecorder) OnJoinTimeout(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
}

func (r *joinTimeoutRecorder) timeouts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.channels...)
}

// checkerConn builds a bare connection with a short join timeout, marked as
// primary or not.
func checkerConn(rec *joinTimeoutRecorder, primary bool) *conn {
	sess := &Session{listener: rec}
	c := &conn{
		sess:             sess,
		label:            "main",
		joined:           make(map[string]struct{}),
		userlistReceived: make(map[string]struct{}),
	}
	if primary {
		sess.primary = c
	}
	c.joins = newJoinChecker(c)
	c.joins.timeout = 5 * time.Millisecond
	return c
}

func waitForTimeouts(t *testing.T, rec *joinTimeoutRecorder, want int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := rec.timeouts(); len(got) >= want {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d join timeouts, got %v", want, rec.timeouts())
	return nil
}

func TestJoinCheckerTimeout(t *testing.T) {
	rec := &joinTimeoutRecorder{}
	c := checkerConn(rec, true)

	c.joins.attempt("#chan")
	got := waitForTimeouts(t, rec, 1)
	if len(got) != 1 || got[0] != "#chan" {
		t.Errorf("timeouts = %v, want [#chan]", got)
	}

	// The expired attempt is gone; a second expiry needs a new attempt.
	time.Sleep(20 * time.Millisecond)
	if got := rec.timeouts(); len(got) != 1 {
		t.Errorf("timeout reported again without a new attempt: %v", got)
	}
}

func TestJoinCheckerCancel(t *testing.T) {
	rec := &joinTimeoutRecorder{}
	c := checkerConn(rec, true)

	c.joins.attempt("#chan")
	c.joins.cancel("#chan")
	time.Sleep(20 * time.Millisecond)
	if got := rec.timeouts(); len(got) != 0 {
		t.Errorf("canceled attempt still timed out: %v", got)
	}
}

func TestJoinCheckerCancelAll(t *testing.T) {
	rec := &joinTimeoutRecorder{}
	c := checkerConn(rec, true)

	c.joins.attempt("#one")
	c.joins.attempt("#two")
	c.joins.cancelAll()
	time.Sleep(20 * time.Millisecond)
	if got := rec.timeouts(); len(got) != 0 {
		t.Errorf("attempts survived cancelAll: %v", got)
	}
}

func TestJoinCheckerReplacesPendingAttempt(t *testing.T) {
	rec := &joinTimeoutRecorder{}
	c := checkerConn(rec, true)

	c.joins.attempt("#chan")
	c.joins.attempt("#chan")
	waitForTimeouts(t, rec, 1)
	time.Sleep(20 * time.Millisecond)
	if got := rec.timeouts(); len(got) != 1 {
		t.Errorf("replaced attempt fired twice: %v", got)
	}
}

func TestJoinCheckerSecondaryStaysQuiet(t *testing.T) {
	rec := &joinTimeoutRecorder{}
	c := checkerConn(rec, false)

	c.joins.attempt("#chan")
	time.Sleep(30 * time.Millisecond)
	if got := rec.timeouts(); len(got) != 0 {
		t.Errorf("timeout on non-primary connection reported to host: %v", got)
	}
}
