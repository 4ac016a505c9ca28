package session

import (
	"fmt"
	"time"

	"github.com/deadNightTiger/chatty/telemetry"
)

// reconnectionDelays holds the delay in seconds before retry attempt n
// (1-based); attempts past the end reuse the last entry.
var reconnectionDelays = []int{1, 5, 5, 10, 10, 60}

// maxReconnectionAttempts is how often reconnecting is tried before
// giving up.
const maxReconnectionAttempts = 20

// reconnectDelay returns the wait before the given attempt.
func reconnectDelay(attempt int) time.Duration {
	if attempt < 0 || attempt >= len(reconnectionDelays) {
		attempt = len(reconnectionDelays) - 1
	}
	return time.Duration(reconnectionDelays[attempt]) * time.Second
}

// startReconnectTimer schedules a reconnect of the primary connection based
// on its attempt count. At most one timer is active at a time.
func (s *Session) startReconnectTimer() {
	attempts := s.primary.attemptCount()
	if attempts > maxReconnectionAttempts {
		telemetry.Inc(telemetry.ReconnectsGivenUp)
		s.listener.OnGlobalInfo("Gave up reconnecting. :(")
		return
	}
	delay := reconnectDelay(attempts)
	s.mu.Lock()
	if s.reconnectTimer != nil {
		s.mu.Unlock()
		return
	}
	s.reconnectTimer = time.AfterFunc(delay, s.reconnect)
	s.mu.Unlock()
	s.primary.setState(StateReconnecting)
	s.listener.OnGlobalInfo(fmt.Sprintf("Attempting to reconnect in %d seconds.. (%d/%d)",
		int(delay.Seconds()), attempts, maxReconnectionAttempts))
}

// cancelReconnectTimer stops a pending reconnect. It reports whether a timer
// was actually canceled before firing.
func (s *Session) cancelReconnectTimer() bool {
	s.mu.Lock()
	t := s.reconnectTimer
	s.reconnectTimer = nil
	s.mu.Unlock()
	return t != nil && t.Stop()
}

func (s *Session) reconnect() {
	s.mu.Lock()
	s.reconnectTimer = nil
	s.mu.Unlock()
	s.connect()
}
