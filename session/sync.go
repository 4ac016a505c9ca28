package session

import (
	"context"
	"log/slog"
	"time"
)

// secondaryUpdateInterval is how often the secondary connection is
// reconciled against the primary.
const secondaryUpdateInterval = 10 * time.Second

// Start runs the session's periodic maintenance until ctx is done, then
// shuts the connections down. Repeated calls are no-ops.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	go s.run(ctx)
}

func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(secondaryUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Quit()
			return
		case <-ticker.C:
			s.UpdateSecondaryConnection()
		}
	}
}

// UpdateSecondaryConnection converges the secondary connection toward the
// primary's joined channels minus the blacklist. Each pass is idempotent:
// it only issues the joins and parts needed to close the gap. Start runs
// this periodically; calling it in between is harmless.
func (s *Session) UpdateSecondaryConnection() {
	if !s.opts.UserlistConnection || !s.primary.isRegistered() {
		if s.secondary.isRegistered() {
			slog.Debug("disconnecting secondary connection")
			s.secondary.disconnect()
		}
		return
	}
	if s.secondary.isOffline() {
		// Back off between attempts on the same schedule as reconnects.
		if s.secondary.lastConnectionAttemptAgo() > reconnectDelay(s.secondary.attemptCount()) {
			server, ports, username, password := s.connParams()
			s.secondary.connect(server, ports, username, password, s.securedPorts())
		}
		return
	}
	if !s.secondary.isRegistered() {
		return
	}
	stale := make(map[string]struct{})
	for _, ch := range s.secondary.joinedChannels() {
		stale[ch] = struct{}{}
	}
	for _, ch := range s.primary.joinedChannels() {
		if s.isBlacklisted(ch) {
			continue
		}
		if !s.secondary.onChannel(ch) {
			s.secondary.joinChannel(ch)
		}
		delete(stale, ch)
	}
	for ch := range stale {
		s.secondary.partChannel(ch)
	}
}
