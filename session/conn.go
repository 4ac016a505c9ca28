package session

import (
	"sort"
	"sync"
	"time"

	"github.com/deadNightTiger/chatty/telemetry"
	"github.com/deadNightTiger/chatty/transport"
)

// conn wraps one transport connection with the session-side state attached
// to it: lifecycle state, attempt counter, the joined channel set and the
// channels a full userlist was received for.
type conn struct {
	sess  *Session
	label string
	trans transport.Conn
	joins *joinChecker

	mu               sync.Mutex
	state            State
	attempts         int
	lastAttempt      time.Time
	lastAddr         string
	joined           map[string]struct{}
	userlistReceived map[string]struct{}
}

func newConn(s *Session, label string, factory TransportFactory) *conn {
	c := &conn{
		sess:             s,
		label:            label,
		state:            StateOffline,
		joined:           make(map[string]struct{}),
		userlistReceived: make(map[string]struct{}),
	}
	c.trans = factory(label, c)
	c.joins = newJoinChecker(c)
	return c
}

func (c *conn) isPrimary() bool        { return c == c.sess.primary }
func (c *conn) isUserlistSource() bool { return c == c.sess.userlistSource }

// State returns the connection's lifecycle state.
func (c *conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *conn) setState(st State) {
	c.mu.Lock()
	changed := c.state != st
	c.state = st
	c.mu.Unlock()
	if !changed || !c.isPrimary() {
		return
	}
	telemetry.SetConnectionState(int(st))
	c.sess.listener.OnConnectionStateChanged(st)
}

func (c *conn) isRegistered() bool { return c.State() == StateRegistered }
func (c *conn) isOffline() bool    { return c.State() == StateOffline }

func (c *conn) connect(server, ports, username, password string, securedPorts map[int]bool) {
	c.setState(StateConnecting)
	c.trans.Connect(server, ports, username, password, securedPorts)
}

func (c *conn) disconnect() bool {
	return c.trans.Disconnect()
}

func (c *conn) send(line string)                    { c.trans.Send(line) }
func (c *conn) sendMessage(channel, message string) { c.trans.SendMessage(channel, message) }
func (c *conn) sendAction(channel, message string)  { c.trans.SendAction(channel, message) }

// joinChannel requests a join and arms the join timeout. On the primary
// connection it also records the channel as open and reports the attempt.
func (c *conn) joinChannel(channel string) {
	c.joins.attempt(channel)
	if c.isPrimary() {
		c.sess.addOpenChannel(channel)
		c.sess.listener.OnJoinAttempt(channel)
	}
	c.trans.Join(channel)
}

func (c *conn) partChannel(channel string) {
	c.trans.Part(channel)
}

func (c *conn) cancelJoinAttempt(channel string) {
	c.joins.cancel(channel)
}

func (c *conn) onChannel(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.joined[channel]
	return ok
}

func (c *conn) joinedChannels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.joined))
	for ch := range c.joined {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

func (c *conn) addJoined(channel string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joined[channel] = struct{}{}
	return len(c.joined)
}

func (c *conn) removeJoined(channel string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.joined, channel)
	return len(c.joined)
}

func (c *conn) clearJoined() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joined = make(map[string]struct{})
}

func (c *conn) hasUserlistReceived(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.userlistReceived[channel]
	return ok
}

func (c *conn) setUserlistReceived(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userlistReceived[channel] = struct{}{}
}

func (c *conn) forgetUserlistReceived(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.userlistReceived, channel)
}

func (c *conn) clearAllUserlistReceived() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userlistReceived = make(map[string]struct{})
}

func (c *conn) attemptCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *conn) resetAttempts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts = 0
}

func (c *conn) lastConnectionAttemptAgo() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastAttempt.IsZero() {
		return time.Duration(1<<62 - 1)
	}
	return time.Since(c.lastAttempt)
}

// connectionInfo returns "host:port" while registered, "" otherwise.
func (c *conn) connectionInfo() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRegistered {
		return ""
	}
	return c.lastAddr
}
