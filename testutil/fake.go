// Package testutil provides test doubles shared across packages: a fake
// transport network, a recording session listener and a scriptable command
// catalog.
package testutil

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/deadNightTiger/chatty/session"
	"github.com/deadNightTiger/chatty/transport"
	"github.com/deadNightTiger/chatty/user"
)

// FakeNetwork hands out FakeConns through its Factory and keeps them
// addressable by label so tests can drive server events.
type FakeNetwork struct {
	mu    sync.Mutex
	conns map[string]*FakeConn
}

func NewFakeNetwork() *FakeNetwork {
	return &FakeNetwork{conns: make(map[string]*FakeConn)}
}

// Factory is a session.TransportFactory producing FakeConns.
func (n *FakeNetwork) Factory(label string, listener transport.Listener) transport.Conn {
	c := &FakeConn{Label: label, Listener: listener}
	n.mu.Lock()
	n.conns[label] = c
	n.mu.Unlock()
	return c
}

// Conn returns the connection created for label, or nil.
func (n *FakeNetwork) Conn(label string) *FakeConn {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.conns[label]
}

// FakeConn implements transport.Conn by recording outbound commands. Tests
// simulate the server by calling Listener methods, either directly or via
// the helpers below.
type FakeConn struct {
	Label    string
	Listener transport.Listener

	mu        sync.Mutex
	commands  []string
	connected bool
}

var _ transport.Conn = (*FakeConn)(nil)

func (c *FakeConn) record(cmd string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, cmd)
}

// Commands returns a snapshot of the recorded outbound commands.
func (c *FakeConn) Commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.commands...)
}

// ClearCommands discards the recorded commands.
func (c *FakeConn) ClearCommands() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = nil
}

// Connected reports whether Connect was called without a Disconnect since.
func (c *FakeConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *FakeConn) Connect(server, ports, username, password string, securedPorts map[int]bool) {
	port := 0
	if p, _, _ := strings.Cut(ports, ","); p != "" {
		port, _ = strconv.Atoi(p)
	}
	c.mu.Lock()
	c.connected = true
	c.commands = append(c.commands, fmt.Sprintf("connect %s:%d as %s", server, port, username))
	c.mu.Unlock()
	c.Listener.OnConnectionAttempt(server, port, securedPorts[port])
}

func (c *FakeConn) Disconnect() bool {
	c.mu.Lock()
	active := c.connected
	c.connected = false
	c.mu.Unlock()
	if active {
		c.Listener.OnDisconnect(transport.ReasonRequested, "")
	}
	return active
}

func (c *FakeConn) Send(line string) { c.record("raw " + line) }
func (c *FakeConn) SendMessage(channel, text string) { c.record("msg " + channel + " " + text) }
func (c *FakeConn) SendAction(channel, text string) { c.record("action " + channel + " " + text) }
func (c *FakeConn) Join(channel string) { c.record("join " + channel) }
func (c *FakeConn) Part(channel string) { c.record("part " + channel) }

// Register simulates a completed login.
func (c *FakeConn) Register() {
	c.Listener.OnConnect()
	c.Listener.OnRegistered()
}

// Lose simulates the link dropping unexpectedly.
func (c *FakeConn) Lose() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.Listener.OnDisconnect(transport.ReasonConnectionLost, "")
}

// ConfirmJoin simulates the server acknowledging a join for name.
func (c *FakeConn) ConfirmJoin(channel, name string) {
	c.Listener.OnJoin(channel, name, name)
}

// ConfirmPart simulates the server acknowledging a part for name.
func (c *FakeConn) ConfirmPart(channel, name string) {
	c.Listener.OnPart(channel, name, name, "")
}

// RecordingListener implements session.Listener by recording every
// notification as a formatted event string.
type RecordingListener struct {
	mu     sync.Mutex
	events []string
}

var _ session.Listener = (*RecordingListener)(nil)

func NewRecordingListener() *RecordingListener {
	return &RecordingListener{}
}

func (l *RecordingListener) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

// Events returns a snapshot of the recorded events in order.
func (l *RecordingListener) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// Clear discards the recorded events.
func (l *RecordingListener) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// Has reports whether the exact event was recorded.
func (l *RecordingListener) Has(event string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == event {
			return true
		}
	}
	return false
}

// Count returns how many recorded events start with prefix.
func (l *RecordingListener) Count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (l *RecordingListener) OnJoinAttempt(channel string) { l.add("join-attempt %s", channel) }
func (l *RecordingListener) OnChannelJoined(channel string) { l.add("channel-joined %s", channel) }
func (l *RecordingListener) OnChannelLeft(channel string) { l.add("channel-left %s", channel) }

func (l *RecordingListener) OnUserJoined(u *user.User) { l.add("user-joined %s %s", u.Channel, u.Name) }
func (l *RecordingListener) OnUserParted(u *user.User) { l.add("user-parted %s %s", u.Channel, u.Name) }
func (l *RecordingListener) OnUserAdded(u *user.User) { l.add("user-added %s %s", u.Channel, u.Name) }
func (l *RecordingListener) OnUserRemoved(u *user.User) {
	l.add("user-removed %s %s", u.Channel, u.Name)
}
func (l *RecordingListener) OnUserUpdated(u *user.User) {
	l.add("user-updated %s %s", u.Channel, u.Name)
}
func (l *RecordingListener) OnUserlistCleared(channel string) { l.add("userlist-cleared %s", channel) }

func (l *RecordingListener) OnChannelMessage(u *user.User, text string, action bool, emotes string) {
	if action {
		l.add("action %s %s: %s", u.Channel, u.Name, text)
	} else {
		l.add("message %s %s: %s", u.Channel, u.Name, text)
	}
}
func (l *RecordingListener) OnWhisper(u *user.User, text, emotes string) {
	l.add("whisper %s: %s", u.Name, text)
}
func (l *RecordingListener) OnNotice(message string) { l.add("notice %s", message) }
func (l *RecordingListener) OnInfo(channel, message string) { l.add("info [%s] %s", channel, message) }
func (l *RecordingListener) OnGlobalInfo(message string) { l.add("global-info %s", message) }

func (l *RecordingListener) OnBan(u *user.User) { l.add("ban %s %s", u.Channel, u.Name) }
func (l *RecordingListener) OnChannelCleared(channel string) { l.add("channel-cleared %s", channel) }
func (l *RecordingListener) OnHostTargetChanged(channel, target string) {
	l.add("host %s %s", channel, target)
}

func (l *RecordingListener) OnRegistered() { l.add("registered") }
func (l *RecordingListener) OnDisconnected(reason transport.DisconnectReason, message string) {
	l.add("disconnected %s", reason)
}
func (l *RecordingListener) OnConnectionStateChanged(state session.State) {
	l.add("state %s", state)
}
func (l *RecordingListener) OnConnectError(message string) { l.add("connect-error %s", message) }

func (l *RecordingListener) OnMod(u *user.User) { l.add("mod %s %s", u.Channel, u.Name) }
func (l *RecordingListener) OnUnmod(u *user.User) { l.add("unmod %s %s", u.Channel, u.Name) }
func (l *RecordingListener) OnSpecialUserUpdated() { l.add("special-user-updated") }
func (l *RecordingListener) OnJoinTimeout(channel string) { l.add("join-timeout %s", channel) }
func (l *RecordingListener) OnJoinError(requested []string, channel string, kind session.JoinError) {
	l.add("join-error %s [%s]", kind, channel)
}

func (l *RecordingListener) OnRawReceived(line string) {}
func (l *RecordingListener) OnRawSent(line string) {}

// FakeCommands is a scriptable session.Commands implementation.
type FakeCommands struct {
	mu       sync.Mutex
	handled  map[string]bool
	silent   map[string]bool
	waiting  bool
	received []string
	cleared  []string
}

var _ session.Commands = (*FakeCommands)(nil)

func NewFakeCommands() *FakeCommands {
	return &FakeCommands{handled: make(map[string]bool), silent: make(map[string]bool)}
}

// Handle marks a command name as recognized.
func (f *FakeCommands) Handle(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handled[name] = true
}

// SetModsSilent flags a pending silent moderator-list request for channel.
func (f *FakeCommands) SetModsSilent(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silent[channel] = true
	f.waiting = true
}

// Received returns the commands routed to the catalog.
func (f *FakeCommands) Received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

// Cleared returns the channels ClearModsRequested was called for.
func (f *FakeCommands) Cleared() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cleared...)
}

func (f *FakeCommands) Command(channel, name, parameters string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, name)
	return f.handled[name]
}

func (f *FakeCommands) ClearModsRequested(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, channel)
	if channel == "" {
		f.silent = make(map[string]bool)
		f.waiting = false
	}
}

func (f *FakeCommands) WaitingForModsSilent() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting
}

func (f *FakeCommands) RemoveModsSilent(channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	was := f.silent[channel]
	delete(f.silent, channel)
	f.waiting = len(f.silent) > 0
	return was
}
