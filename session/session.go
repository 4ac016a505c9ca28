// Package session is the core of the chat client: it owns the transport
// connections to the chat servers, negotiates capabilities, tracks joined
// channels, reconciles presence and role state across connections, applies
// outbound rate limiting and reports everything of interest to the host
// application through a Listener.
package session

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deadNightTiger/chatty/roomstate"
	"github.com/deadNightTiger/chatty/spam"
	"github.com/deadNightTiger/chatty/telemetry"
	"github.com/deadNightTiger/chatty/transport"
	"github.com/deadNightTiger/chatty/user"
)

// WhisperChannel is the pseudo channel whispered users are filed under.
const WhisperChannel = "$whisper"

// Options are the session toggles consumed from the host's settings store.
type Options struct {
	// Label prefixes connection identities in diagnostics.
	Label string
	// MembershipCap requests the membership capability (JOIN/PART/NAMES of
	// other users) on connect.
	MembershipCap bool
	// CapitalizedNames applies the display-name tag to users.
	CapitalizedNames bool
	// UserlistConnection enables mirroring joined channels onto the
	// secondary connection.
	UserlistConnection bool
	// UserlistBlacklist names channels excluded from secondary mirroring.
	UserlistBlacklist []string
	// SecuredPorts lists ports that use TLS.
	SecuredPorts []int
	// SpamLimit is the outbound rate limit as "<lines>/<seconds>".
	SpamLimit string
	// AutoRequestMods makes the host request moderator lists after joining.
	AutoRequestMods bool
	// TwitchnotifyAsInfo surfaces messages from the twitchnotify sender as
	// channel info instead of chat messages.
	TwitchnotifyAsInfo bool
}

// TransportFactory builds the transport connection for a given identity
// label, delivering its events to listener.
type TransportFactory func(label string, listener transport.Listener) transport.Conn

// Session coordinates the primary and secondary connections, the open
// channel set, reconnection, presence and room state.
type Session struct {
	listener Listener
	opts     Options
	commands Commands

	users         *user.Manager
	channelStates *roomstate.Manager
	spam          *spam.Protection

	primary        *conn
	secondary      *conn
	userlistSource *conn

	mu             sync.Mutex
	server         string
	ports          string
	username       string
	password       string
	autojoin       []string
	openChannels   map[string]struct{}
	blacklist      map[string]struct{}
	reconnectTimer *time.Timer
	whisperConn    bool
	started        bool
}

// New builds a session delivering notifications to listener. The commands
// catalog may be nil when the host has none.
func New(listener Listener, opts Options, commands Commands, factory TransportFactory) *Session {
	if opts.Label == "" {
		opts.Label = "main"
	}
	s := &Session{
		listener:     listener,
		opts:         opts,
		commands:     commands,
		spam:         spam.New(opts.SpamLimit),
		openChannels: make(map[string]struct{}),
		blacklist:    make(map[string]struct{}),
	}
	for _, ch := range opts.UserlistBlacklist {
		s.blacklist[strings.ToLower(ch)] = struct{}{}
	}
	s.users = user.NewManager(func(u *user.User) {
		listener.OnUserUpdated(u)
	})
	s.channelStates = roomstate.NewManager(s.roomStateChanged)
	s.primary = newConn(s, opts.Label, factory)
	s.secondary = newConn(s, opts.Label+"-secondary", factory)
	s.userlistSource = s.primary
	return s
}

func (s *Session) roomStateChanged(st roomstate.State) {
	slog.Debug("room state changed",
		slog.String("channel", st.Channel),
		slog.Bool("submode", st.SubMode),
		slog.Bool("unique", st.UniqueMode),
		slog.Int("slow", st.SlowMode))
}

// Users returns the presence repository.
func (s *Session) Users() *user.Manager { return s.users }

// GetUser returns the record for (channel, name), creating it if needed.
func (s *Session) GetUser(channel, name string) *user.User {
	return s.users.Get(channel, name)
}

// GetExistingUser returns the record for (channel, name) or nil.
func (s *Session) GetExistingUser(channel, name string) *user.User {
	return s.users.GetIfExists(channel, name)
}

// SpecialUser returns the singleton holding the local account's global state.
func (s *Session) SpecialUser() *user.User { return s.users.SpecialUser() }

// Username returns the login name used for connecting.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// ChannelState returns a snapshot of the channel's room state.
func (s *Session) ChannelState(channel string) roomstate.State {
	return s.channelStates.Get(channel)
}

// SetWhisperConnection marks this session as the dedicated whisper
// connection, which accepts notices for channels it has not joined.
func (s *Session) SetWhisperConnection(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whisperConn = v
}

func (s *Session) isWhisperConnection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.whisperConn
}

// AutoRequestModsEnabled reports whether the host wants moderator lists
// requested automatically after joining.
func (s *Session) AutoRequestModsEnabled() bool { return s.opts.AutoRequestMods }

// State returns the primary connection's lifecycle state.
func (s *Session) State() State { return s.primary.State() }

// IsRegistered reports whether the primary connection is registered.
func (s *Session) IsRegistered() bool { return s.primary.isRegistered() }

// IsOffline reports whether the primary connection is offline.
func (s *Session) IsOffline() bool { return s.primary.isOffline() }

// JoinedChannels returns a snapshot of the channels joined on the primary
// connection.
func (s *Session) JoinedChannels() []string { return s.primary.joinedChannels() }

// NumJoinedChannels returns how many channels the primary connection is on.
func (s *Session) NumJoinedChannels() int { return len(s.primary.joinedChannels()) }

// OpenChannels returns a snapshot of the channels the host has open.
func (s *Session) OpenChannels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.openChannels))
	for ch := range s.openChannels {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// IsChannelOpen reports whether the host currently has the channel open.
func (s *Session) IsChannelOpen(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.openChannels[channel]
	return ok
}

func (s *Session) addOpenChannel(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openChannels[channel] = struct{}{}
}

// IsUserlistLoaded reports whether a full userlist was received for the
// channel on the userlist-source connection.
func (s *Session) IsUserlistLoaded(channel string) bool {
	return s.userlistSource.isRegistered() && s.userlistSource.hasUserlistReceived(channel)
}

// ConnectionInfo describes the current connections for display.
func (s *Session) ConnectionInfo() string {
	regular := s.primary.connectionInfo()
	if regular == "" {
		return "Not connected."
	}
	if secondary := s.secondary.connectionInfo(); secondary != "" {
		return fmt.Sprintf("Connected to: %s (%s)", regular, secondary)
	}
	return "Connected to: " + regular
}

// Connect stores the connection parameters for later reconnects and starts
// the primary connection unless it is already connecting or online.
func (s *Session) Connect(server, ports, username, password string, autojoin []string) {
	s.mu.Lock()
	s.server = server
	s.ports = ports
	s.username = username
	s.password = password
	s.autojoin = append([]string(nil), autojoin...)
	s.mu.Unlock()
	s.users.SetLocalUsername(username)
	s.connect()
}

// connect starts the primary connection from the stored parameters.
func (s *Session) connect() {
	switch s.primary.State() {
	case StateOffline, StateReconnecting:
		s.cancelReconnectTimer()
		server, ports, username, password := s.connParams()
		s.primary.connect(server, ports, username, password, s.securedPorts())
	default:
		s.listener.OnConnectError("Already connected or connecting.")
	}
}

func (s *Session) connParams() (server, ports, username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server, s.ports, s.username, s.password
}

func (s *Session) autojoinChannels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.autojoin...)
}

func (s *Session) securedPorts() map[int]bool {
	out := make(map[int]bool, len(s.opts.SecuredPorts))
	for _, p := range s.opts.SecuredPorts {
		out[p] = true
	}
	return out
}

// Disconnect tears the connections down or cancels a pending reconnect. It
// reports whether anything was actually torn down.
func (s *Session) Disconnect() bool {
	if s.cancelReconnectTimer() {
		s.listener.OnGlobalInfo("Canceled reconnecting")
		s.primary.setState(StateOffline)
		s.primary.resetAttempts()
	}
	success := s.primary.disconnect()
	s.secondary.disconnect()
	return success
}

// Quit tears down both connections at shutdown without reconnect handling.
func (s *Session) Quit() {
	s.primary.disconnect()
	s.secondary.disconnect()
}

var channelNameRE = regexp.MustCompile(`^#[a-z0-9_]+$`)

// validChannel normalizes a channel name (leading marker optional,
// lowercased) and reports whether it is valid.
func validChannel(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	if !channelNameRE.MatchString(name) {
		return "", false
	}
	return name, true
}

// JoinChannel requests a join of a single channel, with or without the
// leading marker character.
func (s *Session) JoinChannel(channel string) {
	s.JoinChannels([]string{channel})
}

// JoinChannels validates and deduplicates the requested names, reports an
// error per invalid name, then joins the valid remainder. One bad name never
// blocks the others.
func (s *Session) JoinChannels(channels []string) {
	validSet := make(map[string]struct{})
	var invalid []string
	for _, ch := range channels {
		if normalized, ok := validChannel(ch); ok {
			validSet[normalized] = struct{}{}
		} else {
			invalid = append(invalid, ch)
		}
	}
	for _, ch := range invalid {
		s.listener.OnJoinError(channels, ch, JoinErrorInvalidName)
	}
	valid := make([]string, 0, len(validSet))
	for ch := range validSet {
		valid = append(valid, ch)
	}
	sort.Strings(valid)
	s.joinValidChannels(valid)
}

func (s *Session) joinValidChannels(valid []string) {
	if len(valid) == 0 {
		return
	}
	if !s.primary.isRegistered() {
		s.listener.OnJoinError(valid, "", JoinErrorNotRegistered)
		return
	}
	for _, ch := range valid {
		if s.primary.onChannel(ch) {
			s.listener.OnJoinError(valid, ch, JoinErrorAlreadyJoined)
		} else {
			s.primary.joinChannel(ch)
		}
	}
}

// PartChannel leaves the channel if currently on it.
func (s *Session) PartChannel(channel string) {
	if s.OnChannel(channel) {
		s.primary.partChannel(channel)
	}
}

// CloseChannel parts the channel, removes it from the open set, clears its
// presence records and cancels any pending join.
func (s *Session) CloseChannel(channel string) {
	s.PartChannel(channel)
	s.mu.Lock()
	delete(s.openChannels, channel)
	s.mu.Unlock()
	s.users.Clear(channel)
	s.primary.cancelJoinAttempt(channel)
}

// OnChannel reports whether the primary connection is on the channel.
func (s *Session) OnChannel(channel string) bool {
	return s.primary.onChannel(channel)
}

// OnChannelInform is OnChannel with an informational message to the host
// when not on the channel.
func (s *Session) OnChannelInform(channel string) bool {
	on := s.primary.onChannel(channel)
	if !on {
		if channel == "" {
			s.listener.OnInfo("", "Not in a channel")
		} else {
			s.listener.OnInfo("", "Not in this channel ("+channel+")")
		}
	}
	return on
}

// SetAllOffline marks every known user of every channel offline.
func (s *Session) SetAllOffline() {
	s.users.SetAllOffline("")
}

// SendRaw transmits a raw protocol line on the primary connection.
func (s *Session) SendRaw(text string) {
	s.primary.send(text)
}

// SendSpamProtectedMessage sends a channel message if the rate limiter
// permits. A rejected send performs no network action and reports false;
// this is policy, not a fault.
func (s *Session) SendSpamProtectedMessage(channel, message string, action bool) bool {
	if !s.spam.Check() {
		telemetry.Inc(telemetry.SendsBlocked)
		return false
	}
	s.spam.Increase()
	telemetry.Inc(telemetry.MessagesSent)
	if action {
		s.primary.sendAction(channel, message)
	} else {
		s.primary.sendMessage(channel, message)
	}
	return true
}

// SendCommandMessage sends a spam-protected command to a channel and echoes
// either the given confirmation or a rejection notice.
func (s *Session) SendCommandMessage(channel, message, echo string) {
	if s.SendSpamProtectedMessage(channel, message, false) {
		s.listener.OnInfo(channel, echo)
	} else {
		s.listener.OnInfo("", "# Command not sent to prevent ban: "+message)
	}
}

// Command routes a user command, handling the session's own debug commands
// before the external catalog. It reports whether the command was handled.
func (s *Session) Command(channel, command, parameters string) bool {
	if command == "getsecondarychannels" {
		s.Info(strings.Join(s.secondary.joinedChannels(), ", "))
		return true
	}
	if s.commands != nil {
		return s.commands.Command(channel, command, parameters)
	}
	return false
}

// Info reports an informational message without channel context.
func (s *Session) Info(message string) {
	s.listener.OnInfo("", message)
}

// ChannelInfo reports an informational message for a channel.
func (s *Session) ChannelInfo(channel, message string) {
	s.listener.OnInfo(channel, message)
}

// userJoined marks the (channel, name) user online, creating the record if
// needed, and reports it as added when it was not online before.
func (s *Session) userJoined(channel, name string) *user.User {
	return s.userCameOnline(s.users.Get(channel, name))
}

func (s *Session) userCameOnline(u *user.User) *user.User {
	if u.SetOnline(true) {
		if u.Channel != "" && strings.TrimPrefix(u.Channel, "#") == u.Name {
			u.SetBroadcaster(true)
		}
		s.listener.OnUserAdded(u)
	}
	return u
}

// localUserJoined marks the local user online in the channel.
func (s *Session) localUserJoined(channel string) *user.User {
	return s.userJoined(channel, s.users.LocalUsername())
}

// userOffline marks the (channel, name) user offline and reports it removed.
// The record is kept for later reference.
func (s *Session) userOffline(channel, name string) *user.User {
	u := s.users.Get(channel, name)
	u.SetOnline(false)
	s.listener.OnUserRemoved(u)
	return u
}

func (s *Session) isBlacklisted(channel string) bool {
	_, ok := s.blacklist[strings.ToLower(channel)]
	return ok
}
