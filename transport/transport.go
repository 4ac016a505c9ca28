// Package transport defines the boundary between the chat session core and
// the line-oriented IRC connections it drives. A Conn owns socket I/O and
// wire parsing and reports semantic events to its Listener; the session owns
// everything above that (joined-channel tracking, reconnection policy,
// presence reconciliation).
//
// Lifecycle calls on a Conn are fire-and-forget: they never block on network
// I/O, and their outcomes arrive asynchronously as Listener events. Each Conn
// delivers events sequentially from a single goroutine.
package transport

// DisconnectReason classifies why a connection ended.
type DisconnectReason int

const (
	// ReasonUnknown is used when the cause of the disconnect is unclear.
	ReasonUnknown DisconnectReason = iota
	// ReasonRequested means the local side asked for the disconnect.
	ReasonRequested
	// ReasonConnectError means the connection could not be established.
	ReasonConnectError
	// ReasonConnectionLost means an established link dropped unexpectedly.
	ReasonConnectionLost
)

// String returns a short human-readable label for the reason.
func (r DisconnectReason) String() string {
	switch r {
	case ReasonRequested:
		return "requested"
	case ReasonConnectError:
		return "connect error"
	case ReasonConnectionLost:
		return "connection lost"
	default:
		return "unknown"
	}
}

// Listener receives semantic events from a Conn. Tag maps may be nil, and any
// individual tag may be absent; implementations must not treat absence as a
// negative assertion.
type Listener interface {
	// OnConnectionAttempt reports that a connect was initiated. An empty
	// server means the stored connection data was unusable.
	OnConnectionAttempt(server string, port int, secured bool)
	// OnConnect fires once the link is up, before registration completes.
	OnConnect()
	// OnRegistered fires when the server accepted the login.
	OnRegistered()
	// OnDisconnect fires when the connection ends for any reason.
	OnDisconnect(reason DisconnectReason, message string)

	// OnUserlist delivers a membership snapshot chunk for a channel.
	OnUserlist(channel string, names []string)
	// OnJoin reports a user joining a channel.
	OnJoin(channel, name, prefix string)
	// OnPart reports a user leaving a channel.
	OnPart(channel, name, prefix, message string)
	// OnModeChange reports a channel mode grant or revoke on a user.
	OnModeChange(channel, name string, added bool, mode, prefix string)

	// OnChannelMessage delivers a PRIVMSG to a channel.
	OnChannelMessage(channel, name, sender, text string, tags map[string]string, action bool)
	// OnQueryMessage delivers a PRIVMSG addressed directly to the local user.
	OnQueryMessage(name, sender, text string)
	// OnNotice delivers a server notice without channel context.
	OnNotice(message string)
	// OnChannelNotice delivers a NOTICE to a channel.
	OnChannelNotice(channel, text string, tags map[string]string)

	// OnUserstate delivers USERSTATE tags for the local user in a channel.
	OnUserstate(channel string, tags map[string]string)
	// OnGlobalUserstate delivers GLOBALUSERSTATE tags for the local user.
	OnGlobalUserstate(tags map[string]string)
	// OnClearChat reports a chat clear; an empty name clears the channel.
	OnClearChat(channel, name string)
	// OnChannelCommand delivers channel-scoped protocol commands such as
	// ROOMSTATE and HOSTTARGET.
	OnChannelCommand(tags map[string]string, name, channel, command, trailing string)
	// OnCommand delivers other named commands, e.g. WHISPER.
	OnCommand(name, command, parameter, text string, tags map[string]string)

	// OnRawReceived and OnRawSent carry wire lines for diagnostics. Outgoing
	// authentication lines are redacted before delivery.
	OnRawReceived(line string)
	OnRawSent(line string)
}

// Conn is a single transport connection.
type Conn interface {
	// Connect starts connecting to one of the given ports (comma-separated
	// list) on server. Ports contained in securedPorts use TLS. Outcomes are
	// delivered as events.
	Connect(server, ports, username, password string, securedPorts map[int]bool)
	// Disconnect requests a shutdown of the connection. It reports whether
	// there was an active connection to shut down.
	Disconnect() bool
	// Send transmits a raw protocol line.
	Send(line string)
	// SendMessage sends a channel message.
	SendMessage(channel, text string)
	// SendAction sends a channel action ("/me") message.
	SendAction(channel, text string)
	// Join asks the server to join a channel.
	Join(channel string)
	// Part asks the server to leave a channel.
	Part(channel string)
}
