package session

import (
	"github.com/deadNightTiger/chatty/transport"
	"github.com/deadNightTiger/chatty/user"
)

// State is the lifecycle state of a connection as seen by the host.
type State int

const (
	// StateOffline means not connected and not trying to connect.
	StateOffline State = iota
	// StateConnecting means a connection attempt is in flight.
	StateConnecting
	// StateRegistered means the server accepted the login.
	StateRegistered
	// StateReconnecting means a retry is scheduled after an unplanned
	// disconnect.
	StateReconnecting
)

// String returns a short label for the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistered:
		return "registered"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "offline"
	}
}

// JoinError classifies why a requested join was refused. These are policy
// results reported to the host, not faults.
type JoinError int

const (
	// JoinErrorNotRegistered means no join is possible because the primary
	// connection is not registered.
	JoinErrorNotRegistered JoinError = iota
	// JoinErrorAlreadyJoined means the channel is already joined.
	JoinErrorAlreadyJoined
	// JoinErrorInvalidName means the requested name is not a valid channel.
	JoinErrorInvalidName
)

// String returns a short label for the join error kind.
func (e JoinError) String() string {
	switch e {
	case JoinErrorAlreadyJoined:
		return "already joined"
	case JoinErrorInvalidName:
		return "invalid name"
	default:
		return "not registered"
	}
}

// Listener receives the session's notifications. All methods are called from
// connection event goroutines or timer goroutines; implementations must be
// safe for concurrent use and should not block.
type Listener interface {
	// OnJoinAttempt fires when a join is sent for a channel.
	OnJoinAttempt(channel string)
	// OnChannelJoined fires once when the local user joins a channel on the
	// primary connection.
	OnChannelJoined(channel string)
	// OnChannelLeft fires when the local user leaves a channel on the
	// primary connection.
	OnChannelLeft(channel string)

	// OnUserJoined and OnUserParted report other users entering and leaving
	// an open channel.
	OnUserJoined(u *user.User)
	OnUserParted(u *user.User)
	// OnUserAdded and OnUserRemoved report userlist membership changes.
	OnUserAdded(u *user.User)
	OnUserRemoved(u *user.User)
	// OnUserUpdated reports a change to a user still in the channel.
	OnUserUpdated(u *user.User)
	// OnUserlistCleared reports that all users of a channel were marked
	// offline; an empty channel means every channel.
	OnUserlistCleared(channel string)

	// OnChannelMessage delivers a chat message. emotes is the raw emotes tag.
	OnChannelMessage(u *user.User, text string, action bool, emotes string)
	// OnWhisper delivers a whispered message.
	OnWhisper(u *user.User, text string, emotes string)
	// OnNotice delivers a server notice.
	OnNotice(message string)
	// OnInfo delivers an informational message; channel may be empty when
	// the source channel is unknown.
	OnInfo(channel, message string)
	// OnGlobalInfo delivers an informational message relevant everywhere,
	// e.g. connection progress.
	OnGlobalInfo(message string)

	// OnBan reports a banned/timed-out user in an open channel.
	OnBan(u *user.User)
	// OnChannelCleared reports that a channel's chat was cleared.
	OnChannelCleared(channel string)
	// OnHostTargetChanged reports hosting changes; empty target means the
	// host ended.
	OnHostTargetChanged(channel, target string)

	// OnRegistered fires when the primary connection registers.
	OnRegistered()
	// OnDisconnected fires when the primary connection ends.
	OnDisconnected(reason transport.DisconnectReason, message string)
	// OnConnectionStateChanged reports lifecycle transitions.
	OnConnectionStateChanged(state State)
	// OnConnectError reports a refused or impossible connect request.
	OnConnectError(message string)

	// OnMod and OnUnmod report moderator grants and revokes in a channel.
	OnMod(u *user.User)
	OnUnmod(u *user.User)
	// OnSpecialUserUpdated fires when the local account's global state
	// changed.
	OnSpecialUserUpdated()

	// OnJoinError reports one offending name of a join request. channel is
	// empty when the error applies to the request as a whole.
	OnJoinError(requested []string, channel string, kind JoinError)
	// OnJoinTimeout reports a join the server never acknowledged.
	OnJoinTimeout(channel string)

	// OnRawReceived and OnRawSent carry prefixed wire lines for diagnostics.
	OnRawReceived(line string)
	OnRawSent(line string)
}

// Commands is the external catalog of slash-style user commands. The session
// routes unrecognized commands to it and consults it when classifying
// moderator-list responses.
type Commands interface {
	// Command handles a user command; it reports whether the command was
	// recognized.
	Command(channel, name, parameters string) bool
	// ClearModsRequested forgets pending moderator-list requests for the
	// channel; an empty channel clears all.
	ClearModsRequested(channel string)
	// WaitingForModsSilent reports whether any moderator-list request is
	// expected to be silent.
	WaitingForModsSilent() bool
	// RemoveModsSilent consumes a silent flag for the channel and reports
	// whether one was set.
	RemoveModsSilent(channel string) bool
}
