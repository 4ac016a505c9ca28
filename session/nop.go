package session

import (
	"github.com/deadNightTiger/chatty/transport"
	"github.com/deadNightTiger/chatty/user"
)

// NopListener implements Listener with no-ops. Embed it to implement only
// the notifications you care about.
type NopListener struct{}

var _ Listener = NopListener{}

func (NopListener) OnJoinAttempt(channel string) {}
func (NopListener) OnChannelJoined(channel string) {}
func (NopListener) OnChannelLeft(channel string) {}
func (NopListener) OnUserJoined(u *user.User) {}
func (NopListener) OnUserParted(u *user.User) {}
func (NopListener) OnUserAdded(u *user.User) {}
func (NopListener) OnUserRemoved(u *user.User) {}
func (NopListener) OnUserUpdated(u *user.User) {}
func (NopListener) OnUserlistCleared(channel string) {}
func (NopListener) OnChannelMessage(u *user.User, text string, action bool, emotes string) {}
func (NopListener) OnWhisper(u *user.User, text string, emotes string) {}
func (NopListener) OnNotice(message string) {}
func (NopListener) OnInfo(channel, message string) {}
func (NopListener) OnGlobalInfo(message string) {}
func (NopListener) OnBan(u *user.User) {}
func (NopListener) OnChannelCleared(channel string) {}
func (NopListener) OnHostTargetChanged(channel, target string) {}
func (NopListener) OnRegistered() {}
func (NopListener) OnDisconnected(reason transport.DisconnectReason, message string) {}
func (NopListener) OnConnectionStateChanged(state State) {}
func (NopListener) OnConnectError(message string) {}
func (NopListener) OnMod(u *user.User) {}
func (NopListener) OnUnmod(u *user.User) {}
func (NopListener) OnSpecialUserUpdated() {}
func (NopListener) OnJoinError(requested []string, channel string, kind JoinError) {}
func (NopListener) OnJoinTimeout(channel string) {}
func (NopListener) OnRawReceived(line string) {}
func (NopListener) OnRawSent(line string) {}
