package session

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/deadNightTiger/chatty/telemetry"
	"github.com/deadNightTiger/chatty/transport"
)

// conn implements transport.Listener; the handlers below turn wire events
// into session state changes and host notifications.
var _ transport.Listener = (*conn)(nil)

func (c *conn) OnConnectionAttempt(server string, port int, secured bool) {
	c.mu.Lock()
	c.attempts++
	c.lastAttempt = time.Now()
	c.lastAddr = fmt.Sprintf("%s:%d", server, port)
	c.mu.Unlock()
	telemetry.Inc(telemetry.ConnectAttempts)
	if !c.isPrimary() {
		return
	}
	if server == "" {
		c.sess.listener.OnGlobalInfo("Failed to connect (server or port invalid)")
		return
	}
	info := fmt.Sprintf("Trying to connect to %s:%d", server, port)
	if secured {
		info += " (secured)"
	}
	c.sess.listener.OnGlobalInfo(info)
}

func (c *conn) OnConnect() {
	c.clearAllUserlistReceived()
}

func (c *conn) OnRegistered() {
	c.mu.Lock()
	c.attempts = 1
	since := time.Since(c.lastAttempt)
	c.mu.Unlock()
	c.setState(StateRegistered)
	if !c.isPrimary() {
		return
	}
	if telemetry.RegistrationDuration != nil {
		telemetry.RegistrationDuration.Observe(since.Seconds())
	}
	if open := c.sess.OpenChannels(); len(open) > 0 {
		c.sess.JoinChannels(open)
	} else {
		c.sess.JoinChannels(c.sess.autojoinChannels())
	}
	c.sess.listener.OnRegistered()
}

func (c *conn) OnDisconnect(reason transport.DisconnectReason, message string) {
	c.clearJoined()
	c.joins.cancelAll()
	c.setState(StateOffline)
	telemetry.Inc(telemetry.Disconnects)
	slog.Info("disconnected",
		slog.String("conn", c.label),
		slog.String("reason", reason.String()),
		slog.String("message", message))
	if !c.isPrimary() {
		return
	}
	telemetry.SetJoinedChannels(0)
	c.sess.channelStates.ResetAll()
	if c.sess.commands != nil {
		c.sess.commands.ClearModsRequested("")
	}
	c.sess.listener.OnGlobalInfo("Disconnected" + disconnectInfo(reason, message))
	if reason == transport.ReasonRequested {
		c.resetAttempts()
	} else {
		c.sess.startReconnectTimer()
	}
	c.sess.listener.OnDisconnected(reason, message)
}

func disconnectInfo(reason transport.DisconnectReason, message string) string {
	if message == "" {
		return fmt.Sprintf(" (%s)", reason)
	}
	return fmt.Sprintf(" (%s: %s)", reason, message)
}

func (c *conn) OnUserlist(channel string, names []string) {
	if !c.isUserlistSource() || !c.sess.IsChannelOpen(channel) {
		return
	}
	// A snapshot of just the local user means the membership capability is
	// inactive; keep whatever presence state already exists.
	if len(names) == 1 && strings.EqualFold(names[0], c.sess.users.LocalUsername()) {
		c.sess.localUserJoined(channel)
		return
	}
	if !c.hasUserlistReceived(channel) {
		c.clearUserlist(channel)
	}
	c.setUserlistReceived(channel)
	for _, name := range names {
		c.sess.userJoined(channel, name)
	}
}

// clearUserlist marks every user of the channel offline before the first
// snapshot chunk repopulates it.
func (c *conn) clearUserlist(channel string) {
	c.sess.users.SetAllOffline(channel)
	c.sess.listener.OnUserlistCleared(channel)
}

func (c *conn) OnJoin(channel, name, prefix string) {
	if strings.EqualFold(name, c.sess.users.LocalUsername()) {
		c.joins.cancel(channel)
		slog.Debug("joined channel", slog.String("conn", c.label), slog.String("channel", channel))
		alreadyOn := c.onChannel(channel)
		n := c.addJoined(channel)
		if c.isPrimary() {
			telemetry.SetJoinedChannels(n)
			if !alreadyOn {
				telemetry.Inc(telemetry.ChannelsJoined)
				c.sess.listener.OnChannelJoined(channel)
			}
		}
		c.sess.userJoined(channel, name)
		return
	}
	if !c.isUserlistSource() || !c.sess.IsChannelOpen(channel) {
		return
	}
	// A join before the first snapshot implies the snapshot is on its way;
	// reset the channel so the stale list does not linger.
	if !c.hasUserlistReceived(channel) {
		c.clearUserlist(channel)
		c.sess.localUserJoined(channel)
	}
	u := c.sess.userJoined(channel, name)
	c.sess.listener.OnUserJoined(u)
	c.setUserlistReceived(channel)
}

func (c *conn) OnPart(channel, name, prefix, message string) {
	if name == "" || !c.onChannel(channel) {
		return
	}
	if strings.EqualFold(name, c.sess.users.LocalUsername()) {
		c.joins.cancel(channel)
		n := c.removeJoined(channel)
		if c.isPrimary() {
			c.sess.userOffline(channel, name)
			if c.sess.commands != nil {
				c.sess.commands.ClearModsRequested(channel)
			}
			c.sess.users.Clear(channel)
			c.sess.channelStates.Reset(channel)
			telemetry.SetJoinedChannels(n)
			c.sess.listener.OnChannelLeft(channel)
		}
		if c.isUserlistSource() {
			c.forgetUserlistReceived(channel)
		}
		return
	}
	if c.isUserlistSource() && c.sess.IsChannelOpen(channel) {
		u := c.sess.userOffline(channel, name)
		c.sess.listener.OnUserParted(u)
	}
}

func (c *conn) OnModeChange(channel, name string, added bool, mode, prefix string) {
	if !c.onChannel(channel) {
		return
	}
	u := c.sess.users.Get(channel, name)
	if mode == "o" {
		if u.SetModerator(added) && c.isPrimary() {
			if added {
				c.sess.listener.OnMod(u)
			} else {
				c.sess.listener.OnUnmod(u)
			}
		}
		// A mode change before the userlist arrived still proves presence.
		if added && !c.sess.IsUserlistLoaded(channel) {
			c.sess.userCameOnline(u)
		}
	}
	if u.Online() {
		c.sess.listener.OnUserUpdated(u)
	}
}

func (c *conn) OnChannelMessage(channel, name, sender, text string, tags map[string]string, action bool) {
	if !c.isPrimary() || name == "" || !c.onChannel(channel) {
		return
	}
	telemetry.Inc(telemetry.MessagesReceived)
	if c.sess.opts.TwitchnotifyAsInfo && name == "twitchnotify" {
		c.sess.listener.OnInfo(channel, "[Notification] "+text)
		return
	}
	if name == "jtv" {
		c.specialMessage(text, channel)
		return
	}
	u := c.sess.userJoined(channel, name)
	c.updateUserFromTags(u, tags)
	c.sess.listener.OnChannelMessage(u, text, action, tags["emotes"])
}

func (c *conn) OnQueryMessage(name, sender, text string) {
	if !c.isPrimary() {
		return
	}
	if name == "jtv" {
		c.specialMessage(text, "")
	}
}

func (c *conn) OnNotice(message string) {
	if !c.isPrimary() {
		return
	}
	c.sess.listener.OnNotice(message)
}

func (c *conn) OnChannelNotice(channel, text string, tags map[string]string) {
	if !c.isPrimary() {
		return
	}
	if c.onChannel(channel) || c.sess.isWhisperConnection() {
		c.infoMessage(channel, text)
	}
}

func (c *conn) OnUserstate(channel string, tags map[string]string) {
	if !c.onChannel(channel) {
		return
	}
	c.updateUserstate(channel, tags)
}

func (c *conn) OnGlobalUserstate(tags map[string]string) {
	c.updateUserstate("", tags)
}

func (c *conn) OnClearChat(channel, name string) {
	if !c.isPrimary() {
		return
	}
	if name == "" {
		c.sess.listener.OnChannelCleared(channel)
		return
	}
	if u := c.sess.users.GetIfExists(channel, name); u != nil && c.sess.IsChannelOpen(channel) {
		c.sess.listener.OnBan(u)
	}
}

func (c *conn) OnChannelCommand(tags map[string]string, name, channel, command, trailing string) {
	if !c.isPrimary() {
		return
	}
	switch command {
	case "HOSTTARGET":
		c.hostTarget(channel, trailing)
	case "ROOMSTATE":
		c.roomState(channel, tags)
	}
}

// hostTarget parses "<target> <viewers>"; a "-" target ends the host.
func (c *conn) hostTarget(channel, trailing string) {
	parts := strings.Fields(trailing)
	if len(parts) != 2 {
		return
	}
	target := parts[0]
	if target == "-" {
		target = ""
	}
	c.sess.channelStates.SetHostTarget(channel, target)
	c.sess.listener.OnHostTargetChanged(channel, target)
}

func (c *conn) roomState(channel string, tags map[string]string) {
	if tags == nil {
		return
	}
	states := c.sess.channelStates
	if v, ok := tags["r9k"]; ok {
		states.SetUniqueMode(channel, v == "1")
	}
	if v, ok := tags["subs-only"]; ok {
		states.SetSubMode(channel, v == "1")
	}
	if v, ok := tags["slow"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			states.SetSlowMode(channel, n)
		}
	}
	if v, ok := tags["broadcaster-lang"]; ok {
		states.SetLang(channel, v)
	}
}

func (c *conn) OnCommand(name, command, parameter, text string, tags map[string]string) {
	if name == "" {
		return
	}
	if command == "WHISPER" {
		telemetry.Inc(telemetry.WhispersReceived)
		u := c.sess.userJoined(WhisperChannel, name)
		c.updateUserFromTags(u, tags)
		c.sess.listener.OnWhisper(u, text, tags["emotes"])
	}
}

func (c *conn) OnRawReceived(line string) {
	c.sess.listener.OnRawReceived("[" + c.label + "] " + line)
}

func (c *conn) OnRawSent(line string) {
	c.sess.listener.OnRawSent("[" + c.label + "] " + line)
}
