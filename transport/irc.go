package transport

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"
	"github.com/google/uuid"
)

// Capabilities requested on every connection. Membership (JOIN/PART/NAMES of
// other users) is optional since it adds noticeable traffic in big channels.
const (
	capTags     = "twitch.tv/tags"
	capCommands = "twitch.tv/commands"
	capMember   = "twitch.tv/membership"
)

// IRC is a Conn backed by an ircevent connection. Every Connect builds a
// fresh underlying connection ("generation"); the previous one is fully torn
// down first. The adapter deliberately disables the library's own reconnect
// loop: reconnection policy belongs to the session, not the transport.
type IRC struct {
	label      string
	membership bool
	listener   Listener

	mu        sync.Mutex
	conn      *ircevent.Connection
	requested bool
	attempt   int
}

// NewIRC returns an unconnected transport with the given diagnostic label.
func NewIRC(label string, membership bool, listener Listener) *IRC {
	return &IRC{label: label, membership: membership, listener: listener}
}

// Connect implements Conn. It picks a port from the comma-separated list,
// rotating across attempts, and reports the attempt before dialing.
func (c *IRC) Connect(server, ports, username, password string, securedPorts map[int]bool) {
	portList := parsePorts(ports)
	if server == "" || len(portList) == 0 {
		c.listener.OnConnectionAttempt("", 0, false)
		c.listener.OnDisconnect(ReasonConnectError, "invalid server or ports")
		return
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return
	}
	port := portList[c.attempt%len(portList)]
	c.attempt++
	c.requested = false
	secured := securedPorts[port]

	caps := []string{capTags, capCommands}
	if c.membership {
		caps = append(caps, capMember)
	}
	conn := &ircevent.Connection{
		Server:      fmt.Sprintf("%s:%d", server, port),
		Nick:        username,
		User:        username,
		Password:    password,
		UseTLS:      secured,
		RequestCaps: caps,
		QuitMessage: "",
		Debug:       false,
	}
	if secured {
		conn.TLSConfig = &tls.Config{ServerName: server, MinVersion: tls.VersionTLS12}
	}
	c.conn = conn
	generation := uuid.NewString()
	c.mu.Unlock()

	c.register(conn)
	c.listener.OnConnectionAttempt(server, port, secured)

	var disconnected sync.Once
	disconnect := func(reason DisconnectReason, message string) {
		disconnected.Do(func() {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			requested := c.requested
			c.mu.Unlock()
			if requested {
				reason = ReasonRequested
			}
			c.listener.OnDisconnect(reason, message)
		})
	}
	conn.AddDisconnectCallback(func(ircmsg.Message) {
		// Stop the library's event loop so it does not reconnect on its own.
		conn.Quit()
	})

	go func() {
		slog.Debug("transport connecting",
			slog.String("conn", c.label),
			slog.String("generation", generation),
			slog.String("addr", conn.Server),
			slog.Bool("secured", secured))
		if err := conn.Connect(); err != nil {
			disconnect(ReasonConnectError, err.Error())
			return
		}
		conn.Loop()
		disconnect(ReasonConnectionLost, "connection closed")
	}()
}

func parsePorts(ports string) []int {
	var out []int
	for _, p := range strings.Split(ports, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Disconnect implements Conn.
func (c *IRC) Disconnect() bool {
	c.mu.Lock()
	conn := c.conn
	c.requested = true
	c.mu.Unlock()
	if conn == nil {
		return false
	}
	conn.Quit()
	return true
}

// active returns the current underlying connection, or nil when offline.
func (c *IRC) active() *ircevent.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Send implements Conn. Authentication lines are redacted in the raw-sent
// diagnostic event.
func (c *IRC) Send(line string) {
	conn := c.active()
	if conn == nil {
		return
	}
	if err := conn.SendRaw(line); err != nil {
		slog.Warn("transport send failed", slog.String("conn", c.label), slog.Any("err", err))
		return
	}
	c.rawSent(line)
}

func (c *IRC) rawSent(line string) {
	if strings.HasPrefix(line, "PASS ") || strings.HasPrefix(line, "PASS\t") {
		line = "PASS <password>"
	}
	c.listener.OnRawSent(line)
}

// SendMessage implements Conn.
func (c *IRC) SendMessage(channel, text string) {
	conn := c.active()
	if conn == nil {
		return
	}
	if err := conn.Send("PRIVMSG", channel, text); err != nil {
		slog.Warn("transport send failed", slog.String("conn", c.label), slog.Any("err", err))
		return
	}
	c.rawSent(fmt.Sprintf("PRIVMSG %s :%s", channel, text))
}

// SendAction implements Conn.
func (c *IRC) SendAction(channel, text string) {
	c.SendMessage(channel, "\x01ACTION "+text+"\x01")
}

// Join implements Conn.
func (c *IRC) Join(channel string) {
	conn := c.active()
	if conn == nil {
		return
	}
	if err := conn.Send("JOIN", channel); err != nil {
		slog.Warn("transport join failed", slog.String("conn", c.label), slog.Any("err", err))
		return
	}
	c.rawSent("JOIN " + channel)
}

// Part implements Conn.
func (c *IRC) Part(channel string) {
	conn := c.active()
	if conn == nil {
		return
	}
	if err := conn.Send("PART", channel); err != nil {
		slog.Warn("transport part failed", slog.String("conn", c.label), slog.Any("err", err))
		return
	}
	c.rawSent("PART " + channel)
}

// register wires protocol callbacks to Listener events.
func (c *IRC) register(conn *ircevent.Connection) {
	l := c.listener

	conn.AddConnectCallback(func(e ircmsg.Message) {
		c.raw(e)
		l.OnConnect()
		l.OnRegistered()
	})

	conn.AddCallback("353", func(e ircmsg.Message) { // RPL_NAMREPLY
		c.raw(e)
		if len(e.Params) < 4 {
			return
		}
		channel := e.Params[2]
		var names []string
		for _, n := range strings.Fields(e.Params[3]) {
			names = append(names, strings.TrimLeft(n, "@%+"))
		}
		l.OnUserlist(channel, names)
	})

	conn.AddCallback("JOIN", func(e ircmsg.Message) {
		c.raw(e)
		if len(e.Params) < 1 {
			return
		}
		l.OnJoin(e.Params[0], e.Nick(), e.Source)
	})

	conn.AddCallback("PART", func(e ircmsg.Message) {
		c.raw(e)
		if len(e.Params) < 1 {
			return
		}
		message := ""
		if len(e.Params) > 1 {
			message = e.Params[1]
		}
		l.OnPart(e.Params[0], e.Nick(), e.Source, message)
	})

	conn.AddCallback("MODE", func(e ircmsg.Message) {
		c.raw(e)
		if len(e.Params) < 3 || len(e.Params[1]) < 2 {
			return
		}
		change := e.Params[1]
		added := change[0] == '+'
		if change[0] != '+' && change[0] != '-' {
			return
		}
		l.OnModeChange(e.Params[0], e.Params[2], added, change[1:], e.Source)
	})

	conn.AddCallback("PRIVMSG", func(e ircmsg.Message) {
		c.raw(e)
		if len(e.Params) < 2 {
			return
		}
		target, text := e.Params[0], e.Params[1]
		text, action := parseAction(text)
		if strings.HasPrefix(target, "#") {
			l.OnChannelMessage(target, e.Nick(), e.Source, text, e.AllTags(), action)
		} else {
			l.OnQueryMessage(e.Nick(), e.Source, text)
		}
	})

	conn.AddCallback("NOTICE", func(e ircmsg.Message) {
		c.raw(e)
		if len(e.Params) < 2 {
			return
		}
		if strings.HasPrefix(e.Params[0], "#") {
			l.OnChannelNotice(e.Params[0], e.Params[1], e.AllTags())
		} else {
			l.OnNotice(e.Params[1])
		}
	})

	conn.AddCallback("USERSTATE", func(e ircmsg.Message) {
		c.raw(e)
		if len(e.Params) < 1 {
			return
		}
		l.OnUserstate(e.Params[0], e.AllTags())
	})

	conn.AddCallback("GLOBALUSERSTATE", func(e ircmsg.Message) {
		c.raw(e)
		l.OnGlobalUserstate(e.AllTags())
	})

	conn.AddCallback("CLEARCHAT", func(e ircmsg.Message) {
		c.raw(e)
		if len(e.Params) < 1 {
			return
		}
		name := ""
		if len(e.Params) > 1 {
			name = e.Params[1]
		}
		l.OnClearChat(e.Params[0], name)
	})

	for _, cmd := range []string{"ROOMSTATE", "HOSTTARGET"} {
		command := cmd
		conn.AddCallback(command, func(e ircmsg.Message) {
			c.raw(e)
			if len(e.Params) < 1 {
				return
			}
			trailing := ""
			if len(e.Params) > 1 {
				trailing = e.Params[1]
			}
			l.OnChannelCommand(e.AllTags(), e.Nick(), e.Params[0], command, trailing)
		})
	}

	conn.AddCallback("WHISPER", func(e ircmsg.Message) {
		c.raw(e)
		if len(e.Params) < 2 {
			return
		}
		l.OnCommand(e.Nick(), "WHISPER", e.Params[0], e.Params[1], e.AllTags())
	})
}

// parseAction unwraps a CTCP ACTION and reports whether it was one.
func parseAction(text string) (string, bool) {
	if strings.HasPrefix(text, "\x01ACTION ") && strings.HasSuffix(text, "\x01") {
		return strings.TrimSuffix(strings.TrimPrefix(text, "\x01ACTION "), "\x01"), true
	}
	return text, false
}

// raw forwards the wire form of a handled message for diagnostics.
func (c *IRC) raw(e ircmsg.Message) {
	if line, err := e.Line(); err == nil {
		c.listener.OnRawReceived(strings.TrimRight(line, "\r\n"))
	}
}
