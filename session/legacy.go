package session

import (
	"fmt"
	"log/slog"
	"strings"
)

// specialMessage handles messages from the legacy jtv sender, which mixes
// machine-readable commands with human-readable info text. Command words are
// all-uppercase first tokens longer than two characters; those are consumed
// (or dropped when unknown) instead of being shown.
func (c *conn) specialMessage(text, channel string) {
	split := strings.Split(text, " ")
	if split[0] == "USERCOLOR" && len(split) == 3 {
		c.sess.users.SetColorForName(split[1], split[2])
	}
	if len(split[0]) > 2 && isAllUppercase(split[0]) {
		return
	}
	c.infoMessage(channel, text)
}

// isAllUppercase reports whether s is made of uppercase letters, underscore
// allowed, with at least one letter. Digit- or punctuation-only tokens are
// not command words.
func isAllUppercase(s string) bool {
	letter := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			letter = true
		case r == '_':
		default:
			return false
		}
	}
	return letter
}

// infoMessage forwards server info text to the host, intercepting
// moderator-list responses.
func (c *conn) infoMessage(channel, text string) {
	if strings.HasPrefix(text, "The moderators of") {
		c.moderatorsReceived(channel, text)
		return
	}
	c.sess.listener.OnInfo(channel, "[Info] "+text)
}

// moderatorsReceived records the listed names as known moderators and shows
// the list unless the host requested it silently.
func (c *conn) moderatorsReceived(channel, text string) {
	mods := parseModsList(text)
	c.sess.users.ModsReceived(channel, mods)
	silent := false
	if cmds := c.sess.commands; cmds != nil && cmds.WaitingForModsSilent() {
		silent = channel == "" || cmds.RemoveModsSilent(channel)
	}
	if silent {
		slog.Debug("silent mods list",
			slog.String("channel", channel),
			slog.Int("count", len(mods)))
		return
	}
	c.sess.listener.OnInfo(channel, "[Info] "+text)
	if len(mods) == 0 {
		c.sess.listener.OnInfo(channel, "There are no mods for this channel.")
	} else {
		c.sess.listener.OnInfo(channel, fmt.Sprintf("There are %d mods for this channel.", len(mods)))
	}
}

// parseModsList extracts the names from a "The moderators of this channel
// are: a, b" style message.
func parseModsList(text string) []string {
	_, list, ok := strings.Cut(text, ":")
	if !ok {
		return nil
	}
	var mods []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			mods = append(mods, name)
		}
	}
	return mods
}
