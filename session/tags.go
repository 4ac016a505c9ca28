package session

import (
	"strings"

	"github.com/deadNightTiger/chatty/user"
)

func tagState(tags map[string]string, key string) bool {
	return tags[key] == "1"
}

// updateUserFromTags applies message tags to a user record. Absent tags
// leave the field untouched, except the boolean state tags which are always
// re-evaluated when a tag map is present at all.
func (c *conn) updateUserFromTags(u *user.User, tags map[string]string) {
	if tags == nil {
		return
	}
	changed := false
	if c.sess.opts.CapitalizedNames {
		if v, ok := tags["display-name"]; ok {
			if u.SetDisplayName(strings.TrimSpace(v)) {
				changed = true
			}
		}
	}
	if v, ok := tags["color"]; ok {
		u.SetColor(v)
	}
	if u.SetTurbo(tagState(tags, "turbo")) {
		changed = true
	}
	if u.SetSubscriber(tagState(tags, "subscriber")) {
		changed = true
	}
	// The user-type tag carries at most one role; an unrecognized value
	// clears them all.
	if userType, ok := tags["user-type"]; ok {
		if u.SetModerator(userType == "mod") {
			changed = true
		}
		if u.SetStaff(userType == "staff") {
			changed = true
		}
		if u.SetAdmin(userType == "admin") {
			changed = true
		}
		if u.SetGlobalMod(userType == "global_mod") {
			changed = true
		}
	}
	if changed && u != c.sess.users.SpecialUser() {
		c.sess.listener.OnUserUpdated(u)
	}
}

// updateUserstate applies USERSTATE tags to the local user in a channel, or
// GLOBALUSERSTATE tags (empty channel) to every local-user record. The
// special user always receives the update as well.
func (c *conn) updateUserstate(channel string, tags map[string]string) {
	if tags == nil {
		return
	}
	emoteSets, hasSets := tags["emote-sets"]
	if channel != "" {
		u := c.sess.localUserJoined(channel)
		c.updateUserFromTags(u, tags)
		if hasSets {
			u.SetEmoteSets(emoteSets)
		}
	} else {
		for _, u := range c.sess.users.ByName(c.sess.users.LocalUsername()) {
			c.updateUserFromTags(u, tags)
			if hasSets {
				u.SetEmoteSets(emoteSets)
			}
		}
	}
	special := c.sess.users.SpecialUser()
	if hasSets {
		special.SetEmoteSets(emoteSets)
	}
	c.sess.listener.OnSpecialUserUpdated()
	c.updateUserFromTags(special, tags)
}
