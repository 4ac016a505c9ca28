// Package user is the presence repository of the chat session: one record
// per (channel, name) identity, holding online status, display info and role
// flags. Records are created lazily, marked offline rather than deleted, and
// kept for later reference (e.g. ban messages after a part).
package user

import (
	"strings"
	"sync"
)

// User is a single (channel, name) identity. All accessors are safe for
// concurrent use; events from several connections may touch the same record.
type User struct {
	mu sync.Mutex

	// Name is the canonical lowercase login name. Channel is the channel the
	// record belongs to; empty for the special user.
	Name    string
	Channel string

	displayName string
	color       string
	emoteSets   []string

	online      bool
	broadcaster bool
	moderator   bool
	subscriber  bool
	turbo       bool
	staff       bool
	admin       bool
	globalMod   bool
}

func newUser(channel, name string) *User {
	return &User{
		Name:        strings.ToLower(name),
		Channel:     channel,
		displayName: name,
	}
}

// setBool writes v to *field and reports whether the value changed.
// Caller holds mu.
func setBool(field *bool, v bool) bool {
	if *field == v {
		return false
	}
	*field = v
	return true
}

// SetOnline marks the user online or offline and reports whether the flag
// changed.
func (u *User) SetOnline(v bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return setBool(&u.online, v)
}

// Online reports whether the user is currently considered in the channel.
func (u *User) Online() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.online
}

// SetDisplayName updates the display name; empty input is ignored.
func (u *User) SetDisplayName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.displayName == name {
		return false
	}
	u.displayName = name
	return true
}

// DisplayName returns the preferred name for display.
func (u *User) DisplayName() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.displayName
}

// SetColor updates the user's chat color; empty input is ignored.
func (u *User) SetColor(color string) bool {
	if color == "" {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.color == color {
		return false
	}
	u.color = color
	return true
}

// Color returns the user's chat color, or empty if none was announced.
func (u *User) Color() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.color
}

// SetEmoteSets replaces the emote set ids available to the user, given as a
// comma-separated tag value.
func (u *User) SetEmoteSets(csv string) bool {
	var sets []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sets = append(sets, s)
		}
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if equalStrings(u.emoteSets, sets) {
		return false
	}
	u.emoteSets = sets
	return true
}

// EmoteSets returns a copy of the emote set ids available to the user.
func (u *User) EmoteSets() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, len(u.emoteSets))
	copy(out, u.emoteSets)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SetBroadcaster marks the user as the channel owner.
func (u *User) SetBroadcaster(v bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return setBool(&u.broadcaster, v)
}

// Broadcaster reports whether the user owns the channel.
func (u *User) Broadcaster() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.broadcaster
}

// SetModerator sets the moderator flag.
func (u *User) SetModerator(v bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return setBool(&u.moderator, v)
}

// Moderator reports whether the user has moderator privileges.
func (u *User) Moderator() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.moderator
}

// SetSubscriber sets the subscriber flag.
func (u *User) SetSubscriber(v bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return setBool(&u.subscriber, v)
}

// Subscriber reports whether the user is subscribed to the channel.
func (u *User) Subscriber() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.subscriber
}

// SetTurbo sets the turbo flag.
func (u *User) SetTurbo(v bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return setBool(&u.turbo, v)
}

// Turbo reports whether the user has turbo.
func (u *User) Turbo() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.turbo
}

// SetStaff sets the staff flag.
func (u *User) SetStaff(v bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return setBool(&u.staff, v)
}

// Staff reports whether the user is platform staff.
func (u *User) Staff() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.staff
}

// SetAdmin sets the admin flag.
func (u *User) SetAdmin(v bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return setBool(&u.admin, v)
}

// Admin reports whether the user is a platform admin.
func (u *User) Admin() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.admin
}

// SetGlobalMod sets the global moderator flag.
func (u *User) SetGlobalMod(v bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return setBool(&u.globalMod, v)
}

// GlobalMod reports whether the user is a global moderator.
func (u *User) GlobalMod() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.globalMod
}

// seedFrom copies channel-independent state from the special user into a
// freshly created record for the local user.
func (u *User) seedFrom(src *User) {
	src.mu.Lock()
	display := src.displayName
	color := src.color
	sets := make([]string, len(src.emoteSets))
	copy(sets, src.emoteSets)
	turbo, staff, admin, globalMod := src.turbo, src.staff, src.admin, src.globalMod
	src.mu.Unlock()

	u.mu.Lock()
	defer u.mu.Unlock()
	if display != "" {
		u.displayName = display
	}
	u.color = color
	u.emoteSets = sets
	u.turbo = turbo
	u.staff = staff
	u.admin = admin
	u.globalMod = globalMod
}
