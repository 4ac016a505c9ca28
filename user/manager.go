package user

import (
	"strings"
	"sync"
)

// UpdatedFunc is called when the manager itself mutates a user that is still
// online, so the host can refresh its userlist rendering.
type UpdatedFunc func(*User)

// Manager owns every User record of a session, keyed by (channel, lowercase
// name). It also owns the special user: a singleton, channel-less record
// holding the local account's global state, used to seed newly created
// records of the local user in channels where per-channel state has not
// arrived yet.
type Manager struct {
	mu            sync.Mutex
	users         map[userKey]*User
	knownMods     map[string]map[string]struct{} // channel -> set of names
	localUsername string

	special *User
	updated UpdatedFunc
}

type userKey struct {
	channel string
	name    string
}

// NewManager returns an empty repository. The updated callback may be nil.
func NewManager(updated UpdatedFunc) *Manager {
	return &Manager{
		users:     make(map[userKey]*User),
		knownMods: make(map[string]map[string]struct{}),
		special:   newUser("", ""),
		updated:   updated,
	}
}

// SetLocalUsername records which login name identifies the local account.
func (m *Manager) SetLocalUsername(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.localUsername = strings.ToLower(name)
	m.special.Name = m.localUsername
}

// LocalUsername returns the login name of the local account.
func (m *Manager) LocalUsername() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localUsername
}

// SpecialUser returns the singleton holding the local account's global state.
func (m *Manager) SpecialUser() *User {
	return m.special
}

// Get returns the user record for (channel, name), creating it if needed.
// A newly created record for the local user is seeded from the special user.
func (m *Manager) Get(channel, name string) *User {
	key := userKey{channel: channel, name: strings.ToLower(name)}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[key]
	if !ok {
		u = newUser(channel, name)
		if key.name != "" && key.name == m.localUsername {
			u.seedFrom(m.special)
		}
		if mods, ok := m.knownMods[channel]; ok {
			if _, isMod := mods[key.name]; isMod {
				u.moderator = true
			}
		}
		m.users[key] = u
	}
	return u
}

// GetIfExists returns the record for (channel, name) or nil if none exists.
func (m *Manager) GetIfExists(channel, name string) *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userKey{channel: channel, name: strings.ToLower(name)}]
}

// ByName returns all records with the given name across channels.
func (m *Manager) ByName(name string) []*User {
	name = strings.ToLower(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*User
	for key, u := range m.users {
		if key.name == name {
			out = append(out, u)
		}
	}
	return out
}

// Online returns all users currently online in the channel.
func (m *Manager) Online(channel string) []*User {
	m.mu.Lock()
	users := make([]*User, 0)
	for key, u := range m.users {
		if key.channel == channel {
			users = append(users, u)
		}
	}
	m.mu.Unlock()
	var out []*User
	for _, u := range users {
		if u.Online() {
			out = append(out, u)
		}
	}
	return out
}

// SetAllOffline marks every user of the channel offline; an empty channel
// marks every user of every channel offline.
func (m *Manager) SetAllOffline(channel string) {
	m.mu.Lock()
	users := make([]*User, 0, len(m.users))
	for key, u := range m.users {
		if channel == "" || key.channel == channel {
			users = append(users, u)
		}
	}
	m.mu.Unlock()
	for _, u := range users {
		u.SetOnline(false)
	}
}

// Clear removes every record of the channel, e.g. when the channel is closed.
func (m *Manager) Clear(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.users {
		if key.channel == channel {
			delete(m.users, key)
		}
	}
	delete(m.knownMods, channel)
}

// SetColorForName updates the color of every record with the given name.
// Used for the legacy color-change message which does not carry a channel.
func (m *Manager) SetColorForName(name, color string) {
	for _, u := range m.ByName(name) {
		if u.SetColor(color) && u.Online() && m.updated != nil {
			m.updated(u)
		}
	}
}

// ModsReceived seeds the known-moderators set of the channel from a
// moderator list response and flags matching existing records.
func (m *Manager) ModsReceived(channel string, names []string) {
	m.mu.Lock()
	mods, ok := m.knownMods[channel]
	if !ok {
		mods = make(map[string]struct{})
		m.knownMods[channel] = mods
	}
	for _, name := range names {
		mods[strings.ToLower(name)] = struct{}{}
	}
	m.mu.Unlock()
	for _, name := range names {
		if u := m.GetIfExists(channel, name); u != nil {
			if u.SetModerator(true) && u.Online() && m.updated != nil {
				m.updated(u)
			}
		}
	}
}

// IsKnownMod reports whether the name was listed as a moderator of channel.
func (m *Manager) IsKnownMod(channel, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	mods, ok := m.knownMods[channel]
	if !ok {
		return false
	}
	_, isMod := mods[strings.ToLower(name)]
	return isMod
}
