// Package roomstate tracks per-channel moderation settings (slow mode,
// sub-only, unique-messages, broadcaster language, host target) as announced
// by ROOMSTATE and HOSTTARGET commands. State is independent of which
// connection delivered it and survives until explicitly reset.
package roomstate

import "sync"

// SlowModeOff is the slow-mode value when slow mode is disabled.
const SlowModeOff = -1

// State holds the room settings of a single channel. A zero value is not
// valid; use Manager.Get which initializes defaults.
type State struct {
	Channel    string
	SubMode    bool
	UniqueMode bool   // unique-messages-only, historically "r9k"
	SlowMode   int    // seconds, SlowModeOff when disabled
	Lang       string // broadcaster language, empty when unset
	HostTarget string // hosted channel, empty when not hosting
}

// Listener is notified after any field of a channel's state changes.
type Listener func(State)

// Manager is a store of per-channel room states. Channels are created lazily
// on first update and reset to defaults rather than deleted, since callers
// may hold the channel open across a disconnect.
type Manager struct {
	mu       sync.Mutex
	states   map[string]*State
	listener Listener
}

// NewManager returns an empty store. The listener may be nil.
func NewManager(listener Listener) *Manager {
	return &Manager{
		states:   make(map[string]*State),
		listener: listener,
	}
}

// Get returns a snapshot of the channel's state, creating defaults if the
// channel is unknown.
func (m *Manager) Get(channel string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state(channel)
}

// state returns the live record for channel. Caller holds mu.
func (m *Manager) state(channel string) *State {
	st, ok := m.states[channel]
	if !ok {
		st = &State{Channel: channel, SlowMode: SlowModeOff}
		m.states[channel] = st
	}
	return st
}

func (m *Manager) update(channel string, fn func(*State) bool) {
	m.mu.Lock()
	st := m.state(channel)
	changed := fn(st)
	snapshot := *st
	m.mu.Unlock()
	if changed && m.listener != nil {
		m.listener(snapshot)
	}
}

// SetSubMode sets the subscriber-only flag.
func (m *Manager) SetSubMode(channel string, enabled bool) {
	m.update(channel, func(st *State) bool {
		if st.SubMode == enabled {
			return false
		}
		st.SubMode = enabled
		return true
	})
}

// SetUniqueMode sets the unique-messages-only flag.
func (m *Manager) SetUniqueMode(channel string, enabled bool) {
	m.update(channel, func(st *State) bool {
		if st.UniqueMode == enabled {
			return false
		}
		st.UniqueMode = enabled
		return true
	})
}

// SetSlowMode sets the slow-mode delay in seconds. Values below zero are
// normalized to SlowModeOff.
func (m *Manager) SetSlowMode(channel string, seconds int) {
	if seconds < 0 {
		seconds = SlowModeOff
	}
	m.update(channel, func(st *State) bool {
		if st.SlowMode == seconds {
			return false
		}
		st.SlowMode = seconds
		return true
	})
}

// SetLang sets the broadcaster language.
func (m *Manager) SetLang(channel, lang string) {
	m.update(channel, func(st *State) bool {
		if st.Lang == lang {
			return false
		}
		st.Lang = lang
		return true
	})
}

// SetHostTarget sets the hosted channel; empty target means not hosting.
func (m *Manager) SetHostTarget(channel, target string) {
	m.update(channel, func(st *State) bool {
		if st.HostTarget == target {
			return false
		}
		st.HostTarget = target
		return true
	})
}

// Reset restores a single channel to defaults.
func (m *Manager) Reset(channel string) {
	m.update(channel, func(st *State) bool {
		def := State{Channel: channel, SlowMode: SlowModeOff}
		if *st == def {
			return false
		}
		*st = def
		return true
	})
}

// ResetAll restores every known channel to defaults, e.g. after the primary
// connection drops and all announced room state becomes stale.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	channels := make([]string, 0, len(m.states))
	for ch := range m.states {
		channels = append(channels, ch)
	}
	m.mu.Unlock()
	for _, ch := range channels {
		m.Reset(ch)
	}
}
