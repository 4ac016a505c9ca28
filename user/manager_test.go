package user

import "testing"

func TestGetCreatesOnce(t *testing.T) {
	m := NewManager(nil)
	a := m.Get("#chan", "Alice")
	b := m.Get("#chan", "alice")
	if a != b {
		t.Error("Get created a second record for the same (channel, name)")
	}
	if a.Name != "alice" {
		t.Errorf("Name = %q, want lowercase %q", a.Name, "alice")
	}
	if a.DisplayName() != "Alice" {
		t.Errorf("DisplayName = %q, want original case %q", a.DisplayName(), "Alice")
	}
	if m.Get("#other", "alice") == a {
		t.Error("records not keyed per channel")
	}
}

func TestLocalUserSeededFromSpecial(t *testing.T) {
	m := NewManager(nil)
	m.SetLocalUsername("alice")
	sp := m.SpecialUser()
	sp.SetColor("#FF0000")
	sp.SetTurbo(true)
	sp.SetEmoteSets("0,33")

	u := m.Get("#chan", "alice")
	if u.Color() != "#FF0000" || !u.Turbo() {
		t.Errorf("local user not seeded: color=%q turbo=%v", u.Color(), u.Turbo())
	}
	if got := u.EmoteSets(); len(got) != 2 || got[0] != "0" || got[1] != "33" {
		t.Errorf("EmoteSets = %v, want [0 33]", got)
	}

	other := m.Get("#chan", "bob")
	if other.Color() != "" || other.Turbo() {
		t.Error("non-local user seeded from special user")
	}
}

func TestSetAllOffline(t *testing.T) {
	m := NewManager(nil)
	a := m.Get("#a", "x")
	b := m.Get("#b", "y")
	a.SetOnline(true)
	b.SetOnline(true)

	m.SetAllOffline("#a")
	if a.Online() {
		t.Error("#a user still online")
	}
	if !b.Online() {
		t.Error("#b user taken offline by channel-scoped call")
	}

	b2 := m.Get("#b", "z")
	b2.SetOnline(true)
	m.SetAllOffline("")
	if b.Online() || b2.Online() {
		t.Error("global SetAllOffline left users online")
	}
}

func TestClearRemovesRecords(t *testing.T) {
	m := NewManager(nil)
	m.Get("#a", "x")
	m.Get("#b", "x")
	m.Clear("#a")
	if m.GetIfExists("#a", "x") != nil {
		t.Error("record survived Clear")
	}
	if m.GetIfExists("#b", "x") == nil {
		t.Error("Clear removed record of another channel")
	}
}

func TestByName(t *testing.T) {
	m := NewManager(nil)
	m.Get("#a", "x")
	m.Get("#b", "X")
	m.Get("#a", "y")
	if got := len(m.ByName("x")); got != 2 {
		t.Errorf("ByName returned %d records, want 2", got)
	}
}

func TestSetColorForNameNotifiesOnlineOnly(t *testing.T) {
	var updated []*User
	m := NewManager(func(u *User) { updated = append(updated, u) })
	on := m.Get("#a", "x")
	on.SetOnline(true)
	m.Get("#b", "x") // offline

	m.SetColorForName("x", "Blue")
	if len(updated) != 1 || updated[0] != on {
		t.Errorf("got %d updates, want 1 for the online record", len(updated))
	}
	if m.Get("#b", "x").Color() != "Blue" {
		t.Error("offline record color not updated")
	}
}

func TestModsReceived(t *testing.T) {
	var updated int
	m := NewManager(func(*User) { updated++ })
	u := m.Get("#chan", "carol")
	u.SetOnline(true)

	m.ModsReceived("#chan", []string{"Carol", "dave"})
	if !u.Moderator() {
		t.Error("existing user not flagged moderator")
	}
	if updated != 1 {
		t.Errorf("got %d update notifications, want 1", updated)
	}
	if !m.IsKnownMod("#chan", "DAVE") {
		t.Error("dave not in known-moderators set")
	}

	// A later record for a known mod starts out flagged.
	if !m.Get("#chan", "dave").Moderator() {
		t.Error("new record for known mod not flagged")
	}
}

func TestTagFlagsChangeDetection(t *testing.T) {
	m := NewManager(nil)
	u := m.Get("#chan", "x")
	if !u.SetTurbo(true) {
		t.Error("SetTurbo(true) reported no change")
	}
	if u.SetTurbo(true) {
		t.Error("repeated SetTurbo(true) reported change")
	}
	if !u.SetTurbo(false) {
		t.Error("SetTurbo(false) reported no change")
	}
}
