package roomstate

import "testing"

func TestDefaults(t *testing.T) {
	m := NewManager(nil)
	st := m.Get("#chan")
	if st.SlowMode != SlowModeOff {
		t.Errorf("SlowMode = %d, want %d", st.SlowMode, SlowModeOff)
	}
	if st.SubMode || st.UniqueMode || st.Lang != "" || st.HostTarget != "" {
		t.Errorf("unexpected non-default state: %+v", st)
	}
}

func TestListenerFiresOnChange(t *testing.T) {
	var events []State
	m := NewManager(func(st State) { events = append(events, st) })

	m.SetSlowMode("#chan", 120)
	m.SetSlowMode("#chan", 120) // no change, no event
	m.SetSubMode("#chan", true)
	m.SetHostTarget("#chan", "other")

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].SlowMode != 120 {
		t.Errorf("first event SlowMode = %d, want 120", events[0].SlowMode)
	}
	if !events[1].SubMode {
		t.Error("second event SubMode = false, want true")
	}
	if events[2].HostTarget != "other" {
		t.Errorf("third event HostTarget = %q, want %q", events[2].HostTarget, "other")
	}
}

func TestNegativeSlowModeNormalized(t *testing.T) {
	m := NewManager(nil)
	m.SetSlowMode("#chan", 10)
	m.SetSlowMode("#chan", -5)
	if got := m.Get("#chan").SlowMode; got != SlowModeOff {
		t.Errorf("SlowMode = %d, want %d", got, SlowModeOff)
	}
}

func TestReset(t *testing.T) {
	m := NewManager(nil)
	m.SetSubMode("#a", true)
	m.SetSlowMode("#a", 30)
	m.SetUniqueMode("#b", true)

	m.Reset("#a")
	if st := m.Get("#a"); st.SubMode || st.SlowMode != SlowModeOff {
		t.Errorf("#a not reset: %+v", st)
	}
	if st := m.Get("#b"); !st.UniqueMode {
		t.Error("#b reset by Reset(#a)")
	}

	m.ResetAll()
	if st := m.Get("#b"); st.UniqueMode {
		t.Error("#b not reset by ResetAll")
	}
}

func TestResetDoesNotNotifyWhenAlreadyDefault(t *testing.T) {
	n := 0
	m := NewManager(func(State) { n++ })
	m.Reset("#chan")
	if n != 0 {
		t.Errorf("got %d events resetting default state, want 0", n)
	}
}
