package transport

import "testing"

func TestParsePorts(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"6667", []int{6667}},
		{"6697, 6667", []int{6697, 6667}},
		{"", nil},
		{"abc,0,-1", nil},
		{"443,abc,6667", []int{443, 6667}},
	}
	for _, tc := range cases {
		got := parsePorts(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("parsePorts(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("parsePorts(%q) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}

func TestParseAction(t *testing.T) {
	text, action := parseAction("\x01ACTION waves\x01")
	if !action || text != "waves" {
		t.Errorf("parseAction = %q, %v; want %q, true", text, action, "waves")
	}
	text, action = parseAction("hello")
	if action || text != "hello" {
		t.Errorf("parseAction = %q, %v; want %q, false", text, action, "hello")
	}
	// Unterminated CTCP is not an action.
	if _, action := parseAction("\x01ACTION waves"); action {
		t.Error("unterminated CTCP treated as action")
	}
}

func TestDisconnectReasonString(t *testing.T) {
	if ReasonRequested.String() != "requested" {
		t.Errorf("ReasonRequested.String() = %q", ReasonRequested.String())
	}
	if DisconnectReason(99).String() != "unknown" {
		t.Errorf("unknown reason String() = %q", DisconnectReason(99).String())
	}
}
