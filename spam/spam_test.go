package spam

import (
	"testing"
	"time"
)

func TestParseLimit(t *testing.T) {
	cases := []struct {
		spec    string
		lines   int
		window  time.Duration
		wantErr bool
	}{
		{spec: "19/30", lines: 19, window: 30 * time.Second},
		{spec: "100/30", lines: 100, window: 30 * time.Second},
		{spec: " 5/10 ", lines: 5, window: 10 * time.Second},
		{spec: "19", wantErr: true},
		{spec: "0/30", wantErr: true},
		{spec: "19/0", wantErr: true},
		{spec: "a/b", wantErr: true},
		{spec: "", wantErr: true},
	}
	for _, tc := range cases {
		lines, window, err := parseLimit(tc.spec)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseLimit(%q): expected error", tc.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLimit(%q): %v", tc.spec, err)
			continue
		}
		if lines != tc.lines || window != tc.window {
			t.Errorf("parseLimit(%q) = %d, %v; want %d, %v", tc.spec, lines, window, tc.lines, tc.window)
		}
	}
}

func TestCheckDoesNotConsumeBudget(t *testing.T) {
	p := New("2/30")
	for i := 0; i < 10; i++ {
		if !p.Check() {
			t.Fatalf("Check() consumed budget on iteration %d", i)
		}
	}
	if got := p.Allowance(); got != 2 {
		t.Errorf("Allowance() = %d, want 2", got)
	}
}

func TestIncreaseExhaustsBudget(t *testing.T) {
	p := New("2/30")
	p.Increase()
	if !p.Check() {
		t.Fatal("Check() = false after one send with limit 2")
	}
	p.Increase()
	if p.Check() {
		t.Fatal("Check() = true after budget exhausted")
	}
}

func TestWindowExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := New("1/30")
	p.now = func() time.Time { return now }

	p.Increase()
	if p.Check() {
		t.Fatal("Check() = true with exhausted budget")
	}
	now = now.Add(31 * time.Second)
	if !p.Check() {
		t.Fatal("Check() = false after window expired")
	}
	if got := p.Allowance(); got != 1 {
		t.Errorf("Allowance() = %d after expiry, want 1", got)
	}
}

func TestBadSpecFallsBackToDefault(t *testing.T) {
	p := New("nonsense")
	if p.lines != 19 || p.window != 30*time.Second {
		t.Errorf("fallback limit = %d/%v, want 19/30s", p.lines, p.window)
	}
}
