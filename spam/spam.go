// Package spam implements the outbound rate limiter consulted before every
// channel send. Twitch drops (or in the worst case bans) clients that send
// too many lines in a short time, so the session checks this gate and simply
// refuses to send when the budget is used up.
package spam

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultLimit mirrors the server-side limit for regular users.
const DefaultLimit = "19/30"

// Protection tracks how many lines were sent in a rolling time window.
// Check reports whether another line may be sent; Increase records that one
// was. A rejected send must not call Increase, so a rejection never consumes
// budget.
type Protection struct {
	mu     sync.Mutex
	lines  int
	window time.Duration
	sent   []time.Time

	now func() time.Time // test hook
}

// New returns a Protection configured from a "<lines>/<seconds>" spec.
// An unparsable spec falls back to DefaultLimit.
func New(limit string) *Protection {
	p := &Protection{now: time.Now}
	if err := p.SetLinesPerSeconds(limit); err != nil {
		_ = p.SetLinesPerSeconds(DefaultLimit)
	}
	return p
}

// SetLinesPerSeconds reconfigures the limit from a "<lines>/<seconds>" spec,
// e.g. "19/30" for 19 lines per 30 seconds.
func (p *Protection) SetLinesPerSeconds(spec string) error {
	lines, window, err := parseLimit(spec)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = lines
	p.window = window
	return nil
}

func parseLimit(spec string) (int, time.Duration, error) {
	parts := strings.SplitN(strings.TrimSpace(spec), "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("spam limit %q: want <lines>/<seconds>", spec)
	}
	lines, err := strconv.Atoi(parts[0])
	if err != nil || lines <= 0 {
		return 0, 0, fmt.Errorf("spam limit %q: invalid line count", spec)
	}
	secs, err := strconv.Atoi(parts[1])
	if err != nil || secs <= 0 {
		return 0, 0, fmt.Errorf("spam limit %q: invalid window", spec)
	}
	return lines, time.Duration(secs) * time.Second, nil
}

// Check reports whether another line may be sent right now. It does not
// consume budget; callers that actually send must follow up with Increase.
func (p *Protection) Check() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prune()
	return len(p.sent) < p.lines
}

// Increase records that a line was sent.
func (p *Protection) Increase() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prune()
	p.sent = append(p.sent, p.now())
}

// Allowance returns how many lines may still be sent in the current window.
func (p *Protection) Allowance() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prune()
	return p.lines - len(p.sent)
}

// prune drops entries that have aged out of the window. Caller holds mu.
func (p *Protection) prune() {
	cutoff := p.now().Add(-p.window)
	i := 0
	for i < len(p.sent) && p.sent[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		p.sent = append(p.sent[:0], p.sent[i:]...)
	}
}
