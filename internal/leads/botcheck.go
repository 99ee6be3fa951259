package leads

import (
	"strings"
	"time"
)

// DefaultMinElapsed is the shortest plausible time between form render and submit
const DefaultMinElapsed = 1500 * time.Millisecond

// BotVerdict is the outcome of the anti-bot checks.
type BotVerdict int

const (
	// BotPass means the submission looks human
	BotPass BotVerdict = iota
	// BotHoneypot means the hidden field was filled; the caller must not learn this
	BotHoneypot
	// BotNoTimestamp means the load-time timestamp was missing
	BotNoTimestamp
	// BotTooFast means the form was submitted faster than MinElapsed
	BotTooFast
)

func (v BotVerdict) String() string {
	switch v {
	case BotHoneypot:
		return "honeypot"
	case BotNoTimestamp:
		return "no_timestamp"
	case BotTooFast:
		return "too_fast"
	default:
		return "pass"
	}
}

// BotFilter applies the honeypot and dwell-time heuristics in order.
type BotFilter struct {
	MinElapsed time.Duration
	Now        func() time.Time
}

// Check inspects a decoded submission. elapsed is only meaningful when a
// timestamp was present.
func (f BotFilter) Check(s *Submission) (verdict BotVerdict, elapsed time.Duration) {
	if strings.TrimSpace(string(s.Honeypot)) != "" {
		return BotHoneypot, 0
	}
	if s.TS.IsZero() {
		return BotNoTimestamp, 0
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	threshold := f.MinElapsed
	if threshold <= 0 {
		threshold = DefaultMinElapsed
	}
	elapsed = now().Sub(s.TS.Time())
	if elapsed < threshold {
		return BotTooFast, elapsed
	}
	return BotPass, elapsed
}
