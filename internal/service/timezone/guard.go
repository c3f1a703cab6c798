// Package timezone validates client-claimed UTC offset changes against the
// user's stored change history. Users can farm extra daily quota by flipping
// their timezone back and forth, so every change request is screened for
// range, jump size, cooldown, and a per-day change cap before it is accepted.
package timezone

import (
	"time"

	"github.com/amora-app/backend/internal/platform/timeutil"
)

// Config holds the guard rules. All values come from server configuration.
type Config struct {
	// MinOffsetMinutes and MaxOffsetMinutes bound acceptable offsets.
	// Real-world offsets span UTC-12:00 to UTC+14:00.
	MinOffsetMinutes int
	MaxOffsetMinutes int

	// SuspiciousJump is the smallest offset delta treated as a fraud
	// signal. Legitimate travel rarely crosses this many hours at once.
	SuspiciousJump time.Duration

	// ChangeCooldown is the minimum real time between accepted changes.
	ChangeCooldown time.Duration

	// MaxDailyChanges caps accepted changes per local calendar day.
	MaxDailyChanges int
}

// Request carries the stored timezone state plus the client's claim.
type Request struct {
	// CurrentOffset is the stored offset in minutes from UTC.
	CurrentOffset int

	// RequestedOffset is the client-claimed offset, nil when the request
	// does not ask for a change.
	RequestedOffset *int

	// LastChangeAt is when the offset last changed; zero for never.
	LastChangeAt time.Time

	// DailyChanges counts changes accepted on the local day of
	// LastChangeAt. Stale counts from earlier days are ignored.
	DailyChanges int

	// Now is the current UTC instant, injected by the caller.
	Now time.Time
}

// Decision is the outcome of evaluating one change request. The diagnostic
// flags are each computed independently so callers can report every rule
// the request tripped, not just the first.
type Decision struct {
	// AcceptedOffset is the offset downstream logic must use for this
	// request: the requested one when accepted, otherwise the current one.
	AcceptedOffset int

	// Changed reports whether the requested offset was accepted.
	Changed bool

	// Evaluated reports whether a differing offset was actually screened.
	// False when no change was requested or the request matched the
	// stored offset.
	Evaluated bool

	ValidRange       bool
	SuspiciousJump   bool
	TooFrequent      bool
	DailyCapExceeded bool

	// RetryAfter is how long until the time-based rules could pass: the
	// rest of the cooldown when TooFrequent, the time to the next local
	// midnight when DailyCapExceeded, the larger of the two when both.
	// Zero when no time-based rule tripped.
	RetryAfter time.Duration
}

// Reason identifies which rule rejected a change.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonInvalidRange     Reason = "invalid_timezone_offset"
	ReasonSuspiciousJump   Reason = "suspicious_timezone_jump"
	ReasonTooFrequent      Reason = "timezone_change_too_frequent"
	ReasonDailyCapExceeded Reason = "daily_timezone_change_limit_exceeded"
)

// DenialReason returns the dominant reason a change was rejected, or
// ReasonNone when the change was accepted or never evaluated. Range
// violations win over behavioral flags since they indicate malformed input
// rather than suspicious behavior.
func (d Decision) DenialReason() Reason {
	if !d.Evaluated || d.Changed {
		return ReasonNone
	}
	switch {
	case !d.ValidRange:
		return ReasonInvalidRange
	case d.SuspiciousJump:
		return ReasonSuspiciousJump
	case d.TooFrequent:
		return ReasonTooFrequent
	case d.DailyCapExceeded:
		return ReasonDailyCapExceeded
	}
	return ReasonNone
}

// Guard screens timezone change requests. It is pure: no clock access,
// no I/O, and safe for concurrent use.
type Guard struct {
	cfg Config
}

// NewGuard returns a Guard enforcing the given rules.
func NewGuard(cfg Config) Guard {
	return Guard{cfg: cfg}
}

// InRange reports whether an offset lies within the configured bounds.
// The API layer uses this to reject out-of-range offsets at profile
// creation, where no change history exists to evaluate.
func (g Guard) InRange(offset int) bool {
	return offset >= g.cfg.MinOffsetMinutes && offset <= g.cfg.MaxOffsetMinutes
}

// Evaluate screens one change request against the stored history.
//
// A nil RequestedOffset, or one equal to CurrentOffset, short-circuits to a
// no-change decision with every flag false. Otherwise all four rules run
// and the change is accepted only when none of them trips. The caller
// persists the accepted offset, the change timestamp, and the bumped
// counters; Evaluate itself mutates nothing.
func (g Guard) Evaluate(req Request) Decision {
	if req.RequestedOffset == nil || *req.RequestedOffset == req.CurrentOffset {
		return Decision{AcceptedOffset: req.CurrentOffset}
	}

	requested := *req.RequestedOffset

	d := Decision{
		AcceptedOffset: req.CurrentOffset,
		Evaluated:      true,
		ValidRange:     g.InRange(requested),
	}

	delta := requested - req.CurrentOffset
	if delta < 0 {
		delta = -delta
	}
	d.SuspiciousJump = time.Duration(delta)*time.Minute >= g.cfg.SuspiciousJump

	if !req.LastChangeAt.IsZero() {
		d.TooFrequent = req.Now.Sub(req.LastChangeAt) < g.cfg.ChangeCooldown

		// The daily counter only counts if the last change happened on
		// the same local calendar day; a day rollover resets it.
		sameDay := timeutil.SameLocalDay(req.LastChangeAt, req.Now, req.CurrentOffset)
		d.DailyCapExceeded = sameDay && req.DailyChanges >= g.cfg.MaxDailyChanges
	}

	if d.TooFrequent {
		d.RetryAfter = req.LastChangeAt.Add(g.cfg.ChangeCooldown).Sub(req.Now)
	}
	if d.DailyCapExceeded {
		// The counter resets at the next local midnight in the offset
		// that dated the previous change.
		if until := timeutil.NextLocalMidnight(req.Now, req.CurrentOffset).Sub(req.Now); until > d.RetryAfter {
			d.RetryAfter = until
		}
	}

	if d.ValidRange && !d.SuspiciousJump && !d.TooFrequent && !d.DailyCapExceeded {
		d.Changed = true
		d.AcceptedOffset = requested
	}

	return d
}
