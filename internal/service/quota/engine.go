// Package quota decides when a user's daily message allowance rolls over.
// The reset is anchored to the user's local calendar day, so the engine is
// paired with a real-time cooldown that stops users from farming resets by
// flipping their timezone across day boundaries.
package quota

import (
	"time"

	"github.com/amora-app/backend/internal/platform/timeutil"
)

// Config holds the allowance rules. All values come from server
// configuration.
type Config struct {
	// DailyMessageLimit is the allowance granted on each reset.
	DailyMessageLimit int

	// ResetCooldown is the minimum real time between grants, independent
	// of how often the local calendar day appears to roll over.
	ResetCooldown time.Duration
}

// Request carries the stored quota state at evaluation time.
type Request struct {
	// OffsetMinutes is the user's effective UTC offset, after any
	// timezone change accepted earlier in the same request.
	OffsetMinutes int

	// LastResetAt is the UTC instant of the last grant; zero for never.
	LastResetAt time.Time

	// CurrentRemaining is the stored remaining allowance.
	CurrentRemaining int

	// Now is the current UTC instant, injected by the caller.
	Now time.Time
}

// ResetDecision is the outcome of one evaluation. ResetNeeded and
// ResetTooSoon are reported separately so callers can distinguish "already
// granted today" from "new day, but the cooldown is still running".
type ResetDecision struct {
	// ShouldReset reports whether the caller must persist a fresh
	// allowance and a new reset timestamp.
	ShouldReset bool

	// ResetNeeded reports that the local calendar day has rolled over
	// since the last grant (or that no grant was ever made).
	ResetNeeded bool

	// ResetTooSoon reports that the cooldown since the last grant has
	// not elapsed. A needed but too-soon reset is withheld.
	ResetTooSoon bool

	// NewRemaining is the allowance after the decision: the configured
	// limit on reset, otherwise the stored value clamped to bounds.
	NewRemaining int

	// NextResetAt is the next local midnight in UTC.
	NextResetAt time.Time

	// NextGrantAt is the earliest instant a future evaluation could
	// actually grant, accounting for both the day boundary and the
	// cooldown. Clients retry after this.
	NextGrantAt time.Time

	// UntilReset is how long from now until NextResetAt.
	UntilReset time.Duration

	// Countdown renders UntilReset for clients, e.g. "3h 12m".
	Countdown string
}

// Engine evaluates reset decisions. It is pure: no clock access, no I/O,
// and safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine enforcing the given rules.
func NewEngine(cfg Config) Engine {
	return Engine{cfg: cfg}
}

// Limit returns the configured daily allowance.
func (e Engine) Limit() int {
	return e.cfg.DailyMessageLimit
}

// Evaluate decides whether the allowance rolls over at req.Now.
//
// The decision is deterministic for identical inputs and idempotent per
// local calendar day: once a grant lands on a day, a later evaluation the
// same local day sees ResetNeeded false. Persistence is the caller's
// responsibility and only required when ShouldReset is true.
func (e Engine) Evaluate(req Request) ResetDecision {
	d := ResetDecision{
		NextResetAt: timeutil.NextLocalMidnight(req.Now, req.OffsetMinutes),
	}
	d.UntilReset = d.NextResetAt.Sub(req.Now)
	d.Countdown = timeutil.FormatCountdown(d.UntilReset)

	if req.LastResetAt.IsZero() {
		d.ResetNeeded = true
	} else {
		d.ResetNeeded = !timeutil.SameLocalDay(req.LastResetAt, req.Now, req.OffsetMinutes)
		d.ResetTooSoon = req.Now.Sub(req.LastResetAt) < e.cfg.ResetCooldown
	}

	d.ShouldReset = d.ResetNeeded && !d.ResetTooSoon
	d.NextGrantAt = e.nextGrantAt(req, d)

	if d.ShouldReset {
		d.NewRemaining = e.cfg.DailyMessageLimit
	} else {
		d.NewRemaining = clamp(req.CurrentRemaining, 0, e.cfg.DailyMessageLimit)
	}

	return d
}

// nextGrantAt finds the earliest instant at which a fresh evaluation would
// set ShouldReset. When only the cooldown blocks, that is its end; when the
// local day has not rolled over yet, the later of next midnight and the
// cooldown end.
func (e Engine) nextGrantAt(req Request, d ResetDecision) time.Time {
	if d.ShouldReset || req.LastResetAt.IsZero() {
		return req.Now
	}
	cooldownEnd := req.LastResetAt.Add(e.cfg.ResetCooldown)
	if d.ResetNeeded {
		return cooldownEnd
	}
	if cooldownEnd.After(d.NextResetAt) {
		return cooldownEnd
	}
	return d.NextResetAt
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
