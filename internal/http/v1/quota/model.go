package quota

import "github.com/amora-app/backend/internal/platform/timeutil"

// Status is the standalone view of the daily message allowance after the
// reset evaluation ran.
type Status struct {
	DailyMessageRemaining int            `json:"dailyMessageRemaining"           example:"2"`
	DailyMessageLimit     int            `json:"dailyMessageLimit"               example:"3"`
	DailyMessageResetDate *timeutil.Time `json:"dailyMessageResetDate,omitempty" example:"2024-03-20T05:00:00.000Z"`
	NextResetAt           timeutil.Time  `json:"nextResetAt"                     example:"2024-03-21T05:00:00.000Z"`
	HoursUntilReset       float64        `json:"hoursUntilReset"                 example:"3.2"`
	Countdown             string         `json:"countdown"                       example:"3h 12m"`

	// ResetGranted reports that this request rolled the allowance over.
	// ResetPending reports that a rollover is due but withheld by the
	// anti-farming cooldown.
	ResetGranted bool `json:"resetGranted" example:"false"`
	ResetPending bool `json:"resetPending" example:"false"`
}

// SpendData reports the outcome of a successful spend.
type SpendData struct {
	DailyMessageRemaining int           `json:"dailyMessageRemaining" example:"2"`
	NextResetAt           timeutil.Time `json:"nextResetAt"           example:"2024-03-21T05:00:00.000Z"`
	Countdown             string        `json:"countdown"             example:"3h 12m"`
}
