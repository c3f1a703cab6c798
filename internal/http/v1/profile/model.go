package profile

import "github.com/amora-app/backend/internal/platform/timeutil"

// Profile represents a user profile response. Quota and Diagnostics are
// present on reads that ran the sync engines and absent on plain writes.
type Profile struct {
	ID          string `json:"id"          example:"user-123"`
	DisplayName string `json:"displayName" example:"Alex"`
	Bio         string `json:"bio,omitempty" example:"Coffee first, hikes later."`
	Birthdate   string `json:"birthdate"   example:"1994-06-15"`
	Gender      string `json:"gender"      example:"female"`
	LookingFor  string `json:"lookingFor"  example:"everyone"`
	City        string `json:"city,omitempty" example:"Helsinki"`

	TimezoneOffset       int            `json:"timezoneOffset"                example:"120"`
	TimezoneChangeDate   *timeutil.Time `json:"timezoneChangeDate,omitempty"  example:"2024-03-20T10:30:00.000Z"`
	TimezoneTotalChanges int            `json:"timezoneTotalChanges"          example:"4"`

	CreatedAt timeutil.Time `json:"createdAt" example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt timeutil.Time `json:"updatedAt" example:"2024-01-15T10:30:00.000Z"`

	Quota       *Quota       `json:"quota,omitempty"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// Quota reports the daily message allowance after the reset evaluation.
type Quota struct {
	DailyMessageRemaining int            `json:"dailyMessageRemaining"           example:"3"`
	DailyMessageResetDate *timeutil.Time `json:"dailyMessageResetDate,omitempty" example:"2024-03-20T05:00:00.000Z"`
	NextResetAt           timeutil.Time  `json:"nextResetAt"                     example:"2024-03-21T05:00:00.000Z"`
	HoursUntilReset       float64        `json:"hoursUntilReset"                 example:"3.2"`
	Countdown             string         `json:"countdown"                       example:"3h 12m"`
}

// Diagnostics mirrors the policy decisions taken during a profile sync so
// clients can explain why an offset claim or a reset did or did not land.
type Diagnostics struct {
	Timezone TimezoneDiagnostics `json:"timezone"`
	Quota    QuotaDiagnostics    `json:"quota"`
}

// TimezoneDiagnostics reports the outcome of the timezone change screen.
type TimezoneDiagnostics struct {
	Evaluated        bool   `json:"evaluated"        example:"true"`
	Changed          bool   `json:"changed"          example:"false"`
	AcceptedOffset   int    `json:"acceptedOffset"   example:"120"`
	ValidRange       bool   `json:"validRange"       example:"true"`
	SuspiciousJump   bool   `json:"suspiciousJump"   example:"true"`
	TooFrequent      bool   `json:"tooFrequent"      example:"false"`
	DailyCapExceeded bool   `json:"dailyCapExceeded" example:"false"`
	DenialReason     string `json:"denialReason,omitempty" example:"suspicious_timezone_jump"`
}

// QuotaDiagnostics reports the outcome of the daily reset evaluation.
type QuotaDiagnostics struct {
	ResetGranted bool `json:"resetGranted" example:"false"`
	ResetNeeded  bool `json:"resetNeeded"  example:"true"`
	ResetTooSoon bool `json:"resetTooSoon" example:"true"`
}
