package profile

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/amora-app/backend/internal/platform/auth"
	applog "github.com/amora-app/backend/internal/platform/logging"
	"github.com/amora-app/backend/internal/platform/respond"
	"github.com/amora-app/backend/internal/platform/timeutil"
	profilesvc "github.com/amora-app/backend/internal/service/profile"
	"github.com/amora-app/backend/internal/service/timezone"
)

// Register wires profile routes into the provided group.
// The group is expected to have auth middleware applied.
func Register(g *echo.Group, svc profilesvc.Service, guard timezone.Guard) {
	g.POST("/profile", handleCreateProfile(svc, guard))
	g.GET("/profile", handleGetProfile(svc))
	g.PATCH("/profile", handleUpdateProfile(svc))
	g.DELETE("/profile", handleDeleteProfile(svc))
	g.PUT("/profile/timezone", handleChangeTimezone(svc))
}

// handleCreateProfile godoc
//
//	@Summary		Create profile
//	@Description	Creates a new dating profile for the authenticated user
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Param			body	body		CreateInput	true	"Profile creation request body"
//	@Success		201		{object}	Profile
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		409		{object}	respond.ProblemDetails
//	@Failure		422		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Header			201		{string}	Location	"URI of the created profile"
//	@Security		BearerAuth
//	@Router			/profile [post]
func handleCreateProfile(svc profilesvc.Service, guard timezone.Guard) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input CreateInput
		if err := c.Bind(&input); err != nil {
			return err
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		// There is no stored history to screen against yet, so only the
		// range rule applies at creation.
		offset := timeutil.ParseOffset(input.TimezoneOffset)
		if !guard.InRange(offset) {
			return respond.Error400("timezone offset out of range")
		}

		user, err := auth.UserFromEchoContext(c)
		if err != nil {
			return respond.Error401("unauthorized")
		}

		ctx := c.Request().Context()
		created, err := svc.Create(ctx, user.UID, profilesvc.CreateParams{
			DisplayName:    input.DisplayName,
			Bio:            input.Bio,
			Birthdate:      input.Birthdate,
			Gender:         input.Gender,
			LookingFor:     input.LookingFor,
			City:           input.City,
			FCMToken:       input.FCMToken,
			TimezoneOffset: offset,
		})
		if err != nil {
			return mapServiceError(ctx, err)
		}

		c.Response().Header().Set("Location", "/v1/profile")
		return respond.Negotiate(c, http.StatusCreated, toHTTPProfile(created))
	}
}

// handleGetProfile godoc
//
//	@Summary		Get profile
//	@Description	Returns the authenticated user's profile. Runs the timezone screen against an optional claimed offset and rolls the daily message allowance over when due; a rejected offset claim never fails the fetch and is reported in the diagnostics instead.
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Param			timezoneOffset	query		string	false	"Client-claimed UTC offset in minutes, number or legacy string form"
//	@Success		200				{object}	Profile
//	@Failure		401				{object}	respond.ProblemDetails
//	@Failure		404				{object}	respond.ProblemDetails
//	@Failure		500				{object}	respond.ProblemDetails
//	@Security		BearerAuth
//	@Router			/profile [get]
func handleGetProfile(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		user, err := auth.UserFromEchoContext(c)
		if err != nil {
			return respond.Error401("unauthorized")
		}

		var requested *int
		if raw := c.QueryParam("timezoneOffset"); raw != "" {
			offset := timeutil.ParseOffset(raw)
			requested = &offset
		}

		ctx := c.Request().Context()
		result, err := svc.Sync(ctx, user.UID, profilesvc.SyncParams{RequestedOffset: requested})
		if err != nil {
			return mapServiceError(ctx, err)
		}

		if reason := result.Timezone.DenialReason(); reason != timezone.ReasonNone {
			auditTimezoneDecision(ctx, user.UID, result.Timezone, reason)
		}

		return respond.Negotiate(c, http.StatusOK, toSyncedProfile(result))
	}
}

// handleUpdateProfile godoc
//
//	@Summary		Update profile
//	@Description	Partially updates the authenticated user's profile
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Param			body	body		UpdateInput	true	"Profile update request body"
//	@Success		200		{object}	Profile
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		404		{object}	respond.ProblemDetails
//	@Failure		422		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Security		BearerAuth
//	@Router			/profile [patch]
func handleUpdateProfile(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input UpdateInput
		if err := c.Bind(&input); err != nil {
			return err
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		user, err := auth.UserFromEchoContext(c)
		if err != nil {
			return respond.Error401("unauthorized")
		}

		ctx := c.Request().Context()
		updated, err := svc.Update(ctx, user.UID, profilesvc.UpdateParams{
			DisplayName: input.DisplayName,
			Bio:         input.Bio,
			Gender:      input.Gender,
			LookingFor:  input.LookingFor,
			City:        input.City,
			FCMToken:    input.FCMToken,
		})
		if err != nil {
			return mapServiceError(ctx, err)
		}

		return respond.Negotiate(c, http.StatusOK, toHTTPProfile(updated))
	}
}

// handleDeleteProfile godoc
//
//	@Summary		Delete profile
//	@Description	Deletes the authenticated user's profile
//	@Tags			profile
//	@Success		204
//	@Failure		401	{object}	respond.ProblemDetails
//	@Failure		404	{object}	respond.ProblemDetails
//	@Failure		500	{object}	respond.ProblemDetails
//	@Security		BearerAuth
//	@Router			/profile [delete]
func handleDeleteProfile(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		user, err := auth.UserFromEchoContext(c)
		if err != nil {
			return respond.Error401("unauthorized")
		}

		ctx := c.Request().Context()
		if err := svc.Delete(ctx, user.UID); err != nil {
			return mapServiceError(ctx, err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}

// handleChangeTimezone godoc
//
//	@Summary		Change timezone
//	@Description	Requests an explicit timezone offset change. Unlike the soft screen on profile reads, a rejected change fails the request with the violated rule.
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Param			body	body		TimezoneInput	true	"Timezone change request body"
//	@Success		200		{object}	Profile
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		404		{object}	respond.ProblemDetails
//	@Failure		422		{object}	respond.ProblemDetails
//	@Failure		429		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Header			429		{string}	Retry-After	"Seconds until a change could be accepted"
//	@Security		BearerAuth
//	@Router			/profile/timezone [put]
func handleChangeTimezone(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input TimezoneInput
		if err := c.Bind(&input); err != nil {
			return err
		}
		if input.TimezoneOffset == nil {
			return respond.Error400("timezoneOffset is required")
		}

		user, err := auth.UserFromEchoContext(c)
		if err != nil {
			return respond.Error401("unauthorized")
		}

		offset := timeutil.ParseOffset(input.TimezoneOffset)
		ctx := c.Request().Context()
		result, err := svc.Sync(ctx, user.UID, profilesvc.SyncParams{RequestedOffset: &offset})
		if err != nil {
			return mapServiceError(ctx, err)
		}

		d := result.Timezone
		if reason := d.DenialReason(); reason != timezone.ReasonNone {
			auditTimezoneDecision(ctx, user.UID, d, reason)
			return timezoneDenied(c, d, reason)
		}

		if d.Changed {
			auditTimezoneDecision(ctx, user.UID, d, timezone.ReasonNone)
		}

		return respond.Negotiate(c, http.StatusOK, toSyncedProfile(result))
	}
}

// timezoneDenied maps a guard rejection onto a problem response: malformed
// offsets are client errors, suspicious jumps are semantic rejections,
// frequency violations are throttles with a retry hint.
func timezoneDenied(c *echo.Context, d timezone.Decision, reason timezone.Reason) error {
	switch reason {
	case timezone.ReasonInvalidRange:
		return respond.Error400("timezone offset out of range")
	case timezone.ReasonSuspiciousJump:
		return respond.Error422("timezone change rejected as suspicious")
	case timezone.ReasonTooFrequent, timezone.ReasonDailyCapExceeded:
		if d.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", strconv.Itoa(ceilSeconds(d.RetryAfter)))
		}
		if reason == timezone.ReasonTooFrequent {
			return respond.Error429("timezone changed too recently")
		}
		return respond.Error429("daily timezone change limit reached")
	default:
		return respond.Error500("internal error")
	}
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func auditTimezoneDecision(ctx context.Context, userID string, d timezone.Decision, reason timezone.Reason) {
	action := "timezone_change_accepted"
	result := "accepted"
	if reason != timezone.ReasonNone {
		action = "timezone_change_rejected"
		result = string(reason)
	}
	applog.LogAuditEvent(ctx, action, userID, "profile", userID, result, map[string]any{
		"acceptedOffset":   d.AcceptedOffset,
		"validRange":       d.ValidRange,
		"suspiciousJump":   d.SuspiciousJump,
		"tooFrequent":      d.TooFrequent,
		"dailyCapExceeded": d.DailyCapExceeded,
	})
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return respond.Error404("profile not found")
	case errors.Is(err, profilesvc.ErrAlreadyExists):
		return respond.Error409("profile already exists")
	default:
		applog.LogError(ctx, "unexpected service error", err)
		return respond.Error500("internal error")
	}
}

func toHTTPProfile(p *profilesvc.Profile) Profile {
	return Profile{
		ID:                   p.ID,
		DisplayName:          p.DisplayName,
		Bio:                  p.Bio,
		Birthdate:            p.Birthdate,
		Gender:               p.Gender,
		LookingFor:           p.LookingFor,
		City:                 p.City,
		TimezoneOffset:       p.TimezoneOffset,
		TimezoneChangeDate:   optionalTime(p.TimezoneChangeDate),
		TimezoneTotalChanges: p.TimezoneTotalChanges,
		CreatedAt:            timeutil.Time{Time: p.CreatedAt},
		UpdatedAt:            timeutil.Time{Time: p.UpdatedAt},
	}
}

func toSyncedProfile(r *profilesvc.SyncResult) Profile {
	p := toHTTPProfile(r.Profile)
	p.Quota = &Quota{
		DailyMessageRemaining: r.Profile.DailyMessageRemaining,
		DailyMessageResetDate: optionalTime(r.Profile.DailyMessageResetDate),
		NextResetAt:           timeutil.Time{Time: r.Quota.NextResetAt},
		HoursUntilReset:       roundHours(r.Quota.UntilReset),
		Countdown:             r.Quota.Countdown,
	}
	p.Diagnostics = &Diagnostics{
		Timezone: TimezoneDiagnostics{
			Evaluated:        r.Timezone.Evaluated,
			Changed:          r.Timezone.Changed,
			AcceptedOffset:   r.Timezone.AcceptedOffset,
			ValidRange:       r.Timezone.ValidRange,
			SuspiciousJump:   r.Timezone.SuspiciousJump,
			TooFrequent:      r.Timezone.TooFrequent,
			DailyCapExceeded: r.Timezone.DailyCapExceeded,
			DenialReason:     string(r.Timezone.DenialReason()),
		},
		Quota: QuotaDiagnostics{
			ResetGranted: r.Quota.ShouldReset,
			ResetNeeded:  r.Quota.ResetNeeded,
			ResetTooSoon: r.Quota.ResetTooSoon,
		},
	}
	return p
}

func optionalTime(t time.Time) *timeutil.Time {
	if t.IsZero() {
		return nil
	}
	return &timeutil.Time{Time: t}
}

// roundHours renders a duration as fractional hours with two decimals for
// client display.
func roundHours(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return math.Round(d.Hours()*100) / 100
}
