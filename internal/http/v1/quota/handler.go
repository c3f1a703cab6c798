package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/amora-app/backend/internal/platform/auth"
	"github.com/amora-app/backend/internal/platform/clock"
	applog "github.com/amora-app/backend/internal/platform/logging"
	"github.com/amora-app/backend/internal/platform/respond"
	"github.com/amora-app/backend/internal/platform/timeutil"
	profilesvc "github.com/amora-app/backend/internal/service/profile"
	"github.com/amora-app/backend/internal/service/push"
	quotasvc "github.com/amora-app/backend/internal/service/quota"
)

// Register wires quota routes into the provided group.
// The group is expected to have auth middleware applied.
func Register(
	g *echo.Group,
	svc profilesvc.Service,
	engine quotasvc.Engine,
	notifier push.Notifier,
	clk clock.Clock,
) {
	g.GET("/quota", handleGetQuota(svc, engine))
	g.POST("/quota/spend", handleSpendQuota(svc, notifier, clk))
}

// handleGetQuota godoc
//
//	@Summary		Get message quota
//	@Description	Returns the daily message allowance. The reset evaluation runs on every read, so a due rollover is granted here as well.
//	@Tags			quota
//	@Produce		json,application/cbor
//	@Success		200	{object}	Status
//	@Failure		401	{object}	respond.ProblemDetails
//	@Failure		404	{object}	respond.ProblemDetails
//	@Failure		500	{object}	respond.ProblemDetails
//	@Security		BearerAuth
//	@Router			/quota [get]
func handleGetQuota(svc profilesvc.Service, engine quotasvc.Engine) echo.HandlerFunc {
	return func(c *echo.Context) error {
		user, err := auth.UserFromEchoContext(c)
		if err != nil {
			return respond.Error401("unauthorized")
		}

		ctx := c.Request().Context()
		result, err := svc.Sync(ctx, user.UID, profilesvc.SyncParams{})
		if err != nil {
			return mapServiceError(ctx, err)
		}

		return respond.Negotiate(c, http.StatusOK, Status{
			DailyMessageRemaining: result.Profile.DailyMessageRemaining,
			DailyMessageLimit:     engine.Limit(),
			DailyMessageResetDate: optionalTime(result.Profile.DailyMessageResetDate),
			NextResetAt:           timeutil.Time{Time: result.Quota.NextResetAt},
			HoursUntilReset:       roundHours(result.Quota.UntilReset),
			Countdown:             result.Quota.Countdown,
			ResetGranted:          result.Quota.ShouldReset,
			ResetPending:          result.Quota.ResetNeeded && result.Quota.ResetTooSoon,
		})
	}
}

// handleSpendQuota godoc
//
//	@Summary		Spend one message
//	@Description	Decrements the daily message allowance by one. When a target user is named, that user receives a best-effort push notification; delivery problems never fail the spend.
//	@Tags			quota
//	@Produce		json,application/cbor
//	@Param			body	body		SpendInput	true	"Spend request body"
//	@Success		200		{object}	SpendData
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		404		{object}	respond.ProblemDetails
//	@Failure		422		{object}	respond.ProblemDetails
//	@Failure		429		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Header			429		{string}	Retry-After	"Seconds until the next allowance grant"
//	@Security		BearerAuth
//	@Router			/quota/spend [post]
func handleSpendQuota(svc profilesvc.Service, notifier push.Notifier, clk clock.Clock) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input SpendInput
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
		result, err := svc.SpendMessage(ctx, user.UID)
		if errors.Is(err, profilesvc.ErrQuotaExhausted) {
			return quotaExhausted(c, user.UID, result, clk)
		}
		if err != nil {
			return mapServiceError(ctx, err)
		}

		if input.TargetUserID != "" && input.TargetUserID != user.UID {
			notifyIntro(ctx, svc, notifier, user.UID, input.TargetUserID)
		}

		return respond.Negotiate(c, http.StatusOK, SpendData{
			DailyMessageRemaining: result.Remaining,
			NextResetAt:           timeutil.Time{Time: result.Quota.NextResetAt},
			Countdown:             result.Quota.Countdown,
		})
	}
}

// quotaExhausted turns an exhausted allowance into a 429 with a retry hint
// derived from the next possible grant, which accounts for both the local
// day boundary and the anti-farming cooldown.
func quotaExhausted(c *echo.Context, userID string, result *profilesvc.SpendResult, clk clock.Clock) error {
	retry := result.Quota.NextGrantAt.Sub(clk.Now())
	if retry > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(ceilSeconds(retry)))
	}

	applog.LogAuditEvent(c.Request().Context(), "message_quota_exhausted", userID, "quota", userID, "denied", map[string]any{
		"nextGrantAt": result.Quota.NextGrantAt,
	})

	return respond.Error429(fmt.Sprintf(
		"daily message quota exhausted, next message available in %s",
		timeutil.FormatCountdown(retry),
	))
}

// notifyIntro delivers a best-effort push to the intro recipient. A stale
// device token gets cleared from the target profile; every other failure is
// only logged.
func notifyIntro(ctx context.Context, svc profilesvc.Service, notifier push.Notifier, fromUserID, targetUserID string) {
	target, err := svc.Get(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, profilesvc.ErrNotFound) {
			applog.LogWarn(ctx, "intro target not found", slog.String("targetUserId", targetUserID))
		} else {
			applog.LogError(ctx, "intro target lookup failed", err)
		}
		return
	}
	if target.FCMToken == "" {
		return
	}

	err = notifier.Send(ctx, target.FCMToken, push.Notification{
		Title: "New intro received",
		Body:  "Someone started a conversation with you.",
		Data: map[string]string{
			"type":       "intro",
			"fromUserId": fromUserID,
		},
	})
	switch {
	case err == nil:
	case errors.Is(err, push.ErrUnregistered):
		// The device is gone; stop sending to it.
		empty := ""
		if _, uerr := svc.Update(ctx, targetUserID, profilesvc.UpdateParams{FCMToken: &empty}); uerr != nil {
			applog.LogError(ctx, "failed to clear stale device token", uerr)
		}
	default:
		applog.LogWarn(ctx, "intro notification failed",
			slog.String("targetUserId", targetUserID),
			slog.String("error", err.Error()),
		)
	}
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return respond.Error404("profile not found")
	default:
		applog.LogError(ctx, "unexpected service error", err)
		return respond.Error500("internal error")
	}
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func optionalTime(t time.Time) *timeutil.Time {
	if t.IsZero() {
		return nil
	}
	return &timeutil.Time{Time: t}
}

func roundHours(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return math.Round(d.Hours()*100) / 100
}
