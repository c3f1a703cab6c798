package discover

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/amora-app/backend/internal/platform/auth"
	"github.com/amora-app/backend/internal/platform/clock"
	applog "github.com/amora-app/backend/internal/platform/logging"
	"github.com/amora-app/backend/internal/platform/pagination"
	"github.com/amora-app/backend/internal/platform/respond"
	profilesvc "github.com/amora-app/backend/internal/service/profile"
)

const cursorType = "profile"

// Register wires discovery routes into the provided group.
// The group is expected to have auth middleware applied.
func Register(g *echo.Group, svc profilesvc.Service, clk clock.Clock) {
	g.GET("/discover", listHandler(svc, clk))
}

// listHandler godoc
//
//	@Summary		Discover profiles
//	@Description	Returns a paginated list of other users' profiles with optional city filtering. The requesting user is never included.
//	@Tags			discover
//	@Accept			json
//	@Produce		json,application/cbor
//	@Param			cursor	query		string	false	"Pagination cursor"
//	@Param			limit	query		int		false	"Candidates per page"	minimum(1)	maximum(100)
//	@Param			city	query		string	false	"Filter by city, case-insensitive"
//	@Success		200		{object}	ListData
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		422		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Header			200		{string}	Link	"RFC 8288 pagination links"
//	@Security		BearerAuth
//	@Router			/discover [get]
func listHandler(svc profilesvc.Service, clk clock.Clock) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input ListInput
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

		limit := pagination.Params{Limit: input.Limit}.DefaultLimit()

		cursor, err := pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return respond.Error400("invalid cursor format")
		}

		if cursor.Type != "" && cursor.Type != cursorType {
			return respond.Error400("cursor type mismatch")
		}

		ctx := c.Request().Context()
		profiles, err := svc.List(ctx)
		if err != nil {
			applog.LogError(ctx, "failed to list profiles", err)
			return respond.Error500("internal error")
		}

		candidates := toCandidates(profiles, user.UID, input.City, clk.Now())

		if cursor.Value != "" && findCandidateIndex(candidates, cursor.Value) == -1 {
			return respond.Error400("cursor references unknown profile")
		}

		query := url.Values{}
		if input.City != "" {
			query.Set("city", input.City)
		}

		result := pagination.Paginate(
			candidates,
			cursor,
			limit,
			cursorType,
			func(cand Candidate) string { return cand.ID },
			"/v1/discover",
			query,
		)

		if result.LinkHeader != "" {
			c.Response().Header().Set("Link", result.LinkHeader)
		}
		return respond.Negotiate(c, http.StatusOK, ListData{
			Candidates: result.Items,
			Total:      result.Total,
		})
	}
}

func toCandidates(profiles []*profilesvc.Profile, selfID, city string, now time.Time) []Candidate {
	out := make([]Candidate, 0, len(profiles))
	for _, p := range profiles {
		if p.ID == selfID {
			continue
		}
		if city != "" && !strings.EqualFold(p.City, city) {
			continue
		}
		out = append(out, Candidate{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Age:         ageAt(p.Birthdate, now),
			Bio:         p.Bio,
			Gender:      p.Gender,
			LookingFor:  p.LookingFor,
			City:        p.City,
		})
	}
	return out
}

func findCandidateIndex(candidates []Candidate, id string) int {
	return slices.IndexFunc(candidates, func(cand Candidate) bool {
		return cand.ID == id
	})
}

// ageAt returns full years since the birthdate at the given instant, or 0
// when the stored birthdate is missing or malformed.
func ageAt(birthdate string, now time.Time) int {
	b, err := time.Parse("2006-01-02", birthdate)
	if err != nil {
		return 0
	}
	years := now.Year() - b.Year()
	if b.AddDate(years, 0, 0).After(now) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
