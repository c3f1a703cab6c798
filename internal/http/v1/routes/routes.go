package routes

import (
	"github.com/labstack/echo/v5"

	"github.com/amora-app/backend/internal/http/v1/discover"
	"github.com/amora-app/backend/internal/http/v1/profile"
	"github.com/amora-app/backend/internal/http/v1/quota"
	"github.com/amora-app/backend/internal/platform/auth"
	"github.com/amora-app/backend/internal/platform/clock"
	profilesvc "github.com/amora-app/backend/internal/service/profile"
	"github.com/amora-app/backend/internal/service/push"
	quotasvc "github.com/amora-app/backend/internal/service/quota"
	"github.com/amora-app/backend/internal/service/timezone"
)

// Deps bundles the shared dependencies the v1 routes are wired with.
type Deps struct {
	Verifier auth.Verifier
	Profiles profilesvc.Service
	Guard    timezone.Guard
	Engine   quotasvc.Engine
	Notifier push.Notifier
	Clock    clock.Clock
}

// Register wires all v1 routes into the provided group. Every v1 route
// requires a verified bearer token.
func Register(v1 *echo.Group, deps Deps) {
	protected := v1.Group("", auth.Middleware(deps.Verifier))

	profile.Register(protected, deps.Profiles, deps.Guard)
	quota.Register(protected, deps.Profiles, deps.Engine, deps.Notifier, deps.Clock)
	discover.Register(protected, deps.Profiles, deps.Clock)
}
