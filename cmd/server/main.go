package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/amora-app/backend/internal/http/docs"
	"github.com/amora-app/backend/internal/http/health"
	"github.com/amora-app/backend/internal/http/v1/routes"
	"github.com/amora-app/backend/internal/platform/auth"
	"github.com/amora-app/backend/internal/platform/clock"
	"github.com/amora-app/backend/internal/platform/config"
	"github.com/amora-app/backend/internal/platform/firebase"
	applog "github.com/amora-app/backend/internal/platform/logging"
	appmiddleware "github.com/amora-app/backend/internal/platform/middleware"
	"github.com/amora-app/backend/internal/platform/respond"
	"github.com/amora-app/backend/internal/platform/validate"
	profilesvc "github.com/amora-app/backend/internal/service/profile"
	"github.com/amora-app/backend/internal/service/push"
	quotasvc "github.com/amora-app/backend/internal/service/quota"
	"github.com/amora-app/backend/internal/service/timezone"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

// main godoc
//
//	@title						Amora API
//	@version					1.0
//	@description				Dating profile backend with timezone-aware daily message quotas.
//	@BasePath					/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Firebase ID token, sent as "Bearer {token}"
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		applog.LogFatal(ctx, "configuration invalid", err)
	}
	if cfg.Environment == "development" {
		applog.LogWarn(ctx, "running in development mode",
			slog.String("projectId", cfg.FirebaseProjectID))
	}

	firebaseClients, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID: cfg.FirebaseProjectID,
	})
	if err != nil {
		applog.LogFatal(ctx, "firebase init failed", err)
	}
	defer func() {
		if closeErr := firebaseClients.Close(); closeErr != nil {
			applog.LogError(ctx, "firebase close error", closeErr)
		}
	}()

	clk := clock.System{}
	guard := timezone.NewGuard(timezone.Config{
		MinOffsetMinutes: cfg.Timezone.MinOffsetMinutes,
		MaxOffsetMinutes: cfg.Timezone.MaxOffsetMinutes,
		SuspiciousJump:   cfg.Timezone.SuspiciousJump,
		ChangeCooldown:   cfg.Timezone.ChangeCooldown,
		MaxDailyChanges:  cfg.Timezone.MaxDailyChanges,
	})
	engine := quotasvc.NewEngine(quotasvc.Config{
		DailyMessageLimit: cfg.Quota.DailyMessageLimit,
		ResetCooldown:     cfg.Quota.ResetCooldown,
	})

	verifier := auth.NewFirebaseVerifier(firebaseClients.Auth)
	profileService := profilesvc.NewFirestoreStore(firebaseClients.Firestore, guard, engine, clk)

	var notifier push.Notifier = push.NoopNotifier{}
	if firebaseClients.Messaging != nil {
		notifier = push.NewFCMNotifier(firebaseClients.Messaging)
	} else {
		applog.LogWarn(ctx, "messaging client unavailable, push notifications disabled")
	}

	e := echo.New()
	e.Validator = validate.New()
	e.HTTPErrorHandler = respond.NewHTTPErrorHandler()
	e.IPExtractor = echo.ExtractIPFromRealIPHeader()
	e.Logger = applog.Logger()

	e.Use(
		appmiddleware.Security("/api-docs"),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		middleware.BodyLimit(1<<20),
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	docs.Register(e, cfg.OpenAPISpecPath)
	e.GET("/health", health.Handler)

	v1 := e.Group("/v1", appmiddleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	routes.Register(v1, routes.Deps{
		Verifier: verifier,
		Profiles: profileService,
		Guard:    guard,
		Engine:   engine,
		Notifier: notifier,
		Clock:    clk,
	})

	applog.LogInfo(ctx, "server starting",
		slog.String("addr", ":"+cfg.Port),
		slog.String("environment", cfg.Environment),
		slog.String("version", Version))

	sc := echo.StartConfig{
		Address:         ":" + cfg.Port,
		GracefulTimeout: 10 * time.Second,
		BeforeServeFunc: func(s *http.Server) error {
			s.ReadTimeout = 5 * time.Second
			s.ReadHeaderTimeout = 2 * time.Second
			s.WriteTimeout = 10 * time.Second
			s.IdleTimeout = 60 * time.Second
			s.MaxHeaderBytes = 64 << 10
			return nil
		},
	}

	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sc.Start(sigCtx, e); err != nil {
		log.Fatal(err)
	}

	applog.LogInfo(ctx, "server exited")
}
