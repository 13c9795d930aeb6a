package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wellnest/wellnest/internal/auth"
	"github.com/wellnest/wellnest/internal/cache"
	"github.com/wellnest/wellnest/internal/config"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/http/handlers"
	"github.com/wellnest/wellnest/internal/http/middlewares"
	"github.com/wellnest/wellnest/internal/notifications"
	"github.com/wellnest/wellnest/internal/observability"
	"github.com/wellnest/wellnest/internal/otp"
	"github.com/wellnest/wellnest/internal/queue/redisclient"
	"github.com/wellnest/wellnest/internal/repo/postgres"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Deps carries everything the router wires together. Redis is optional,
// without it the rate limiter falls back to per-process counters.
type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Pool     *pgxpool.Pool
	Prom     *observability.Prom
	Registry *prometheus.Registry
	Redis    *redisclient.Client
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("wellnest-api"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// health
	ping := func() error {
		if d.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return d.Pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(d.Pool, d.Prom)
	otpsRepo := postgres.NewOtpsRepo(d.Pool, d.Prom)
	jobsRepo := postgres.NewJobsRepo(d.Pool, d.Prom)
	profilesRepo := postgres.NewProfilesRepo(d.Pool, d.Prom)
	reportsRepo := postgres.NewReportsRepo(d.Pool, d.Prom)
	assignmentsRepo := postgres.NewAssignmentsRepo(d.Pool, d.Prom)

	// core services
	otpEngine := otp.NewEngine(otpsRepo, d.Cfg.OTPLength, d.Cfg.OTPExpiry(), d.Log)
	tokens := auth.NewManager(d.Cfg.JWTSecret, d.Cfg.AccessTTL())
	dispatcher := notifications.NewQueueDispatcher(jobsRepo, d.Log)

	listCache := cache.New(30 * time.Second)

	// rate limiting on the auth surface
	var counters middlewares.CounterStore = middlewares.NewMemoryCounterStore()

	if d.Redis != nil {
		counters = middlewares.NewRedisCounterStore(d.Redis)
	}

	authLimit := middlewares.NewRateLimiter(counters, 10, time.Minute)
	otpLimit := middlewares.NewRateLimiter(counters, 5, time.Minute)

	// handlers
	authHandler := handlers.NewAuthHandler(usersRepo, otpEngine, tokens, dispatcher, d.Log)
	profileHandler := handlers.NewProfileHandler(profilesRepo, usersRepo)
	trainersHandler := handlers.NewTrainersHandler(usersRepo, assignmentsRepo, profilesRepo, listCache)
	reportsHandler := handlers.NewReportsHandler(reportsRepo, usersRepo)
	adminHandler := handlers.NewAdminHandler(usersRepo, reportsRepo, assignmentsRepo, profilesRepo, listCache)

	authMW := middlewares.NewAuthMiddleware(tokens)

	// public auth surface
	authGroup := r.Group("/auth")
	authGroup.POST("/register", authLimit.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	authGroup.POST("/login", authLimit.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	authGroup.POST("/verify-email", otpLimit.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.VerifyEmail)
	authGroup.POST("/resend-otp", otpLimit.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.ResendOtp)
	authGroup.POST("/forgot-password", otpLimit.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.ForgotPassword)
	authGroup.POST("/reset-password", otpLimit.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.ResetPassword)
	authGroup.POST("/verify-reset-otp", otpLimit.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.VerifyResetOtp)

	// authenticated surface
	api := r.Group("/api")
	api.Use(authMW.RequireAuth())

	api.GET("/profile", profileHandler.GetProfile)
	api.PUT("/profile", profileHandler.UpdateProfile)

	customer := string(user.RoleCustomer)
	trainer := string(user.RoleTrainer)
	admin := string(user.RoleAdmin)

	api.GET("/trainers", authMW.RequireRole(customer, admin), trainersHandler.ListTrainers)
	api.POST("/trainers/select", authMW.RequireRole(customer), trainersHandler.SelectTrainer)
	api.GET("/trainers/me", authMW.RequireRole(customer), trainersHandler.MyTrainer)
	api.GET("/trainers/trainees", authMW.RequireRole(trainer), trainersHandler.MyTrainees)

	api.POST("/reports", authMW.RequireRole(customer), reportsHandler.CreateReport)
	api.GET("/reports/mine", authMW.RequireRole(customer), reportsHandler.MyReports)
	api.GET("/reports/against-me", authMW.RequireRole(trainer), reportsHandler.ReportsAgainstMe)

	adminGroup := api.Group("/admin")
	adminGroup.Use(authMW.RequireRole(admin))

	adminGroup.GET("/stats", adminHandler.DashboardStats)
	adminGroup.GET("/customers", adminHandler.ListCustomers)
	adminGroup.GET("/trainers", adminHandler.ListTrainers)
	adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
	adminGroup.GET("/reports", reportsHandler.ListReports)
	adminGroup.PUT("/reports/:id/status", reportsHandler.UpdateReportStatus)
	adminGroup.DELETE("/reports/:id", reportsHandler.DeleteReport)

	return r
}
