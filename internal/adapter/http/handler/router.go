package handler

import (
	"fmt"

	"staked-report-gateway/internal/adapter/http/middleware"
	redisStore "staked-report-gateway/internal/adapter/storage/redis"
	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc         ports.AuthService
	GateSvc         ports.GateService
	StakingSvc      ports.StakingService
	ReportSvc       ports.ReportService
	UserRepo        ports.UserRepository
	TokenSvc        ports.TokenService
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	ActivitySvc     ports.ActivityService // nil = activity logging disabled
	RequiredNetwork domain.NetworkID
	Logger          zerolog.Logger
}

// route binds one endpoint to its access requirement. Requirements are
// validated at setup time so a route demanding admin without authentication
// is a startup error, not a runtime surprise.
type route struct {
	method      string
	path        string
	requirement domain.RouteRequirement
	rateGroup   string // "" = no rate limit
	handler     gin.HandlerFunc
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit
	r.Use(middleware.Authenticate(deps.TokenSvc, deps.Logger))

	// Activity logging (after response)
	if deps.ActivitySvc != nil {
		r.Use(middleware.ActivityLog(deps.ActivitySvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil || group == "" {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	authHandler := NewAuthHandler(deps.AuthSvc)
	walletHandler := NewWalletHandler(deps.GateSvc, deps.StakingSvc, deps.RequiredNetwork)
	reportHandler := NewReportHandler(deps.ReportSvc)
	dashboardHandler := NewDashboardHandler(deps.UserRepo, deps.StakingSvc, deps.ReportSvc)
	adminHandler := NewAdminHandler(deps.ReportSvc)

	routes := []route{
		// Public pages
		{"GET", "/", domain.Public(), "", dashboardHandler.Home},
		{"GET", "/forbidden", domain.Public(), "", dashboardHandler.Forbidden},
		{"POST", "/register", domain.Public(), "auth_register", authHandler.Register},
		{"POST", "/login", domain.Public(), "auth_login", authHandler.Login},
		{"POST", "/faucet", domain.Public(), "faucet", walletHandler.Faucet},

		// Authenticated pages
		{"GET", "/dashboard", domain.Authenticated(), "dashboard", dashboardHandler.Dashboard},
		{"GET", "/profile", domain.Authenticated(), "dashboard", dashboardHandler.Profile},
		{"GET", "/reports", domain.Authenticated(), "reports", reportHandler.List},
		{"GET", "/reports/:id", domain.Authenticated(), "reports", reportHandler.Get},
		{"POST", "/submit-report", domain.Authenticated(), "reports", reportHandler.Submit},

		// Wallet gate
		{"GET", "/wallet/status", domain.Authenticated(), "wallet", walletHandler.Status},
		{"POST", "/wallet/connect", domain.Authenticated(), "wallet", walletHandler.Connect},
		{"POST", "/wallet/switch-network", domain.Authenticated(), "wallet", walletHandler.SwitchNetwork},
		{"POST", "/wallet/disconnect", domain.Authenticated(), "wallet", walletHandler.Disconnect},
		{"POST", "/wallet/dismiss-error", domain.Authenticated(), "wallet", walletHandler.DismissError},
		{"POST", "/wallet/acknowledge-prompt", domain.Authenticated(), "wallet", walletHandler.AcknowledgePrompt},
		{"POST", "/wallet/stake", domain.Authenticated(), "wallet", walletHandler.Stake},
		{"POST", "/wallet/unstake", domain.Authenticated(), "wallet", walletHandler.Unstake},

		// Admin pages
		{"GET", "/admin", domain.AdminOnly(), "dashboard", adminHandler.Overview},
		{"POST", "/admin/reports/:id/review", domain.AdminOnly(), "reports", adminHandler.Review},
	}

	for _, rt := range routes {
		if err := rt.requirement.Validate(); err != nil {
			return nil, fmt.Errorf("route %s %s: %w", rt.method, rt.path, err)
		}
		r.Handle(rt.method, rt.path, middleware.RouteGuard(rt.requirement), rl(rt.rateGroup), rt.handler)
	}

	return r, nil
}
