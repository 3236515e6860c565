package middleware

import (
	"net/http"
	"strings"
	"time"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/pkg/apperror"
	"staked-report-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// Context keys
	CtxUserID      = "user_id"
	CtxAuthSession = "auth_session"

	// Route guard redirect targets
	LoginPath     = "/login"
	ForbiddenPath = "/forbidden"
)

// Authenticate resolves the caller's auth session from the Authorization
// header. It never aborts: a missing or invalid token yields an anonymous
// session and the route guard decides what that means for the route.
func Authenticate(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := domain.Anonymous()

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := tokenSvc.Validate(authHeader[7:])
			if err != nil {
				log.Debug().Err(err).Msg("rejected bearer token")
			} else {
				auth = claims.AuthSession()
				c.Set(CtxUserID, claims.UserID)
			}
		}

		c.Set(CtxAuthSession, auth)
		c.Next()
	}
}

// AuthSessionFrom returns the auth session set by Authenticate, anonymous
// when the middleware did not run.
func AuthSessionFrom(c *gin.Context) domain.AuthSession {
	if v, exists := c.Get(CtxAuthSession); exists {
		if auth, ok := v.(domain.AuthSession); ok {
			return auth
		}
	}
	return domain.Anonymous()
}

// RouteGuard enforces a route's access requirement. Denials are navigation,
// not errors: browsers get a 303 redirect (to login with the attempted path,
// or to the forbidden page), API clients asking for JSON get the equivalent
// error body.
func RouteGuard(req domain.RouteRequirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := AuthSessionFrom(c)
		decision := domain.EvaluateRoute(auth, req, c.Request.URL.Path)

		switch decision.Outcome {
		case domain.GuardAllow:
			c.Next()
		case domain.GuardRedirectLogin:
			if wantsJSON(c) {
				response.Error(c, apperror.ErrUnauthenticated())
			} else {
				response.Redirect(c, LoginPath, map[string]string{"return_to": decision.ReturnTo})
			}
			c.Abort()
		case domain.GuardRedirectForbidden:
			if wantsJSON(c) {
				response.Error(c, apperror.ErrForbidden())
			} else {
				response.Redirect(c, ForbiddenPath, nil)
			}
			c.Abort()
		}
	}
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
