package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActivityLog creates a middleware that records successful write operations.
// It maps HTTP methods and paths to activity actions.
func ActivityLog(activitySvc ports.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only record successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		action, resourceType := mapPathToAction(c.Request.URL.Path, c.Request.Method)
		if action == "" {
			return
		}

		var userID *uuid.UUID
		if uid, exists := c.Get(CtxUserID); exists {
			if id, ok := uid.(uuid.UUID); ok {
				userID = &id
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		activitySvc.Log(c.Request.Context(), &domain.ActivityLog{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapPathToAction(path, method string) (domain.ActivityAction, string) {
	switch {
	case path == "/register" && method == "POST":
		return domain.ActivityRegister, "user"
	case path == "/login" && method == "POST":
		return domain.ActivityLogin, "session"
	case path == "/faucet" && method == "POST":
		return domain.ActivityFaucet, "balance"
	case path == "/wallet/connect" && method == "POST":
		return domain.ActivityConnectWallet, "wallet"
	case path == "/wallet/switch-network" && method == "POST":
		return domain.ActivitySwitchNetwork, "wallet"
	case path == "/wallet/disconnect" && method == "POST":
		return domain.ActivityDisconnect, "wallet"
	case path == "/wallet/stake" && method == "POST":
		return domain.ActivityStake, "stake"
	case path == "/wallet/unstake" && method == "POST":
		return domain.ActivityUnstake, "stake"
	case path == "/submit-report" && method == "POST":
		return domain.ActivitySubmitReport, "report"
	case strings.HasPrefix(path, "/admin/reports/") && strings.HasSuffix(path, "/review") && method == "POST":
		return domain.ActivityReviewReport, "report"
	}
	return "", ""
}
