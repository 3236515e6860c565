package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "staked-report-gateway/internal/adapter/http/handler"
	redisStorage "staked-report-gateway/internal/adapter/storage/redis"
	"staked-report-gateway/internal/adapter/walletprovider"
	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/internal/service"
	"staked-report-gateway/pkg/apperror"
	"staked-report-gateway/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	requiredNetwork = domain.NetworkID("verity-mainnet")
	startNetwork    = domain.NetworkID("goerli") // simulated wallets start on the wrong network
)

// testApp builds the full application stack: real HTTP layer, middleware,
// handlers and services over in-memory repos, miniredis-backed session
// storage, and the simulated wallet provider at zero latency.
type testApp struct {
	server   *httptest.Server
	redis    *miniredis.Miniredis
	provider *walletprovider.SimulatedProvider
	userRepo *inMemoryUserRepo
	gateSvc  ports.GateService

	// noRedirect never follows guard redirects so tests can assert on them.
	noRedirect *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	sessionStore := redisStorage.NewSessionStore(rdb)

	log := logger.New("debug", false)

	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	userRepo := newInMemoryUserRepo()
	stakeRepo := newInMemoryStakeRepo()
	reportRepo := newInMemoryReportRepo()
	transactor := newInMemoryTransactor()

	provider := walletprovider.NewSimulatedProvider(0, startNetwork, log)

	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc)
	gateSvc := service.NewGateService(provider, sessionStore, requiredNetwork, 2*time.Second, 2*time.Second, time.Hour, log)
	stakingSvc := service.NewStakingService(userRepo, stakeRepo, transactor, gateSvc, 100, 500, log)
	reportSvc := service.NewReportService(reportRepo, stakeRepo, gateSvc, log)
	activitySvc := service.NewActivityService(newInMemoryActivityRepo(), log)

	router, err := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		GateSvc:         gateSvc,
		StakingSvc:      stakingSvc,
		ReportSvc:       reportSvc,
		UserRepo:        userRepo,
		TokenSvc:        tokenSvc,
		ActivitySvc:     activitySvc,
		RequiredNetwork: requiredNetwork,
		Logger:          log,
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)

	return &testApp{
		server:   server,
		redis:    mr,
		provider: provider,
		userRepo: userRepo,
		gateSvc:  gateSvc,
		noRedirect: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (a *testApp) close() {
	a.gateSvc.Close()
	a.server.Close()
	a.redis.Close()
}

// --- Helpers ---

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed map[string]interface{}
	_ = json.Unmarshal(raw, &parsed)
	return resp, parsed
}

func (a *testApp) register(t *testing.T, username, password string) uuid.UUID {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register failed: %v", body)
	data := body["data"].(map[string]interface{})
	id, err := uuid.Parse(data["user_id"].(string))
	require.NoError(t, err)
	return id
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login failed: %v", body)
	return body["data"].(map[string]interface{})["token"].(string)
}

func (a *testApp) walletStatus(t *testing.T, token string) map[string]interface{} {
	t.Helper()
	resp, body := a.do(t, http.MethodGet, "/wallet/status", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["data"].(map[string]interface{})
}

func (a *testApp) waitForPhase(t *testing.T, token, phase string) map[string]interface{} {
	t.Helper()
	var last map[string]interface{}
	require.Eventually(t, func() bool {
		last = a.walletStatus(t, token)
		return last["phase"] == phase
	}, 3*time.Second, 10*time.Millisecond, "gate never reached phase %s, last: %v", phase, last)
	return last
}

// newEligibleUser registers, logs in, funds and walks the gate to Ready.
func (a *testApp) newEligibleUser(t *testing.T, username string) string {
	t.Helper()
	a.register(t, username, "StrongPass123!")
	token := a.login(t, username, "StrongPass123!")

	resp, _ := a.do(t, http.MethodPost, "/faucet", "", map[string]string{"username": username})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPost, "/wallet/connect", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	a.waitForPhase(t, token, "wrong_network")

	resp, _ = a.do(t, http.MethodPost, "/wallet/switch-network", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	a.waitForPhase(t, token, "ready")

	return token
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice", "StrongPass123!")
	token := app.login(t, "alice", "StrongPass123!")
	assert.NotEmpty(t, token)
}

func TestIntegration_DuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice", "StrongPass123!")
	resp, body := app.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "alice",
		"password": "OtherPass456!",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "AUTH_002", body["error_code"])
}

func TestIntegration_GuardRedirectsAnonymousToLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/dashboard", nil)
	resp, err := app.noRedirect.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?return_to=%2Fdashboard", resp.Header.Get("Location"))
}

func TestIntegration_GuardReturnsJSONErrorWhenAsked(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "AUTH_005")
}

func TestIntegration_GuardRedirectsNonAdminToForbidden(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice", "StrongPass123!")
	token := app.login(t, "alice", "StrongPass123!")

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.noRedirect.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/forbidden", resp.Header.Get("Location"))
}

func TestIntegration_InvalidTokenTreatedAsAnonymous(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/dashboard", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	resp, err := app.noRedirect.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// A bad token degrades to anonymous: login redirect, not a 401 page.
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login")
}

func TestIntegration_GateFlow_ConnectSwitchStake(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice", "StrongPass123!")
	token := app.login(t, "alice", "StrongPass123!")

	// Fund the account
	resp, body := app.do(t, http.MethodPost, "/faucet", "", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(500), body["data"].(map[string]interface{})["balance"])

	// Initial status: disconnected, call to action is connect
	status := app.walletStatus(t, token)
	assert.Equal(t, "disconnected", status["phase"])
	assert.Equal(t, "connect", status["action"])

	// Staking without a wallet is refused
	resp, body = app.do(t, http.MethodPost, "/wallet/stake", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "WLT_004", body["error_code"])

	// Connect lands on the wrong network
	resp, _ = app.do(t, http.MethodPost, "/wallet/connect", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	status = app.waitForPhase(t, token, "wrong_network")
	assert.Equal(t, "wrong_network", status["ui_state"])
	assert.Equal(t, "switch_network", status["action"])
	assert.Equal(t, false, status["eligible"])

	// Staking while on the wrong network names the network problem
	resp, body = app.do(t, http.MethodPost, "/wallet/stake", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "WLT_003", body["error_code"])

	// Still not eligible to stake
	resp, _ = app.do(t, http.MethodPost, "/wallet/stake", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Switch to the required network; the staking prompt opens once
	resp, _ = app.do(t, http.MethodPost, "/wallet/switch-network", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	status = app.waitForPhase(t, token, "ready")
	assert.Equal(t, "ready", status["ui_state"])
	assert.Equal(t, "stake", status["action"])
	assert.Equal(t, true, status["eligible"])
	assert.Equal(t, true, status["prompt_open"])

	// Confirm the stake
	resp, body = app.do(t, http.MethodPost, "/wallet/stake", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	stake := body["data"].(map[string]interface{})
	assert.Equal(t, float64(100), stake["amount"])
	assert.Equal(t, "active", stake["status"])

	// Confirming closed the prompt
	status = app.walletStatus(t, token)
	assert.Equal(t, false, status["prompt_open"])

	// Balance was debited
	resp, body = app.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(400), body["data"].(map[string]interface{})["balance"])

	// A second stake is refused
	resp, body = app.do(t, http.MethodPost, "/wallet/stake", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "STK_003", body["error_code"])
}

func TestIntegration_ConnectRejectionIsDismissible(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := app.register(t, "alice", "StrongPass123!")
	token := app.login(t, "alice", "StrongPass123!")

	app.provider.FailNext(userID, apperror.ErrUserRejected())

	resp, _ := app.do(t, http.MethodPost, "/wallet/connect", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Rejection returns the gate to disconnected with a dismissible error
	status := app.waitForPhase(t, token, "disconnected")
	require.Eventually(t, func() bool {
		status = app.walletStatus(t, token)
		return status["last_error"] == "WLT_002"
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "connect", status["action"])

	// Dismiss clears the error without touching the session
	resp, body := app.do(t, http.MethodPost, "/wallet/dismiss-error", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "disconnected", data["phase"])
	assert.Nil(t, data["last_error"])

	// Retry succeeds
	resp, _ = app.do(t, http.MethodPost, "/wallet/connect", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	app.waitForPhase(t, token, "wrong_network")
}

func TestIntegration_SwitchFailureKeepsConnection(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := app.register(t, "alice", "StrongPass123!")
	token := app.login(t, "alice", "StrongPass123!")

	resp, _ := app.do(t, http.MethodPost, "/wallet/connect", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	app.waitForPhase(t, token, "wrong_network")

	app.provider.FailNext(userID, apperror.ErrUserRejected())
	resp, _ = app.do(t, http.MethodPost, "/wallet/switch-network", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Failure lands in switch_failed: still connected, still wrong network
	status := app.waitForPhase(t, token, "switch_failed")
	assert.Equal(t, true, status["connected"])
	assert.Equal(t, "WLT_002", status["last_error"])
	assert.Equal(t, "switch_network", status["action"])

	// Dismissing collapses back to wrong_network
	resp, body := app.do(t, http.MethodPost, "/wallet/dismiss-error", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "wrong_network", body["data"].(map[string]interface{})["phase"])

	// Retry succeeds
	resp, _ = app.do(t, http.MethodPost, "/wallet/switch-network", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	app.waitForPhase(t, token, "ready")
}

func TestIntegration_DisconnectResetsGate(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.newEligibleUser(t, "alice")

	resp, body := app.do(t, http.MethodPost, "/wallet/disconnect", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "disconnected", data["phase"])
	assert.Equal(t, false, data["prompt_open"])

	// The simulated wallet remembers its network, so reconnecting goes
	// straight to ready and the staking prompt is offered again.
	resp, _ = app.do(t, http.MethodPost, "/wallet/connect", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	status := app.waitForPhase(t, token, "ready")
	assert.Equal(t, true, status["prompt_open"])
}

func TestIntegration_ReportLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.newEligibleUser(t, "alice")

	// Submitting without a stake is refused
	reportBody := map[string]string{
		"title":    "Validator downtime on node-7",
		"body":     "Observed repeated missed attestations over a two hour window.",
		"category": "infrastructure",
	}
	resp, body := app.do(t, http.MethodPost, "/submit-report", token, reportBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "STK_002", body["error_code"])

	// Stake, then submit
	resp, _ = app.do(t, http.MethodPost, "/wallet/stake", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = app.do(t, http.MethodPost, "/submit-report", token, reportBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reportID := body["data"].(map[string]interface{})["id"].(string)

	// The author sees it in their list
	resp, body = app.do(t, http.MethodGet, "/reports", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), list["total"])

	// Another user cannot see it, and missing is indistinguishable from hidden
	app.register(t, "mallory", "StrongPass123!")
	otherToken := app.login(t, "mallory", "StrongPass123!")
	resp, body = app.do(t, http.MethodGet, "/reports/"+reportID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "RPT_001", body["error_code"])

	// Promote an admin and review the report
	app.register(t, "root", "StrongPass123!")
	app.userRepo.setRole("root", domain.RoleAdmin)
	adminToken := app.login(t, "root", "StrongPass123!")

	resp, body = app.do(t, http.MethodPost, "/admin/reports/"+reportID+"/review", adminToken, map[string]string{
		"verdict": "verified",
		"note":    "confirmed against chain data",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "review failed: %v", body)
	assert.Equal(t, "verified", body["data"].(map[string]interface{})["status"])

	// Reviews are final
	resp, body = app.do(t, http.MethodPost, "/admin/reports/"+reportID+"/review", adminToken, map[string]string{
		"verdict": "rejected",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "RPT_002", body["error_code"])

	// Admin overview reflects the verdict
	resp, body = app.do(t, http.MethodGet, "/admin", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overview := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), overview["total_reports"])
	assert.Equal(t, float64(1), overview["verified"])
}

func TestIntegration_UnstakeRefundsAndRevokesSubmission(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.newEligibleUser(t, "alice")

	resp, _ := app.do(t, http.MethodPost, "/wallet/stake", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := app.do(t, http.MethodPost, "/wallet/unstake", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "released", body["data"].(map[string]interface{})["status"])

	// Refund restored the full balance
	resp, body = app.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(500), body["data"].(map[string]interface{})["balance"])

	// Submission is gated again
	resp, body = app.do(t, http.MethodPost, "/submit-report", token, map[string]string{
		"title":    "Validator downtime on node-7",
		"body":     "Observed repeated missed attestations over a two hour window.",
		"category": "infrastructure",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "STK_002", body["error_code"])

	// A second unstake finds nothing to release
	resp, body = app.do(t, http.MethodPost, "/wallet/unstake", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "STK_004", body["error_code"])
}

func TestIntegration_FaucetUnknownAccount(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.do(t, http.MethodPost, "/faucet", "", map[string]string{"username": "nobody"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_DashboardStats(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.newEligibleUser(t, "alice")

	resp, _ := app.do(t, http.MethodPost, "/wallet/stake", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = app.do(t, http.MethodPost, "/submit-report", token, map[string]string{
		"title":    "Validator downtime on node-7",
		"body":     "Observed repeated missed attestations over a two hour window.",
		"category": "infrastructure",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := app.do(t, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(400), data["balance"])
	assert.Equal(t, float64(1), data["total_reports"])
	assert.Equal(t, float64(1), data["submitted"])
	assert.Equal(t, "active", data["stake"].(map[string]interface{})["status"])
}
