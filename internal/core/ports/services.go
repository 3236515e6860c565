package ports

import (
	"context"
	"time"

	"staked-report-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// WalletProvider is the external wallet collaborator. Both calls are
// fallible and may block up to the caller's context deadline; the gate
// imposes its own timeout and converts failures to local state.
type WalletProvider interface {
	// RequestConnection asks the provider to connect the user's wallet and
	// returns the resulting session (whatever network the wallet is on).
	RequestConnection(ctx context.Context, userID uuid.UUID) (*domain.WalletSession, error)
	// RequestNetworkSwitch asks the provider to move the connected wallet to
	// the target network.
	RequestNetworkSwitch(ctx context.Context, userID uuid.UUID, target domain.NetworkID) error
}

// WalletSessionStore persists wallet session snapshots between requests.
type WalletSessionStore interface {
	Save(ctx context.Context, userID uuid.UUID, session domain.WalletSession, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (*domain.WalletSession, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// AuthSession converts claims into the auth session snapshot consumed by the
// route guard.
func (c *TokenClaims) AuthSession() domain.AuthSession {
	return domain.AuthSession{Authenticated: true, UserID: c.UserID, Role: c.Role}
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// --- Service Ports (Business Logic) ---

// GateService drives the per-user connection/eligibility gate.
// Connect and SwitchNetwork start asynchronous provider calls and return the
// pending snapshot; the settled state is observed via Snapshot.
type GateService interface {
	Connect(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error)
	SwitchNetwork(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error)
	// HandleDisconnect processes a wallet-side disconnect event: any state
	// collapses to Disconnected and an open staking prompt is dismissed.
	HandleDisconnect(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error)
	Snapshot(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error)
	// AcknowledgePrompt closes the staking confirmation without re-arming it.
	AcknowledgePrompt(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error)
	// DismissError clears the dismissible error surfaced by a failed call.
	DismissError(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error)
	// RequireReady returns nil when the gated action is permitted and the
	// precise refusal otherwise: not connected, wrong network, or a provider
	// call still pending.
	RequireReady(ctx context.Context, userID uuid.UUID) error
	// Close tears the service down; outstanding provider callbacks become
	// no-ops instead of mutating state after shutdown.
	Close()
}

// StakingService defines staking business logic.
type StakingService interface {
	// ConfirmStake performs the gated action: requires a Ready gate, debits
	// the stake amount and records an active stake.
	ConfirmStake(ctx context.Context, userID uuid.UUID) (*domain.Stake, error)
	Unstake(ctx context.Context, userID uuid.UUID) (*domain.Stake, error)
	ActiveStake(ctx context.Context, userID uuid.UUID) (*domain.Stake, error)
	// Faucet credits test tokens to the named account.
	Faucet(ctx context.Context, username string) (int64, error) // new balance
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Username string
	Password string
	Role     domain.Role // defaults to RoleUser when empty
}

// ReportService defines report submission and review business logic.
type ReportService interface {
	Submit(ctx context.Context, req SubmitReportRequest) (*domain.Report, error)
	Get(ctx context.Context, auth domain.AuthSession, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, params ReportListParams) ([]domain.Report, int64, error)
	Review(ctx context.Context, req ReviewReportRequest) (*domain.Report, error)
	Stats(ctx context.Context, userID *uuid.UUID) (*ReportStats, error)
}

// SubmitReportRequest holds validated input for report submission.
type SubmitReportRequest struct {
	UserID   uuid.UUID
	Title    string
	Body     string
	Category string
}

// ReviewReportRequest holds validated input for an admin review.
type ReviewReportRequest struct {
	ReportID   uuid.UUID
	ReviewerID uuid.UUID
	Verdict    domain.ReportStatus // verified or rejected
	Note       *string
}

// ActivityService records user actions (fire-and-forget).
type ActivityService interface {
	Log(ctx context.Context, entry *domain.ActivityLog)
}
