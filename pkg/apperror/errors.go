package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet Gate (WLT) ----

// ErrProviderUnavailable: no compatible wallet provider is reachable.
func ErrProviderUnavailable() *AppError {
	return New("WLT_001", "No compatible wallet provider detected", http.StatusServiceUnavailable)
}

// ErrUserRejected: the user declined the connection or network switch in the
// provider UI. The gate state is left unchanged from before the call.
func ErrUserRejected() *AppError {
	return New("WLT_002", "Request was rejected in the wallet", http.StatusConflict)
}

// ErrNetworkMismatch: wallet is connected but on the wrong network.
func ErrNetworkMismatch(required string) *AppError {
	return New("WLT_003", fmt.Sprintf("Wallet must be on network %q", required), http.StatusConflict)
}

func ErrNotConnected() *AppError {
	return New("WLT_004", "No wallet connected", http.StatusConflict)
}

// ErrProviderTimeout: the connect/switch call did not settle within the
// configured deadline.
func ErrProviderTimeout() *AppError {
	return New("WLT_005", "Wallet provider call timed out", http.StatusGatewayTimeout)
}

func ErrGateNotReady() *AppError {
	return New("WLT_006", "Wallet connection and correct network are required", http.StatusConflict)
}

// ---- Authentication & Route Guard (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrAccountSuspended() *AppError {
	return New("AUTH_004", "Account is suspended", http.StatusForbidden)
}

// ErrUnauthenticated is the API-shaped form of a route guard login redirect.
func ErrUnauthenticated() *AppError {
	return New("AUTH_005", "Authentication required", http.StatusUnauthorized)
}

// ErrForbidden is the API-shaped form of a route guard admin denial.
func ErrForbidden() *AppError {
	return New("AUTH_006", "Admin access required", http.StatusForbidden)
}

// ---- Staking (STK) ----

func ErrInsufficientBalance() *AppError {
	return New("STK_001", "Insufficient token balance to stake", http.StatusPaymentRequired)
}

func ErrStakeRequired() *AppError {
	return New("STK_002", "An active stake is required before submitting reports", http.StatusForbidden)
}

func ErrAlreadyStaked() *AppError {
	return New("STK_003", "An active stake already exists", http.StatusConflict)
}

func ErrNoActiveStake() *AppError {
	return New("STK_004", "No active stake to release", http.StatusNotFound)
}

// ---- Reports (RPT) ----

func ErrReportNotFound() *AppError {
	return New("RPT_001", "Report not found", http.StatusNotFound)
}

func ErrAlreadyReviewed() *AppError {
	return New("RPT_002", "Report has already been reviewed", http.StatusConflict)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a generic request validation error.
func Validation(message string) *AppError {
	return New("SYS_002", message, http.StatusBadRequest)
}
