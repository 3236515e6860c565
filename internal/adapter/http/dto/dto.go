package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// FaucetRequest is the request body for the test-token faucet.
type FaucetRequest struct {
	Username string `json:"username" binding:"required,safe_id"`
}

// FaucetResponse is the response body after a faucet credit.
type FaucetResponse struct {
	Balance int64 `json:"balance"`
}

// SubmitReportRequest is the request body for report submission.
type SubmitReportRequest struct {
	Title    string `json:"title" binding:"required,min=3,max=200"`
	Body     string `json:"body" binding:"required,min=10,max=10000"`
	Category string `json:"category" binding:"required,safe_id,max=50"`
}

// ReviewReportRequest is the request body for an admin review verdict.
type ReviewReportRequest struct {
	Verdict string  `json:"verdict" binding:"required,oneof=verified rejected"`
	Note    *string `json:"note,omitempty" binding:"omitempty,max=2000"`
}

// ReportResponse is the response body for a single report.
type ReportResponse struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Category   string  `json:"category"`
	Status     string  `json:"status"`
	ReviewNote *string `json:"review_note,omitempty"`
	ReviewedBy *string `json:"reviewed_by,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// ReportListResponse wraps a paginated report list.
type ReportListResponse struct {
	Items      []ReportResponse `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// WalletStatusResponse is the response body for the gate snapshot. UIState
// and Action are derived server-side so every client renders the same
// three-way classification.
type WalletStatusResponse struct {
	Phase      string  `json:"phase"`
	UIState    string  `json:"ui_state"`
	Action     string  `json:"action"`
	Connected  bool    `json:"connected"`
	Address    string  `json:"address,omitempty"`
	NetworkID  *string `json:"network_id,omitempty"`
	Required   string  `json:"required_network"`
	PromptOpen bool    `json:"prompt_open"`
	LastError  string  `json:"last_error,omitempty"`
	Eligible   bool    `json:"eligible"`
}

// StakeResponse is the response body for stake operations.
type StakeResponse struct {
	ID         string  `json:"id"`
	Amount     int64   `json:"amount"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
	ReleasedAt *string `json:"released_at,omitempty"`
}

// ProfileResponse is the response body for the profile page.
type ProfileResponse struct {
	UserID    string         `json:"user_id"`
	Username  string         `json:"username"`
	Role      string         `json:"role"`
	Balance   int64          `json:"balance"`
	Status    string         `json:"status"`
	CreatedAt string         `json:"created_at"`
	Stake     *StakeResponse `json:"stake,omitempty"`
}

// DashboardResponse is the response body for dashboard statistics.
type DashboardResponse struct {
	Balance      int64          `json:"balance"`
	Stake        *StakeResponse `json:"stake,omitempty"`
	TotalReports int64          `json:"total_reports"`
	Submitted    int64          `json:"submitted"`
	Verified     int64          `json:"verified"`
	Rejected     int64          `json:"rejected"`
}
