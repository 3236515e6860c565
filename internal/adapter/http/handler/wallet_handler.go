package handler

import (
	"time"

	"staked-report-gateway/internal/adapter/http/dto"
	"staked-report-gateway/internal/adapter/http/middleware"
	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/pkg/apperror"
	"staked-report-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles the wallet gate and staking endpoints.
type WalletHandler struct {
	gateSvc         ports.GateService
	stakingSvc      ports.StakingService
	requiredNetwork domain.NetworkID
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(gateSvc ports.GateService, stakingSvc ports.StakingService, requiredNetwork domain.NetworkID) *WalletHandler {
	return &WalletHandler{gateSvc: gateSvc, stakingSvc: stakingSvc, requiredNetwork: requiredNetwork}
}

// Status handles GET /wallet/status.
func (h *WalletHandler) Status(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	snap, err := h.gateSvc.Snapshot(c.Request.Context(), auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, h.toWalletStatus(snap))
}

// Connect handles POST /wallet/connect. The provider call settles in the
// background; the client polls /wallet/status for the outcome.
func (h *WalletHandler) Connect(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	snap, err := h.gateSvc.Connect(c.Request.Context(), auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, h.toWalletStatus(snap))
}

// SwitchNetwork handles POST /wallet/switch-network.
func (h *WalletHandler) SwitchNetwork(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	snap, err := h.gateSvc.SwitchNetwork(c.Request.Context(), auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, h.toWalletStatus(snap))
}

// Disconnect handles POST /wallet/disconnect.
func (h *WalletHandler) Disconnect(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	snap, err := h.gateSvc.HandleDisconnect(c.Request.Context(), auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, h.toWalletStatus(snap))
}

// DismissError handles POST /wallet/dismiss-error.
func (h *WalletHandler) DismissError(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	snap, err := h.gateSvc.DismissError(c.Request.Context(), auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, h.toWalletStatus(snap))
}

// AcknowledgePrompt handles POST /wallet/acknowledge-prompt.
func (h *WalletHandler) AcknowledgePrompt(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	snap, err := h.gateSvc.AcknowledgePrompt(c.Request.Context(), auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, h.toWalletStatus(snap))
}

// Stake handles POST /wallet/stake.
func (h *WalletHandler) Stake(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	stake, err := h.stakingSvc.ConfirmStake(c.Request.Context(), auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toStakeResponse(stake))
}

// Unstake handles POST /wallet/unstake.
func (h *WalletHandler) Unstake(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	stake, err := h.stakingSvc.Unstake(c.Request.Context(), auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toStakeResponse(stake))
}

// Faucet handles POST /faucet — credits test tokens to the named account.
func (h *WalletHandler) Faucet(c *gin.Context) {
	var req dto.FaucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	balance, err := h.stakingSvc.Faucet(c.Request.Context(), req.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FaucetResponse{Balance: balance})
}

func (h *WalletHandler) toWalletStatus(snap *domain.GateSnapshot) dto.WalletStatusResponse {
	ui := snap.UIState(h.requiredNetwork)

	var networkID *string
	if snap.Session.NetworkID != nil {
		s := string(*snap.Session.NetworkID)
		networkID = &s
	}

	return dto.WalletStatusResponse{
		Phase:      string(snap.Phase),
		UIState:    string(ui),
		Action:     string(ui.Action()),
		Connected:  snap.Session.Connected,
		Address:    snap.Session.Address,
		NetworkID:  networkID,
		Required:   string(h.requiredNetwork),
		PromptOpen: snap.PromptOpen,
		LastError:  snap.LastError,
		Eligible:   snap.Phase == domain.PhaseReady && snap.Session.CanAct(h.requiredNetwork),
	}
}

func toStakeResponse(s *domain.Stake) dto.StakeResponse {
	resp := dto.StakeResponse{
		ID:        s.ID.String(),
		Amount:    s.Amount,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
	if s.ReleasedAt != nil {
		released := s.ReleasedAt.Format(time.RFC3339)
		resp.ReleasedAt = &released
	}
	return resp
}
