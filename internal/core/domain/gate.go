package domain

// GatePhase is the fine-grained state of the connection/eligibility gate,
// including pending and failure sub-states.
type GatePhase string

const (
	PhaseDisconnected GatePhase = "disconnected"
	PhaseConnecting   GatePhase = "connecting"
	PhaseWrongNetwork GatePhase = "wrong_network"
	PhaseSwitching    GatePhase = "switching"
	PhaseSwitchFailed GatePhase = "switch_failed"
	PhaseReady        GatePhase = "ready"
)

// Pending reports whether a provider call is outstanding in this phase.
func (p GatePhase) Pending() bool {
	return p == PhaseConnecting || p == PhaseSwitching
}

// GateUIState is the coarse three-way classification shown to the user.
// Exactly one applies to any wallet session.
type GateUIState string

const (
	UIDisconnected GateUIState = "disconnected"
	UIWrongNetwork GateUIState = "wrong_network"
	UIReady        GateUIState = "ready"
)

// GateAction is the single call-to-action exposed in each UI state.
type GateAction string

const (
	ActionConnect       GateAction = "connect"
	ActionSwitchNetwork GateAction = "switch_network"
	ActionStake         GateAction = "stake"
)

// ClassifyWalletSession maps a wallet session onto the three mutually
// exclusive gate UI states. The branching is exhaustive over the two
// booleans, so exactly one state is ever active.
func ClassifyWalletSession(s WalletSession, required NetworkID) GateUIState {
	switch {
	case !s.Connected:
		return UIDisconnected
	case !s.OnNetwork(required):
		return UIWrongNetwork
	default:
		return UIReady
	}
}

// Action returns the call-to-action for a UI state.
func (u GateUIState) Action() GateAction {
	switch u {
	case UIWrongNetwork:
		return ActionSwitchNetwork
	case UIReady:
		return ActionStake
	default:
		return ActionConnect
	}
}

// GateSnapshot is a point-in-time view of one user's gate.
type GateSnapshot struct {
	Phase      GatePhase     `json:"phase"`
	Session    WalletSession `json:"session"`
	PromptOpen bool          `json:"prompt_open"`          // staking confirmation surfaced
	LastError  string        `json:"last_error,omitempty"` // dismissible error code, empty when none
}

// UIState derives the coarse classification from the underlying session.
func (g GateSnapshot) UIState(required NetworkID) GateUIState {
	return ClassifyWalletSession(g.Session, required)
}
