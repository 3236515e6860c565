package domain

// NetworkID identifies a blockchain network a wallet can be attached to.
type NetworkID string

// WalletSession is a read-only snapshot of a user's external wallet state.
// It is owned and mutated exclusively by the wallet provider; the gate only
// reads and derives from it.
type WalletSession struct {
	Connected bool       `json:"connected"`
	Address   string     `json:"address,omitempty"`
	NetworkID *NetworkID `json:"network_id,omitempty"`
}

// OnNetwork reports whether the session is attached to the required network.
// Meaningless (always false) when the wallet is not connected.
func (s WalletSession) OnNetwork(required NetworkID) bool {
	if !s.Connected || s.NetworkID == nil {
		return false
	}
	return *s.NetworkID == required
}

// CanAct is the derived eligibility condition for gated actions: connected
// and on the required network. Recomputed on every read, never stored.
func (s WalletSession) CanAct(required NetworkID) bool {
	return s.Connected && s.OnNetwork(required)
}
