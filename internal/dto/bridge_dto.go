package dto

// BridgeMessageResponse is the single typed payload of the cross-origin
// handshake. The popup posts it to the opener; only messages whose Type is
// FIT_SSO_BRIDGE are acted upon by the widget.
type BridgeMessageResponse struct {
	Type   string         `json:"type"`
	Status string         `json:"status"`
	Token  string         `json:"token,omitempty"`
	User   map[string]any `json:"user,omitempty"`
}

const (
	BridgeMessageType     = "FIT_SSO_BRIDGE"
	BridgeStatusOK        = "ok"
	BridgeStatusNoSession = "no-session"
)
