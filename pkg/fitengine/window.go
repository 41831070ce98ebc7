package fitengine

// PopupWindow is one opened popup against the authentication origin.
// Messages carries every raw payload posted back on the window, bridge
// traffic and unrelated noise alike; the Bridge filters. Close tears the
// window down and is safe to call more than once.
type PopupWindow interface {
	Messages() <-chan []byte
	Close()
}

// Opener opens popup windows. The embedding surface (browser shell, webview,
// test harness) provides the implementation.
type Opener interface {
	Open(url string) (PopupWindow, error)
}

// BridgeMessageType is the discriminant carried by every bridge payload.
// Messages without it are someone else's and are silently ignored.
const BridgeMessageType = "FIT_SSO_BRIDGE"

const bridgeStatusOK = "ok"

// BridgeMessage is the single typed message of the popup handshake.
type BridgeMessage struct {
	Type   string         `json:"type"`
	Status string         `json:"status"`
	Token  string         `json:"token,omitempty"`
	User   map[string]any `json:"user,omitempty"`
}
