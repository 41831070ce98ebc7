package fitengine

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

const defaultBridgeTimeout = 6500 * time.Millisecond

// BridgeResult is what a resolved handshake yields. Ok is true only for a
// well-formed ok message carrying a token; every other terminal path
// (no-session, timeout, blocked popup) resolves false without error.
type BridgeResult struct {
	Ok    bool
	Token string
	User  map[string]any
}

// Bridge obtains a short-lived session token from the parent authentication
// origin when the embedding page cannot read its cookies (third-party
// context). One popup, one typed message, one resolution.
//
// The bridge is only ever run on an explicit caller request; opening popups
// opportunistically gets them blocked and annoys people.
type Bridge struct {
	opener    Opener
	bridgeURL string
	// ownOrigin is passed to the popup as the return_to parameter so it knows
	// where to post the message.
	ownOrigin string
	timeout   time.Duration
}

func NewBridge(opener Opener, bridgeURL, ownOrigin string) *Bridge {
	return &Bridge{
		opener:    opener,
		bridgeURL: bridgeURL,
		ownOrigin: ownOrigin,
		timeout:   defaultBridgeTimeout,
	}
}

// WithTimeout overrides the 6.5s handshake deadline (tests).
func (b *Bridge) WithTimeout(d time.Duration) *Bridge {
	b.timeout = d
	return b
}

// RequestSession runs one handshake. The listener is detached and the popup
// closed on every path, including timeout and cancellation.
// Messages lacking the FIT_SSO_BRIDGE discriminant are ignored, and anything
// arriving after the first bridge message resolves nothing: the exchange is
// one-shot.
func (b *Bridge) RequestSession(ctx context.Context) (BridgeResult, error) {
	popup, err := b.opener.Open(b.popupURL())
	if err != nil {
		// A blocked popup is a "no session" answer, not a failure.
		return BridgeResult{}, nil
	}
	defer popup.Close()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return BridgeResult{}, ctx.Err()
		case <-timer.C:
			return BridgeResult{}, nil
		case raw, open := <-popup.Messages():
			if !open {
				// Window went away (user closed it) without answering.
				return BridgeResult{}, nil
			}
			var msg BridgeMessage
			if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != BridgeMessageType {
				continue
			}
			if msg.Status == bridgeStatusOK && msg.Token != "" {
				return BridgeResult{Ok: true, Token: msg.Token, User: msg.User}, nil
			}
			return BridgeResult{}, nil
		}
	}
}

func (b *Bridge) popupURL() string {
	u, err := url.Parse(b.bridgeURL)
	if err != nil {
		return b.bridgeURL
	}
	q := u.Query()
	q.Set("return_to", b.ownOrigin)
	u.RawQuery = q.Encode()
	return u.String()
}
