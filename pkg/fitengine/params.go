package fitengine

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
)

// WidgetCredentials is the short-lived token and minimal user object a host
// page may hand the widget through navigation query parameters, as a fallback
// for contexts where the bridge cannot run.
type WidgetCredentials struct {
	Token string
	User  map[string]any
}

const (
	tokenParam = "fit_token"
	userParam  = "fit_user"
)

// ConsumeTokenParams reads widget credentials out of a navigation URL and
// returns the URL with both parameters stripped. The caller must apply the
// cleaned URL with replace (not push) semantics so a refresh cannot re-ingest
// the token.
//
// The user parameter is base64-encoded JSON; if it does not decode the token
// is still honored and the user is simply absent.
func ConsumeTokenParams(rawURL string) (*WidgetCredentials, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, rawURL
	}
	q := u.Query()
	token := q.Get(tokenParam)
	if token == "" {
		return nil, rawURL
	}

	creds := &WidgetCredentials{Token: token}
	if encoded := q.Get(userParam); encoded != "" {
		if data, err := base64.StdEncoding.DecodeString(encoded); err == nil {
			var user map[string]any
			if json.Unmarshal(data, &user) == nil {
				creds.User = user
			}
		}
	}

	q.Del(tokenParam)
	q.Del(userParam)
	u.RawQuery = q.Encode()
	return creds, u.String()
}
