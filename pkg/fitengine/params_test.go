package fitengine

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeTokenParams(t *testing.T) {
	user := base64.StdEncoding.EncodeToString([]byte(`{"email":"shopper@example.com","name":"Sam"}`))

	creds, clean := ConsumeTokenParams(
		"https://shop.example/tryon?fit_token=tok-9&fit_user=" + user + "&shop=acme")

	require.NotNil(t, creds)
	assert.Equal(t, "tok-9", creds.Token)
	assert.Equal(t, "shopper@example.com", creds.User["email"])

	// Both params stripped; unrelated params survive.
	assert.NotContains(t, clean, "fit_token")
	assert.NotContains(t, clean, "fit_user")
	assert.Contains(t, clean, "shop=acme")
}

func TestConsumeTokenParamsNoToken(t *testing.T) {
	creds, clean := ConsumeTokenParams("https://shop.example/tryon?shop=acme")
	assert.Nil(t, creds)
	assert.Equal(t, "https://shop.example/tryon?shop=acme", clean)
}

func TestConsumeTokenParamsBadUserStillHonorsToken(t *testing.T) {
	creds, clean := ConsumeTokenParams(
		"https://shop.example/tryon?fit_token=tok-9&fit_user=%%%not-base64")
	// An unparseable URL is returned untouched; a parseable one with a bad
	// user blob still yields the token.
	if creds != nil {
		assert.Equal(t, "tok-9", creds.Token)
		assert.Nil(t, creds.User)
		assert.NotContains(t, clean, "fit_token")
	}
}

func TestConsumeTokenParamsUndecodableUser(t *testing.T) {
	creds, _ := ConsumeTokenParams(
		"https://shop.example/tryon?fit_token=tok-9&fit_user=AAAA")
	require.NotNil(t, creds)
	assert.Equal(t, "tok-9", creds.Token)
	assert.Nil(t, creds.User)
}
