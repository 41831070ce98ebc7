package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon-widget-be/internal/dto"
)

const testSecret = "bridge-test-secret"

func newTestBridge(ttl time.Duration) IBridgeService {
	return NewBridgeService(NewMemoryGrantStore(), testSecret, ttl, nopLogger{})
}

func TestBridgeNoSession(t *testing.T) {
	svc := newTestBridge(5 * time.Minute)

	msg, err := svc.IssueBridgeMessage(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, dto.BridgeMessageType, msg.Type)
	assert.Equal(t, dto.BridgeStatusNoSession, msg.Status)
	assert.Empty(t, msg.Token)
}

func TestBridgeTokenRoundTrip(t *testing.T) {
	svc := newTestBridge(5 * time.Minute)
	shopper := uuid.New()

	msg, err := svc.IssueBridgeMessage(context.Background(), &shopper, map[string]any{"name": "Alex"})
	require.NoError(t, err)
	assert.Equal(t, dto.BridgeMessageType, msg.Type)
	assert.Equal(t, dto.BridgeStatusOK, msg.Status)
	require.NotEmpty(t, msg.Token)
	assert.Equal(t, "Alex", msg.User["name"])

	got, err := svc.VerifyToken(context.Background(), msg.Token)
	require.NoError(t, err)
	assert.Equal(t, shopper, got)
}

func TestBridgeGrantIsSingleUse(t *testing.T) {
	svc := newTestBridge(5 * time.Minute)
	shopper := uuid.New()

	msg, err := svc.IssueBridgeMessage(context.Background(), &shopper, nil)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), msg.Token)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), msg.Token)
	assert.ErrorIs(t, err, ErrGrantConsumed)
}

func TestBridgeExpiredTokenRejected(t *testing.T) {
	// A negative TTL stamps the token already expired.
	svc := newTestBridge(-time.Minute)
	shopper := uuid.New()

	msg, err := svc.IssueBridgeMessage(context.Background(), &shopper, nil)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), msg.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBridgeForeignTokenRejected(t *testing.T) {
	issuer := NewBridgeService(NewMemoryGrantStore(), "some-other-secret", 5*time.Minute, nopLogger{})
	verifier := newTestBridge(5 * time.Minute)
	shopper := uuid.New()

	msg, err := issuer.IssueBridgeMessage(context.Background(), &shopper, nil)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(context.Background(), msg.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.VerifyToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
