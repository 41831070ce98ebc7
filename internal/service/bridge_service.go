package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"tryon-widget-be/internal/dto"
	"tryon-widget-be/internal/pkg/logger"
)

var (
	ErrGrantConsumed = errors.New("grant already consumed or expired")
	ErrInvalidToken  = errors.New("invalid bridge token")
)

// GrantStore holds single-use bridge grants. A grant exists from token mint
// until first verification or TTL expiry, whichever comes first.
type GrantStore interface {
	Put(ctx context.Context, grantId string, shopperId string, ttl time.Duration) error
	// Consume atomically reads and deletes the grant. Second call fails.
	Consume(ctx context.Context, grantId string) (string, error)
}

// IBridgeService is the identity-origin half of the widget sign-on handshake.
type IBridgeService interface {
	// IssueBridgeMessage mints a short-lived widget token for the signed-in
	// shopper and wraps it in the typed handshake payload. A nil shopper
	// yields the no-session payload.
	IssueBridgeMessage(ctx context.Context, shopperId *uuid.UUID, user map[string]any) (*dto.BridgeMessageResponse, error)
	// VerifyToken validates a widget token and burns its grant. Only the
	// first verification of a given token succeeds.
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
}

type bridgeService struct {
	grants    GrantStore
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    logger.ILogger
}

func NewBridgeService(grants GrantStore, jwtSecret string, tokenTTL time.Duration, log logger.ILogger) IBridgeService {
	return &bridgeService{
		grants:    grants,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    log,
	}
}

func (s *bridgeService) IssueBridgeMessage(ctx context.Context, shopperId *uuid.UUID, user map[string]any) (*dto.BridgeMessageResponse, error) {
	if shopperId == nil {
		return &dto.BridgeMessageResponse{
			Type:   dto.BridgeMessageType,
			Status: dto.BridgeStatusNoSession,
		}, nil
	}

	grantId := uuid.New().String()
	if err := s.grants.Put(ctx, grantId, shopperId.String(), s.tokenTTL); err != nil {
		return nil, fmt.Errorf("store bridge grant: %w", err)
	}

	claims := jwt.MapClaims{
		"sub": shopperId.String(),
		"gid": grantId,
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign bridge token: %w", err)
	}

	s.logger.Info("BridgeService", "Widget token minted",
		map[string]interface{}{"shopper_id": shopperId, "grant_id": grantId})

	return &dto.BridgeMessageResponse{
		Type:   dto.BridgeMessageType,
		Status: dto.BridgeStatusOK,
		Token:  signed,
		User:   user,
	}, nil
}

func (s *bridgeService) VerifyToken(ctx context.Context, tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	gid, _ := claims["gid"].(string)
	if sub == "" || gid == "" {
		return uuid.Nil, ErrInvalidToken
	}

	storedShopper, err := s.grants.Consume(ctx, gid)
	if err != nil {
		return uuid.Nil, ErrGrantConsumed
	}
	if storedShopper != sub {
		return uuid.Nil, ErrInvalidToken
	}

	shopperId, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return shopperId, nil
}

// --- grant store implementations ---

const grantKeyPrefix = "bridge_grant:"

type redisGrantStore struct {
	rdb *redis.Client
}

func NewRedisGrantStore(rdb *redis.Client) GrantStore {
	return &redisGrantStore{rdb: rdb}
}

func (s *redisGrantStore) Put(ctx context.Context, grantId, shopperId string, ttl time.Duration) error {
	return s.rdb.Set(ctx, grantKeyPrefix+grantId, shopperId, ttl).Err()
}

func (s *redisGrantStore) Consume(ctx context.Context, grantId string) (string, error) {
	// GETDEL makes read-and-burn a single round trip, no race between
	// concurrent verifications.
	val, err := s.rdb.GetDel(ctx, grantKeyPrefix+grantId).Result()
	if err != nil {
		return "", ErrGrantConsumed
	}
	return val, nil
}

// memoryGrantStore backs single-instance deployments and tests.
type memoryGrantStore struct {
	c *cache.Cache
}

func NewMemoryGrantStore() GrantStore {
	return &memoryGrantStore{c: cache.New(5*time.Minute, 10*time.Minute)}
}

func (s *memoryGrantStore) Put(_ context.Context, grantId, shopperId string, ttl time.Duration) error {
	s.c.Set(grantKeyPrefix+grantId, shopperId, ttl)
	return nil
}

func (s *memoryGrantStore) Consume(_ context.Context, grantId string) (string, error) {
	key := grantKeyPrefix + grantId
	val, found := s.c.Get(key)
	if !found {
		return "", ErrGrantConsumed
	}
	s.c.Delete(key)
	return val.(string), nil
}
