package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"tryon-widget-be/internal/pkg/logger"
)

// shopperNamespace derives a stable shopper id from the provider identity.
// No shopper record is ever stored here; identity stays with the provider.
var shopperNamespace = uuid.MustParse("8f2d9c50-40f6-4f5e-9a1d-3b7c54a90e11")

// IdentitySession is what the identity cookie carries: just enough to mint
// bridge tokens and greet the shopper.
type IdentitySession struct {
	ShopperId uuid.UUID
	Email     string
	Name      string
	Picture   string
}

type IAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider string, code string) (string, *IdentitySession, error)
	DecodeIdentityCookie(raw string) (*IdentitySession, error)
}

type authService struct {
	googleConf *oauth2.Config
	jwtSecret  []byte
	cookieTTL  time.Duration
	logger     logger.ILogger
}

func NewAuthService(jwtSecret string, log logger.ILogger) IAuthService {
	conf := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &authService{
		googleConf: conf,
		jwtSecret:  []byte(jwtSecret),
		cookieTTL:  24 * time.Hour,
		logger:     log,
	}
}

func (s *authService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		return "", errors.New("unsupported provider")
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	return s.googleConf.AuthCodeURL(state), nil
}

// HandleCallback exchanges the code, derives the shopper identity and signs
// the identity cookie value. Nothing is written to storage.
func (s *authService) HandleCallback(ctx context.Context, provider string, code string) (string, *IdentitySession, error) {
	if provider != "google" {
		return "", nil, errors.New("unsupported provider")
	}

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("code exchange failed: %w", err)
	}

	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		return "", nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed reading user info: %w", err)
	}

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(content, &googleUser); err != nil {
		return "", nil, err
	}
	if googleUser.ID == "" {
		return "", nil, errors.New("provider returned no identity")
	}

	session := &IdentitySession{
		ShopperId: uuid.NewSHA1(shopperNamespace, []byte("google:"+googleUser.ID)),
		Email:     googleUser.Email,
		Name:      googleUser.Name,
		Picture:   googleUser.Picture,
	}

	claims := jwt.MapClaims{
		"sub":     session.ShopperId.String(),
		"email":   session.Email,
		"name":    session.Name,
		"picture": session.Picture,
		"exp":     time.Now().Add(s.cookieTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("AuthService", "Shopper signed in",
		map[string]interface{}{"shopper_id": session.ShopperId})

	return signed, session, nil
}

func (s *authService) DecodeIdentityCookie(raw string) (*IdentitySession, error) {
	if raw == "" {
		return nil, errors.New("no identity cookie")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid identity cookie")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid identity cookie")
	}
	sub, _ := claims["sub"].(string)
	shopperId, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("invalid identity cookie")
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	return &IdentitySession{
		ShopperId: shopperId,
		Email:     email,
		Name:      name,
		Picture:   picture,
	}, nil
}
