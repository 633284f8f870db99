package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/liontv_shop/pkg/authclient"
	"github.com/Skotchmaster/liontv_shop/pkg/logging"
	"github.com/Skotchmaster/liontv_shop/pkg/tokens"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/domain"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/models"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/repo"
)

const SessionTTL = 365 * 24 * time.Hour

type UserStore interface {
	UpsertUser(ctx context.Context, in repo.UserUpsert) error
	GetUserByOpenID(ctx context.Context, openID string) (*models.User, error)
}

type OAuthProvider interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*authclient.TokenResponse, error)
	GetUserInfo(ctx context.Context, accessToken string) (*authclient.UserInfo, error)
}

type AuthService struct {
	Users     UserStore
	OAuth     OAuthProvider
	JWTSecret []byte
	AppID     string
	Now       func() time.Time
}

type LoginResult struct {
	SessionToken string
	Expires      time.Time
	RedirectTo   string
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Me resolves the session identity to a stored user. A missing row or an
// unreachable store yields anonymous (nil) rather than an error.
func (s *AuthService) Me(ctx context.Context, openID string) (*models.User, error) {
	if openID == "" {
		return nil, nil
	}
	l := logging.FromContext(ctx).With("svc", "auth.me")

	user, err := s.Users.GetUserByOpenID(ctx, openID)
	if err != nil {
		l.Warn("me_error", "reason", "user lookup failed", "error", err)
		return nil, nil
	}
	if user == nil {
		return nil, nil
	}

	signedIn := s.now()
	if err := s.Users.UpsertUser(ctx, repo.UserUpsert{OpenID: openID, LastSignedIn: &signedIn}); err != nil {
		l.Warn("me_error", "reason", "cannot touch lastSignedIn", "error", err)
	} else {
		user.LastSignedIn = signedIn
	}
	return user, nil
}

// LoginCallback completes the OAuth code flow. state carries the base64
// encoded redirect URI the provider was given.
func (s *AuthService) LoginCallback(ctx context.Context, code, state string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login_callback")

	if code == "" || state == "" {
		return nil, fmt.Errorf("%w: code and state are required", domain.ErrValidation)
	}
	redirectURI, err := decodeState(state)
	if err != nil {
		return nil, err
	}

	tok, err := s.OAuth.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		l.Warn("login_callback_error", "reason", "code exchange failed", "error", err)
		return nil, fmt.Errorf("%w: code exchange failed", domain.ErrUnauthorized)
	}
	info, err := s.OAuth.GetUserInfo(ctx, tok.AccessToken)
	if err != nil {
		l.Warn("login_callback_error", "reason", "userinfo failed", "error", err)
		return nil, fmt.Errorf("%w: cannot load user info", domain.ErrUnauthorized)
	}

	now := s.now()
	if err := s.Users.UpsertUser(ctx, repo.UserUpsert{
		OpenID:       info.OpenID,
		Name:         optional(info.Name),
		Email:        optional(info.Email),
		LoginMethod:  optional(info.LoginMethod),
		LastSignedIn: &now,
	}); err != nil {
		return nil, err
	}

	exp := now.Add(SessionTTL)
	token, err := tokens.SignSession(info.OpenID, s.AppID, info.Name, exp, s.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	l.Info("login_callback_success", "open_id", info.OpenID)
	return &LoginResult{SessionToken: token, Expires: exp, RedirectTo: "/"}, nil
}

func decodeState(state string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(state)
	}
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: malformed state", domain.ErrValidation)
	}
	return string(raw), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
