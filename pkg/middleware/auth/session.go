package middleware

import (
	"context"
	"net/http"

	jwthelp "github.com/Skotchmaster/liontv_shop/pkg/jwt"
	"github.com/Skotchmaster/liontv_shop/pkg/tokens"
	"github.com/labstack/echo/v4"
)

const (
	CtxSession = "session"
	CtxUserID  = "user_id"
	CtxRole    = "role"

	RoleAdmin = "admin"
)

// RoleLookup resolves the current role of an identity. Roles live in the
// store, not in the token, so promotions take effect without a new login.
type RoleLookup func(ctx context.Context, openID string) (string, error)

type SessionMiddleware struct {
	Secret     []byte
	CookieName string
	Roles      RoleLookup
}

func NewSessionMiddleware(secret []byte, cookieName string, roles RoleLookup) *SessionMiddleware {
	return &SessionMiddleware{
		Secret:     secret,
		CookieName: cookieName,
		Roles:      roles,
	}
}

type ValidatorFunc func(c echo.Context, claims *tokens.SessionClaims) error

// Optional attaches the session when a valid cookie is present and lets
// anonymous requests through untouched.
func (m *SessionMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims, err := m.claims(c); err == nil {
			setSessionContext(c, claims)
		}
		return next(c)
	}
}

func (m *SessionMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireWithValidator(next, nil)
}

func (m *SessionMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireWithValidator(next, func(c echo.Context, claims *tokens.SessionClaims) error {
		if m.Roles == nil {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		role, err := m.Roles(c.Request().Context(), claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot resolve role")
		}
		if role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		c.Set(CtxRole, role)
		return nil
	})
}

func (m *SessionMiddleware) requireWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.claims(c)
		if err != nil {
			if err != http.ErrNoCookie {
				c.SetCookie(jwthelp.DeleteCookie(m.CookieName, "/", jwthelp.IsSecureRequest(c.Request())))
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "please login")
		}

		if validator != nil {
			if vErr := validator(c, claims); vErr != nil {
				return vErr
			}
		}

		setSessionContext(c, claims)
		return next(c)
	}
}

func (m *SessionMiddleware) claims(c echo.Context) (*tokens.SessionClaims, error) {
	cookie, err := c.Cookie(m.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, http.ErrNoCookie
	}
	return tokens.SessionClaimsFromToken(cookie.Value, m.Secret)
}

func setSessionContext(c echo.Context, claims *tokens.SessionClaims) {
	c.Set(CtxSession, claims)
	c.Set(CtxUserID, claims.Subject)
}

// SessionFromContext returns the session attached by one of the middlewares.
func SessionFromContext(c echo.Context) (*tokens.SessionClaims, bool) {
	claims, ok := c.Get(CtxSession).(*tokens.SessionClaims)
	return claims, ok && claims != nil
}
