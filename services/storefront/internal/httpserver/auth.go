package httpserver

import (
	"net/http"

	jwthelp "github.com/Skotchmaster/liontv_shop/pkg/jwt"
	"github.com/Skotchmaster/liontv_shop/pkg/logging"
	middleware "github.com/Skotchmaster/liontv_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/service"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/transport"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc        *service.AuthService
	CookieName string
}

// Me answers with the signed-in user or JSON null for anonymous callers.
func (h *AuthHTTP) Me(c echo.Context) error {
	claims, ok := middleware.SessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusOK, nil)
	}

	user, err := h.Svc.Me(c.Request().Context(), claims.Subject)
	if err != nil {
		return fail(logging.FromContext(c.Request().Context()).With("handler", "auth.me"), "me_error", err)
	}
	if user == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth.logout")

	c.SetCookie(jwthelp.DeleteCookie(h.CookieName, "/", jwthelp.IsSecureRequest(c.Request())))

	l.Info("logout_success")
	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}

func (h *AuthHTTP) OAuthCallback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.oauth_callback")

	res, err := h.Svc.LoginCallback(ctx, c.QueryParam("code"), c.QueryParam("state"))
	if err != nil {
		return fail(l, "oauth_callback_error", err)
	}

	c.SetCookie(jwthelp.CreateCookie(h.CookieName, res.SessionToken, "/", res.Expires, jwthelp.IsSecureRequest(c.Request())))

	l.Info("oauth_callback_success")
	return c.Redirect(http.StatusFound, res.RedirectTo)
}
