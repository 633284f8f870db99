package httpserver

import (
	"context"
	"net/http"

	middleware "github.com/Skotchmaster/liontv_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/liontv_shop/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/service"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	CheckoutHandler *CheckoutHTTP
	AuthHandler     *AuthHTTP
	CatalogHandler  *CatalogHTTP
	Session         *middleware.SessionMiddleware
	// CheckoutLimiter is optional; nil leaves checkout unthrottled.
	CheckoutLimiter *ratelimit.Limiter
	// CSRF guards unsafe /api/trpc calls when set.
	CSRF  echo.MiddlewareFunc
	Ready func(ctx context.Context) bool
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = &Validator{V: service.NewValidator()}
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil && !d.Ready(c.Request().Context()) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "database unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})

	e.GET("/api/oauth/callback", d.AuthHandler.OAuthCallback)

	api := e.Group("/api/trpc", d.Session.Optional)
	if d.CSRF != nil {
		api.Use(d.CSRF)
	}
	api.GET("/auth.me", d.AuthHandler.Me)
	api.POST("/auth.logout", d.AuthHandler.Logout)
	api.GET("/catalog.plans", d.CatalogHandler.Plans)

	var createMW []echo.MiddlewareFunc
	if d.CheckoutLimiter != nil {
		createMW = append(createMW, d.CheckoutLimiter.Middleware)
	}
	api.POST("/checkout.createOrder", d.CheckoutHandler.CreateOrder, createMW...)
	api.GET("/checkout.getOrder", d.CheckoutHandler.GetOrder)

	api.POST("/checkout.updatePaymentLink", d.CheckoutHandler.UpdatePaymentLink, d.Session.RequireAdmin)
	api.POST("/checkout.updateStatus", d.CheckoutHandler.UpdateStatus, d.Session.RequireAdmin)
}
