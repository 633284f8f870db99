package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/liontv_shop/pkg/logging"
	middleware "github.com/Skotchmaster/liontv_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/service"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/transport"
	"github.com/labstack/echo/v4"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

type getOrderQuery struct {
	OrderID uint `query:"orderId" validate:"required"`
}

func (h *CheckoutHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var openID string
	if claims, ok := middleware.SessionFromContext(c); ok {
		openID = claims.Subject
	}

	resp, err := h.Svc.CreateOrder(ctx, req, openID)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", resp.OrderID)
	return c.JSON(http.StatusCreated, resp)
}

func (h *CheckoutHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.get_order")

	var q getOrderQuery
	if err := c.Bind(&q); err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "orderId is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "orderId is not an integer")
	}
	if err := c.Validate(&q); err != nil {
		return fail(l, "get_order_error", err)
	}

	resp, err := h.Svc.GetOrder(ctx, q.OrderID)
	if err != nil {
		return fail(l, "get_order_error", err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHTTP) UpdatePaymentLink(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.update_payment_link")

	var req transport.UpdatePaymentLinkRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_payment_link_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.UpdatePaymentLink(ctx, req); err != nil {
		return fail(l, "update_payment_link_error", err)
	}

	l.Info("update_payment_link_success", "order_id", req.OrderID)
	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}

func (h *CheckoutHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.update_status")

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateStatus(ctx, req)
	if err != nil {
		return fail(l, "update_status_error", err)
	}

	l.Info("update_status_success", "order_id", req.OrderID, "order_status", req.Status)
	return c.JSON(http.StatusOK, order)
}
