package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/liontv_shop/pkg/logging"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/domain"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/models"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/notify"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/transport"
	"github.com/go-playground/validator/v10"
)

const (
	OrderCreatedMessage = "Order created successfully. You will receive an email with payment instructions."
	NotificationTitle   = "New Order Received"
)

type OrderStore interface {
	Available(ctx context.Context) bool
	GetUserByOpenID(ctx context.Context, openID string) (*models.User, error)
	CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) (uint, error)
	GetOrderByID(ctx context.Context, id uint) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error)
	TransitionOrderStatus(ctx context.Context, id uint, from, to domain.OrderStatus) error
	UpdateOrderPaymentLink(ctx context.Context, id uint, link string) error
}

type Notifier interface {
	Enqueue(msg notify.Message) bool
}

type CheckoutService struct {
	Store    OrderStore
	Notifier Notifier
	Validate *validator.Validate
}

func NewCheckoutService(store OrderStore, notifier Notifier, v *validator.Validate) *CheckoutService {
	if v == nil {
		v = NewValidator()
	}
	return &CheckoutService{Store: store, Notifier: notifier, Validate: v}
}

// CreateOrder turns a submitted cart into a pending order. openID is the
// caller's session identity, empty for guests.
func (s *CheckoutService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest, openID string) (*transport.CreateOrderResponse, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.create_order")

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	for i := range req.Items {
		req.Items[i].PlanName = strings.TrimSpace(req.Items[i].PlanName)
	}
	if err := Validate(s.Validate, req); err != nil {
		return nil, err
	}

	var total int64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		qty := int64(1)
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		price := *it.PlanPrice
		line, err := domain.LineTotal(price, qty)
		if err != nil {
			return nil, err
		}
		if total, err = domain.AddCents(total, line); err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			PlanName:  it.PlanName,
			PlanPrice: price,
			Quantity:  qty,
		})
	}

	order := &models.Order{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		TotalPrice:    total,
		Status:        domain.StatusPending,
		PaymentMethod: models.PaymentMethodPayLater,
	}
	if req.Notes != nil {
		if notes := strings.TrimSpace(*req.Notes); notes != "" {
			order.Notes = &notes
		}
	}
	if openID != "" {
		if u, err := s.Store.GetUserByOpenID(ctx, openID); err != nil {
			l.Warn("resolve_user_error", "error", err)
		} else if u != nil {
			order.UserID = &u.ID
		}
	}

	orderID, err := s.Store.CreateOrderWithItems(ctx, order, items)
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, order, items)

	l.Info("create_order_success", "order_id", orderID, "total_price", total)
	return &transport.CreateOrderResponse{
		Success:    true,
		OrderID:    orderID,
		TotalPrice: total,
		Message:    OrderCreatedMessage,
	}, nil
}

func (s *CheckoutService) notifyOwner(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.Notifier == nil {
		return
	}
	ok := s.Notifier.Enqueue(notify.Message{
		Title:      NotificationTitle,
		Content:    OrderSummary(order, items),
		OrderID:    order.ID,
		TotalPrice: order.TotalPrice,
	})
	if !ok {
		logging.FromContext(ctx).Warn("notify_owner_error", "order_id", order.ID, "reason", "queue full")
	}
}

// OrderSummary is the owner-facing one-line description of an order.
func OrderSummary(order *models.Order, items []models.OrderItem) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.PlanName)
	}
	return fmt.Sprintf("New order from %s (%s) for %s. Total: %s",
		order.CustomerName, order.CustomerEmail, strings.Join(names, ", "), domain.FormatCents(order.TotalPrice))
}

func (s *CheckoutService) GetOrder(ctx context.Context, id uint) (*transport.GetOrderResponse, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.Store.GetOrderItemsByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &transport.GetOrderResponse{Order: *order, Items: items}, nil
}

// UpdatePaymentLink attaches a payment link regardless of order status;
// admins may override cancelled orders.
func (s *CheckoutService) UpdatePaymentLink(ctx context.Context, req transport.UpdatePaymentLinkRequest) error {
	req.PaymentLink = strings.TrimSpace(req.PaymentLink)
	if err := Validate(s.Validate, req); err != nil {
		return err
	}
	if _, err := s.loadOrder(ctx, req.OrderID); err != nil {
		return err
	}
	if err := s.Store.UpdateOrderPaymentLink(ctx, req.OrderID, req.PaymentLink); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("update_payment_link_success", "order_id", req.OrderID)
	return nil
}

func (s *CheckoutService) UpdateStatus(ctx context.Context, req transport.UpdateStatusRequest) (*models.Order, error) {
	if err := Validate(s.Validate, req); err != nil {
		return nil, err
	}
	to, err := domain.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !domain.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: cannot move order %d from %s to %s", domain.ErrConflict, order.ID, from, to)
	}
	if err := s.Store.TransitionOrderStatus(ctx, order.ID, from, to); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("update_status_success", "order_id", order.ID, "from", from, "to", to)
	return s.Store.GetOrderByID(ctx, order.ID)
}

// loadOrder distinguishes an unreachable store from a missing order, which
// the gateway's degraded reads do not.
func (s *CheckoutService) loadOrder(ctx context.Context, id uint) (*models.Order, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: orderId is required", domain.ErrValidation)
	}
	if !s.Store.Available(ctx) {
		return nil, fmt.Errorf("%w: database not available", domain.ErrUnavailable)
	}
	order, err := s.Store.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	return order, nil
}
