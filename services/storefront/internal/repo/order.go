package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/liontv_shop/pkg/logging"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/domain"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (g *Gateway) insertOrder(tx *gorm.DB, order *models.Order) error {
	now := g.opts.Now()
	if order.Status == "" {
		order.Status = domain.StatusPending
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentMethodPayLater
	}
	order.CreatedAt, order.UpdatedAt = now, now

	if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	if order.ID == 0 {
		return errors.New("insert did not return an order id")
	}
	return nil
}

func (g *Gateway) insertOrderItem(tx *gorm.DB, item *models.OrderItem) error {
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	item.CreatedAt = g.opts.Now()
	return tx.Omit(clause.Associations).Create(item).Error
}

// CreateOrder inserts a header row and returns the identifier the store
// generated for it.
func (g *Gateway) CreateOrder(ctx context.Context, order *models.Order) (uint, error) {
	db, err := g.writer(ctx, "create order")
	if err != nil {
		return 0, err
	}
	if err := g.insertOrder(db, order); err != nil {
		return 0, persistErr("create order", err)
	}
	return order.ID, nil
}

func (g *Gateway) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	if item.OrderID == 0 {
		return fmt.Errorf("%w: orderId is required", domain.ErrValidation)
	}
	db, err := g.writer(ctx, "create order item")
	if err != nil {
		return err
	}
	if err := g.insertOrderItem(db, item); err != nil {
		return persistErr("create order item", err)
	}
	return nil
}

// CreateOrderWithItems writes the header and then every item, in order, in
// one transaction. Either all rows exist afterwards or none do.
func (g *Gateway) CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) (uint, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("%w: order needs at least one item", domain.ErrValidation)
	}
	db, err := g.writer(ctx, "create order")
	if err != nil {
		return 0, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := g.insertOrder(tx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := g.insertOrderItem(tx, &items[i]); err != nil {
				return fmt.Errorf("insert item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Error("create_order_tx_error", "error", err)
		order.ID = 0
		return 0, persistErr("create order", err)
	}
	return order.ID, nil
}

// GetOrderByID returns nil without error when the order does not exist or
// the store is unavailable.
func (g *Gateway) GetOrderByID(ctx context.Context, id uint) (*models.Order, error) {
	db, ok := g.Connect(ctx)
	if !ok {
		return nil, nil
	}

	var order models.Order
	err := db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get order", err)
	}
	return &order, nil
}

// GetOrderItemsByOrderID returns the items in insertion order; empty when
// none exist or the store is unavailable.
func (g *Gateway) GetOrderItemsByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	db, ok := g.Connect(ctx)
	if !ok {
		return []models.OrderItem{}, nil
	}

	items := []models.OrderItem{}
	err := db.WithContext(ctx).
		Where(map[string]any{"orderId": orderID}).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, persistErr("get order items", err)
	}
	return items, nil
}

// UpdateOrderStatus sets the status unconditionally. Callers check existence
// and transition validity.
func (g *Gateway) UpdateOrderStatus(ctx context.Context, id uint, status domain.OrderStatus) error {
	db, err := g.writer(ctx, "update order status")
	if err != nil {
		return err
	}
	err = db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]any{
		"status":    string(status),
		"updatedAt": g.opts.Now(),
	}).Error
	if err != nil {
		return persistErr("update order status", err)
	}
	return nil
}

// TransitionOrderStatus moves an order from one status to another only if it
// is still in the expected status, so concurrent admins cannot both win.
func (g *Gateway) TransitionOrderStatus(ctx context.Context, id uint, from, to domain.OrderStatus) error {
	db, err := g.writer(ctx, "update order status")
	if err != nil {
		return err
	}
	res := db.Model(&models.Order{}).
		Where("id = ?", id).
		Where(map[string]any{"status": string(from)}).
		Updates(map[string]any{
			"status":    string(to),
			"updatedAt": g.opts.Now(),
		})
	if res.Error != nil {
		return persistErr("update order status", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order %d is no longer %s", domain.ErrConflict, id, from)
	}
	return nil
}

func (g *Gateway) UpdateOrderPaymentLink(ctx context.Context, id uint, link string) error {
	db, err := g.writer(ctx, "update payment link")
	if err != nil {
		return err
	}
	err = db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]any{
		"paymentLink": link,
		"updatedAt":   g.opts.Now(),
	}).Error
	if err != nil {
		return persistErr("update payment link", err)
	}
	return nil
}
