package transport

import "github.com/Skotchmaster/liontv_shop/services/storefront/internal/models"

type CreateOrderItem struct {
	PlanName string `json:"planName" validate:"required,max=100"`
	// PlanPrice is in cents; a pointer so an omitted price is rejected
	// rather than read as zero.
	PlanPrice *int64 `json:"planPrice" validate:"required,gte=0"`
	// Quantity defaults to 1 when omitted.
	Quantity *int64 `json:"quantity,omitempty" validate:"omitempty,gte=1"`
}

type CreateOrderRequest struct {
	CustomerName  string            `json:"customerName"  validate:"required,max=255"`
	CustomerEmail string            `json:"customerEmail" validate:"required,email,max=320"`
	CustomerPhone string            `json:"customerPhone" validate:"required,max=20"`
	Notes         *string           `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Items         []CreateOrderItem `json:"items"         validate:"required,min=1,dive"`
}

type CreateOrderResponse struct {
	Success    bool   `json:"success"`
	OrderID    uint   `json:"orderId"`
	TotalPrice int64  `json:"totalPrice"`
	Message    string `json:"message"`
}

type GetOrderResponse struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}

type UpdatePaymentLinkRequest struct {
	OrderID     uint   `json:"orderId"     validate:"required"`
	PaymentLink string `json:"paymentLink" validate:"required,http_url"`
}

type UpdateStatusRequest struct {
	OrderID uint   `json:"orderId" validate:"required"`
	Status  string `json:"status"  validate:"required,oneof=pending confirmed paid cancelled"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type Plan struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Duration string `json:"duration"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
