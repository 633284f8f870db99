package models

import (
	"time"

	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/domain"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// PaymentMethodPayLater marks orders paid out of band after the owner
// sends payment instructions.
const PaymentMethodPayLater = "cash_on_delivery"

type User struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"              json:"id"`
	OpenID       string    `gorm:"column:openId;size:64;uniqueIndex;not null"      json:"openId"`
	Name         *string   `gorm:"column:name;type:text"                           json:"name"`
	Email        *string   `gorm:"column:email;size:320"                           json:"email"`
	LoginMethod  *string   `gorm:"column:loginMethod;size:64"                      json:"loginMethod"`
	Role         Role      `gorm:"column:role;size:16;not null;default:user"       json:"role"`
	CreatedAt    time.Time `gorm:"column:createdAt;not null"                       json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updatedAt;not null"                       json:"updatedAt"`
	LastSignedIn time.Time `gorm:"column:lastSignedIn;not null"                    json:"lastSignedIn"`
}

func (User) TableName() string {
	return "users"
}

type Order struct {
	ID            uint               `gorm:"column:id;primaryKey;autoIncrement"                          json:"id"`
	UserID        *uint              `gorm:"column:userId;index"                                         json:"userId"`
	User          *User              `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"              json:"-"`
	CustomerName  string             `gorm:"column:customerName;size:255;not null"                       json:"customerName"`
	CustomerEmail string             `gorm:"column:customerEmail;size:320;not null"                      json:"customerEmail"`
	CustomerPhone string             `gorm:"column:customerPhone;size:20;not null"                       json:"customerPhone"`
	TotalPrice    int64              `gorm:"column:totalPrice;not null"                                  json:"totalPrice"`
	Status        domain.OrderStatus `gorm:"column:status;size:16;not null;default:pending"              json:"status"`
	PaymentMethod string             `gorm:"column:paymentMethod;size:50;not null;default:cash_on_delivery" json:"paymentMethod"`
	PaymentLink   *string            `gorm:"column:paymentLink;type:text"                                json:"paymentLink"`
	Notes         *string            `gorm:"column:notes;type:text"                                      json:"notes"`
	CreatedAt     time.Time          `gorm:"column:createdAt;not null"                                   json:"createdAt"`
	UpdatedAt     time.Time          `gorm:"column:updatedAt;not null"                                   json:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement"                  json:"id"`
	OrderID        uint      `gorm:"column:orderId;not null;index"                       json:"orderId"`
	Order          *Order    `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"     json:"-"`
	PlanName       string    `gorm:"column:planName;size:100;not null"                   json:"planName"`
	PlanPrice      int64     `gorm:"column:planPrice;not null"                           json:"planPrice"`
	Quantity       int64     `gorm:"column:quantity;not null;default:1;check:quantity >= 1" json:"quantity"`
	ActivationCode *string   `gorm:"column:activationCode;size:255"                      json:"activationCode"`
	CreatedAt      time.Time `gorm:"column:createdAt;not null"                           json:"createdAt"`
}

func (OrderItem) TableName() string {
	return "orderItems"
}
