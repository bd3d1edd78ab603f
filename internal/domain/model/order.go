package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文。所有者(UserID)と配送担当(ShipperID)はどちらもusersへのID参照
type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64           `gorm:"not null;index" json:"user_id"`
	ShipperID       *int64          `gorm:"index" json:"shipper_id"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`

	// 明細は注文と一緒に消える
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
}

func (o Order) IsOwnedBy(userID int64) bool {
	return o.UserID == userID
}

func (o Order) HasShipper() bool {
	return o.ShipperID != nil
}

func (o Order) IsAssignedTo(userID int64) bool {
	return o.ShipperID != nil && *o.ShipperID == userID
}
