package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品。カタログ管理は別機能で、ここでは価格と在庫だけを扱う
type Product struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	StockQuantity int64           `gorm:"column:stock_quantity;not null;check:stock_quantity >= 0" json:"stock_quantity"`
	IsActive      bool            `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// 購入可能な在庫があるか（しきい値以上）
func (p Product) InStock(threshold int64) bool {
	return p.StockQuantity >= threshold
}

// 在庫はあるがしきい値未満
func (p Product) LowStock(threshold int64) bool {
	return p.StockQuantity > 0 && p.StockQuantity < threshold
}
