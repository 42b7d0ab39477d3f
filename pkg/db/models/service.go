package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a bookable home service shown in the catalog.
type Service struct {
	ID          int64           `gorm:"column:id;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL    *string         `gorm:"column:image_url"`
	Category    string          `gorm:"column:category;not null"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ServiceItem is a tickable sub-item offered under a service.
type ServiceItem struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	ServiceID int64     `gorm:"column:service_id;not null"`
	ItemName  string    `gorm:"column:item_name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
