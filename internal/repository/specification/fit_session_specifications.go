package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByShopperID scopes sessions to one shopper for data isolation.
type ByShopperID struct {
	ShopperID uuid.UUID
}

func (s ByShopperID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("shopper_id = ?", s.ShopperID)
}

// ByRetailerID scopes sessions to one shop.
type ByRetailerID struct {
	RetailerID uuid.UUID
}

func (s ByRetailerID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("retailer_id = ?", s.RetailerID)
}

// FavoritesOnly keeps sessions the shopper starred.
type FavoritesOnly struct{}

func (s FavoritesOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_favorite = ?", true)
}

// ByStatus filters by lifecycle status.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}
