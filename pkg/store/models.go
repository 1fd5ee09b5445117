package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	DisplayName  string
	PasswordHash string
	Provider     string `gorm:"not null"`
	Status       string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type ProfileModel struct {
	UserID           string `gorm:"primaryKey"`
	IsFarmer         bool   `gorm:"not null"`
	FarmLatitude     *float64
	FarmLongitude    *float64
	PreferredContact string
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time
}

type ProduceListingModel struct {
	ID               string `gorm:"primaryKey"`
	OwnerID          string `gorm:"not null;index"`
	OwnerDisplayName string `gorm:"not null"`
	ProduceName      string `gorm:"not null"`
	Description      string `gorm:"type:text;not null"`
	Price            float64
	Quantity         string
	AssetURL         string `gorm:"not null"`
	StorageKey       string
	CreatedAt        time.Time `gorm:"not null;index"`
	UpdatedAt        time.Time `gorm:"not null"`
}

type MarketItemModel struct {
	ID               string `gorm:"primaryKey"`
	OwnerID          string `gorm:"not null;index"`
	OwnerDisplayName string `gorm:"not null"`
	ItemName         string `gorm:"not null"`
	Description      string `gorm:"type:text;not null"`
	Category         string `gorm:"not null;index"`
	Condition        string
	Price            float64
	AssetURL         string `gorm:"not null"`
	StorageKey       string
	CreatedAt        time.Time `gorm:"not null;index"`
	UpdatedAt        time.Time `gorm:"not null"`
}

type InventoryItemModel struct {
	ID           string `gorm:"primaryKey"`
	OwnerID      string `gorm:"not null;index"`
	ItemName     string `gorm:"not null"`
	ItemType     string `gorm:"not null"`
	Quantity     string `gorm:"not null"`
	Unit         string `gorm:"not null"`
	PurchaseDate *datatypes.Date
	Notes        string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time `gorm:"not null"`
}
