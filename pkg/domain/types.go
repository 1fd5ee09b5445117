package domain

import "time"

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
)

// AuthProvider identifies how an account was created.
type AuthProvider string

const (
	ProviderPassword AuthProvider = "password"
	ProviderGoogle   AuthProvider = "google"
	ProviderFacebook AuthProvider = "facebook"
)

type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	DisplayName  string       `json:"displayName,omitempty"`
	PasswordHash string       `json:"-"`
	Provider     AuthProvider `json:"provider"`
	Status       UserStatus   `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Name returns the best display label for the user.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Profile is a per-user record kept separate from the account itself.
// Farm coordinates and preferred contact are optional.
type Profile struct {
	UserID           string    `json:"userId"`
	IsFarmer         bool      `json:"isFarmer"`
	FarmLatitude     *float64  `json:"farmLatitude,omitempty"`
	FarmLongitude    *float64  `json:"farmLongitude,omitempty"`
	PreferredContact string    `json:"preferredContact,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasFarmLocation reports whether both coordinates are set.
func (p Profile) HasFarmLocation() bool {
	return p.FarmLatitude != nil && p.FarmLongitude != nil
}

// ProduceListing is a farmer's produce offer. AssetURL is never empty for a
// persisted listing; StorageKey locates the backing image for deletion.
type ProduceListing struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	OwnerDisplayName string    `json:"ownerDisplayName"`
	ProduceName      string    `json:"produceName"`
	Description      string    `json:"description"`
	Price            float64   `json:"price"`
	Quantity         string    `json:"quantity"`
	AssetURL         string    `json:"assetUrl"`
	StorageKey       string    `json:"-"`
	SellerContact    string    `json:"sellerContact,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type MarketCategory string

const (
	CategoryEquipment   MarketCategory = "Equipment"
	CategorySeeds       MarketCategory = "Seeds"
	CategoryFertilizers MarketCategory = "Fertilizers"
	CategoryTools       MarketCategory = "Tools"
	CategoryOtherSupply MarketCategory = "Other Farm Supplies"
)

// MarketCategories lists the accepted categories in display order.
func MarketCategories() []MarketCategory {
	return []MarketCategory{
		CategoryEquipment,
		CategorySeeds,
		CategoryFertilizers,
		CategoryTools,
		CategoryOtherSupply,
	}
}

// ValidMarketCategory reports whether c is a known category.
func ValidMarketCategory(c MarketCategory) bool {
	for _, known := range MarketCategories() {
		if c == known {
			return true
		}
	}
	return false
}

type ItemCondition string

const (
	ConditionNew      ItemCondition = "New"
	ConditionUsedGood ItemCondition = "Used - Good"
	ConditionUsedFair ItemCondition = "Used - Fair"
)

// ValidItemCondition reports whether c is a known condition.
func ValidItemCondition(c ItemCondition) bool {
	switch c {
	case ConditionNew, ConditionUsedGood, ConditionUsedFair:
		return true
	}
	return false
}

// MarketItem is a farm-supply listing. Condition is persisted only for the
// Equipment category.
type MarketItem struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"ownerId"`
	OwnerDisplayName string         `json:"ownerDisplayName"`
	ItemName         string         `json:"itemName"`
	Description      string         `json:"description"`
	Category         MarketCategory `json:"category"`
	Condition        ItemCondition  `json:"condition,omitempty"`
	Price            float64        `json:"price"`
	AssetURL         string         `json:"assetUrl"`
	StorageKey       string         `json:"-"`
	SellerContact    string         `json:"sellerContact,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type InventoryItemType string

const (
	ItemTypeSeed          InventoryItemType = "Seed"
	ItemTypeFertilizer    InventoryItemType = "Fertilizer"
	ItemTypePesticide     InventoryItemType = "Pesticide"
	ItemTypeHerbicide     InventoryItemType = "Herbicide"
	ItemTypeTool          InventoryItemType = "Tool"
	ItemTypeEquipmentPart InventoryItemType = "Equipment Part"
	ItemTypeAnimalFeed    InventoryItemType = "Animal Feed"
	ItemTypeOther         InventoryItemType = "Other"
)

// ValidInventoryItemType reports whether t is a known inventory type.
func ValidInventoryItemType(t InventoryItemType) bool {
	switch t {
	case ItemTypeSeed, ItemTypeFertilizer, ItemTypePesticide, ItemTypeHerbicide,
		ItemTypeTool, ItemTypeEquipmentPart, ItemTypeAnimalFeed, ItemTypeOther:
		return true
	}
	return false
}

// InventoryItem is a private farm-stock record. No asset is attached.
type InventoryItem struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"ownerId"`
	ItemName     string            `json:"itemName"`
	ItemType     InventoryItemType `json:"itemType"`
	Quantity     string            `json:"quantity"`
	Unit         string            `json:"unit"`
	PurchaseDate *time.Time        `json:"purchaseDate,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}
