package store

import "farmconnect/pkg/domain"

// Store defines persistence for accounts, profiles, listings and inventory.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// profiles
	SaveProfile(domain.Profile) error
	GetProfile(userID string) (domain.Profile, bool, error)

	// produce listings
	SaveProduceListing(domain.ProduceListing) error
	GetProduceListing(id string) (domain.ProduceListing, bool, error)
	ListProduceListings() ([]domain.ProduceListing, error)
	DeleteProduceListing(id string) error

	// market items
	SaveMarketItem(domain.MarketItem) error
	GetMarketItem(id string) (domain.MarketItem, bool, error)
	ListMarketItems(category domain.MarketCategory) ([]domain.MarketItem, error)
	DeleteMarketItem(id string) error

	// farm inventory
	SaveInventoryItem(domain.InventoryItem) error
	GetInventoryItem(id string) (domain.InventoryItem, bool, error)
	ListInventoryByOwner(ownerID string) ([]domain.InventoryItem, error)
	DeleteInventoryItem(id string) error
}

// SessionStore issues and resolves session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
