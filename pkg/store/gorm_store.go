package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"farmconnect/pkg/domain"
)

const migrateLockID int64 = 52415241

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&UserModel{},
			&ProfileModel{},
			&ProduceListingModel{},
			&MarketItemModel{},
			&InventoryItemModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "display_name", "password_hash", "provider", "status", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SaveProfile stores or updates a user profile.
func (s *GormStore) SaveProfile(p domain.Profile) error {
	model := profileToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_farmer", "farm_latitude", "farm_longitude", "preferred_contact", "updated_at"}),
	}).Create(&model).Error
}

// GetProfile returns the profile keyed by user ID.
func (s *GormStore) GetProfile(userID string) (domain.Profile, bool, error) {
	var model ProfileModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, err
	}
	return profileFromModel(model), true, nil
}

// Columns rewritten on conflicting id. Everything mutable must be listed,
// including the denormalized owner_display_name refreshed on each write.
var produceUpdateColumns = []string{
	"owner_display_name", "produce_name", "description", "price", "quantity",
	"asset_url", "storage_key", "updated_at",
}

// SaveProduceListing stores or updates a produce listing.
func (s *GormStore) SaveProduceListing(l domain.ProduceListing) error {
	model := produceToModel(l)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(produceUpdateColumns),
	}).Create(&model).Error
}

// GetProduceListing retrieves one listing.
func (s *GormStore) GetProduceListing(id string) (domain.ProduceListing, bool, error) {
	var model ProduceListingModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ProduceListing{}, false, nil
		}
		return domain.ProduceListing{}, false, err
	}
	return produceFromModel(model), true, nil
}

// ListProduceListings returns all listings, newest first.
func (s *GormStore) ListProduceListings() ([]domain.ProduceListing, error) {
	var models []ProduceListingModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ProduceListing, 0, len(models))
	for _, m := range models {
		res = append(res, produceFromModel(m))
	}
	return res, nil
}

// DeleteProduceListing removes a listing.
func (s *GormStore) DeleteProduceListing(id string) error {
	return s.db.Delete(&ProduceListingModel{}, "id = ?", id).Error
}

var marketItemUpdateColumns = []string{
	"owner_display_name", "item_name", "description", "category", "condition",
	"price", "asset_url", "storage_key", "updated_at",
}

// SaveMarketItem stores or updates a market item.
func (s *GormStore) SaveMarketItem(item domain.MarketItem) error {
	model := marketItemToModel(item)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(marketItemUpdateColumns),
	}).Create(&model).Error
}

// GetMarketItem retrieves one market item.
func (s *GormStore) GetMarketItem(id string) (domain.MarketItem, bool, error) {
	var model MarketItemModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.MarketItem{}, false, nil
		}
		return domain.MarketItem{}, false, err
	}
	return marketItemFromModel(model), true, nil
}

// ListMarketItems returns items newest first, optionally filtered by category.
func (s *GormStore) ListMarketItems(category domain.MarketCategory) ([]domain.MarketItem, error) {
	tx := s.db.Order("created_at DESC")
	if category != "" {
		tx = tx.Where("category = ?", string(category))
	}
	var models []MarketItemModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.MarketItem, 0, len(models))
	for _, m := range models {
		res = append(res, marketItemFromModel(m))
	}
	return res, nil
}

// DeleteMarketItem removes a market item.
func (s *GormStore) DeleteMarketItem(id string) error {
	return s.db.Delete(&MarketItemModel{}, "id = ?", id).Error
}

// SaveInventoryItem stores or updates an inventory item.
func (s *GormStore) SaveInventoryItem(item domain.InventoryItem) error {
	model := inventoryToModel(item)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"item_name", "item_type", "quantity", "unit", "purchase_date", "notes", "updated_at"}),
	}).Create(&model).Error
}

// GetInventoryItem retrieves one inventory item.
func (s *GormStore) GetInventoryItem(id string) (domain.InventoryItem, bool, error) {
	var model InventoryItemModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.InventoryItem{}, false, nil
		}
		return domain.InventoryItem{}, false, err
	}
	return inventoryFromModel(model), true, nil
}

// ListInventoryByOwner returns a farmer's inventory, newest first.
func (s *GormStore) ListInventoryByOwner(ownerID string) ([]domain.InventoryItem, error) {
	var models []InventoryItemModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.InventoryItem, 0, len(models))
	for _, m := range models {
		res = append(res, inventoryFromModel(m))
	}
	return res, nil
}

// DeleteInventoryItem removes an inventory item.
func (s *GormStore) DeleteInventoryItem(id string) error {
	return s.db.Delete(&InventoryItemModel{}, "id = ?", id).Error
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Provider:     string(u.Provider),
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	status := domain.UserStatus(m.Status)
	if status == "" {
		status = domain.StatusActive
	}
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		Provider:     domain.AuthProvider(m.Provider),
		Status:       status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func profileToModel(p domain.Profile) ProfileModel {
	return ProfileModel{
		UserID:           p.UserID,
		IsFarmer:         p.IsFarmer,
		FarmLatitude:     p.FarmLatitude,
		FarmLongitude:    p.FarmLongitude,
		PreferredContact: p.PreferredContact,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func profileFromModel(m ProfileModel) domain.Profile {
	return domain.Profile{
		UserID:           m.UserID,
		IsFarmer:         m.IsFarmer,
		FarmLatitude:     m.FarmLatitude,
		FarmLongitude:    m.FarmLongitude,
		PreferredContact: m.PreferredContact,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func produceToModel(l domain.ProduceListing) ProduceListingModel {
	return ProduceListingModel{
		ID:               l.ID,
		OwnerID:          l.OwnerID,
		OwnerDisplayName: l.OwnerDisplayName,
		ProduceName:      l.ProduceName,
		Description:      l.Description,
		Price:            l.Price,
		Quantity:         l.Quantity,
		AssetURL:         l.AssetURL,
		StorageKey:       l.StorageKey,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func produceFromModel(m ProduceListingModel) domain.ProduceListing {
	return domain.ProduceListing{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		OwnerDisplayName: m.OwnerDisplayName,
		ProduceName:      m.ProduceName,
		Description:      m.Description,
		Price:            m.Price,
		Quantity:         m.Quantity,
		AssetURL:         m.AssetURL,
		StorageKey:       m.StorageKey,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func marketItemToModel(item domain.MarketItem) MarketItemModel {
	return MarketItemModel{
		ID:               item.ID,
		OwnerID:          item.OwnerID,
		OwnerDisplayName: item.OwnerDisplayName,
		ItemName:         item.ItemName,
		Description:      item.Description,
		Category:         string(item.Category),
		Condition:        string(item.Condition),
		Price:            item.Price,
		AssetURL:         item.AssetURL,
		StorageKey:       item.StorageKey,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

func marketItemFromModel(m MarketItemModel) domain.MarketItem {
	return domain.MarketItem{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		OwnerDisplayName: m.OwnerDisplayName,
		ItemName:         m.ItemName,
		Description:      m.Description,
		Category:         domain.MarketCategory(m.Category),
		Condition:        domain.ItemCondition(m.Condition),
		Price:            m.Price,
		AssetURL:         m.AssetURL,
		StorageKey:       m.StorageKey,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func inventoryToModel(item domain.InventoryItem) InventoryItemModel {
	var purchase *datatypes.Date
	if item.PurchaseDate != nil {
		d := datatypes.Date(*item.PurchaseDate)
		purchase = &d
	}
	return InventoryItemModel{
		ID:           item.ID,
		OwnerID:      item.OwnerID,
		ItemName:     item.ItemName,
		ItemType:     string(item.ItemType),
		Quantity:     item.Quantity,
		Unit:         item.Unit,
		PurchaseDate: purchase,
		Notes:        item.Notes,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func inventoryFromModel(m InventoryItemModel) domain.InventoryItem {
	var purchase *time.Time
	if m.PurchaseDate != nil {
		t := time.Time(*m.PurchaseDate)
		purchase = &t
	}
	return domain.InventoryItem{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		ItemName:     m.ItemName,
		ItemType:     domain.InventoryItemType(m.ItemType),
		Quantity:     m.Quantity,
		Unit:         m.Unit,
		PurchaseDate: purchase,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
