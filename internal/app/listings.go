package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmconnect/internal/util"
	"farmconnect/pkg/domain"
	"farmconnect/pkg/feed"
	"farmconnect/pkg/storage"
)

// ProduceListingInput carries the fields a farmer may set on a produce offer.
type ProduceListingInput struct {
	ProduceName string
	Description string
	Price       float64
	Quantity    string
}

func (in ProduceListingInput) validate() error {
	if strings.TrimSpace(in.ProduceName) == "" {
		return invalidField("produceName", "required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return invalidField("description", "required")
	}
	if in.Price < 0 {
		return invalidField("price", "must not be negative")
	}
	if strings.TrimSpace(in.Quantity) == "" {
		return invalidField("quantity", "required")
	}
	return nil
}

// CreateProduceListing publishes a new produce offer. Only farmer accounts
// may post produce, and a new image is mandatory.
func (a *App) CreateProduceListing(ctx context.Context, user domain.User, in ProduceListingInput, upload *AssetUpload) (domain.ProduceListing, error) {
	if err := a.requireFarmer(user); err != nil {
		return domain.ProduceListing{}, err
	}
	if err := in.validate(); err != nil {
		return domain.ProduceListing{}, err
	}
	now := time.Now().UTC()
	listing := domain.ProduceListing{
		ID:               util.NewID(),
		OwnerID:          user.ID,
		OwnerDisplayName: user.Name(),
		ProduceName:      strings.TrimSpace(in.ProduceName),
		Description:      strings.TrimSpace(in.Description),
		Price:            in.Price,
		Quantity:         strings.TrimSpace(in.Quantity),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := a.upsertWithAsset(ctx, NamespaceProduceImages, user.ID, storage.AssetRef{}, upload, func(ref storage.AssetRef) error {
		listing.AssetURL = ref.URL
		listing.StorageKey = ref.Key
		return a.store.SaveProduceListing(listing)
	})
	if err != nil {
		return domain.ProduceListing{}, err
	}
	a.hub.Notify(feed.CollectionProduce)
	return listing, nil
}

// UpdateProduceListing rewrites an owned produce offer. A replacement image
// is optional; omitting it keeps the stored one.
func (a *App) UpdateProduceListing(ctx context.Context, user domain.User, id string, in ProduceListingInput, upload *AssetUpload) (domain.ProduceListing, error) {
	if err := a.requireFarmer(user); err != nil {
		return domain.ProduceListing{}, err
	}
	existing, found, err := a.store.GetProduceListing(id)
	if err != nil {
		return domain.ProduceListing{}, fmt.Errorf("fetch listing: %w", err)
	}
	if !found {
		return domain.ProduceListing{}, ErrNotFound
	}
	if existing.OwnerID != user.ID {
		return domain.ProduceListing{}, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return domain.ProduceListing{}, err
	}
	listing := existing
	listing.OwnerDisplayName = user.Name()
	listing.ProduceName = strings.TrimSpace(in.ProduceName)
	listing.Description = strings.TrimSpace(in.Description)
	listing.Price = in.Price
	listing.Quantity = strings.TrimSpace(in.Quantity)
	listing.UpdatedAt = time.Now().UTC()
	prior := storage.AssetRef{URL: existing.AssetURL, Key: existing.StorageKey}
	_, err = a.upsertWithAsset(ctx, NamespaceProduceImages, user.ID, prior, upload, func(ref storage.AssetRef) error {
		listing.AssetURL = ref.URL
		listing.StorageKey = ref.Key
		return a.store.SaveProduceListing(listing)
	})
	if err != nil {
		return domain.ProduceListing{}, err
	}
	a.hub.Notify(feed.CollectionProduce)
	return listing, nil
}

// DeleteProduceListing removes an owned offer and best-effort deletes its image.
func (a *App) DeleteProduceListing(ctx context.Context, user domain.User, id string) error {
	existing, found, err := a.store.GetProduceListing(id)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	if existing.OwnerID != user.ID {
		return ErrUnauthorized
	}
	if err := a.store.DeleteProduceListing(id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	a.deleteAsset(ctx, storage.AssetRef{URL: existing.AssetURL, Key: existing.StorageKey}, "record deleted")
	a.hub.Notify(feed.CollectionProduce)
	return nil
}

// GetProduce returns a single produce offer with the seller contact attached.
func (a *App) GetProduce(ctx context.Context, id string) (domain.ProduceListing, error) {
	listing, found, err := a.store.GetProduceListing(id)
	if err != nil {
		return domain.ProduceListing{}, fmt.Errorf("fetch listing: %w", err)
	}
	if !found {
		return domain.ProduceListing{}, ErrNotFound
	}
	contacts := a.contacts.Contacts(ctx, []string{listing.OwnerID})
	listing.SellerContact = contacts[listing.OwnerID]
	return listing, nil
}

// ListProduce returns all produce offers, newest first, with seller contact
// details attached where the seller shares them.
func (a *App) ListProduce(ctx context.Context) ([]domain.ProduceListing, error) {
	listings, err := a.store.ListProduceListings()
	if err != nil {
		return nil, fmt.Errorf("list produce: %w", err)
	}
	ids := make([]string, len(listings))
	for i := range listings {
		ids[i] = listings[i].OwnerID
	}
	contacts := a.contacts.Contacts(ctx, ids)
	for i := range listings {
		listings[i].SellerContact = contacts[listings[i].OwnerID]
	}
	return listings, nil
}

// MarketItemInput carries the fields a seller may set on a farm-supply listing.
type MarketItemInput struct {
	ItemName    string
	Description string
	Category    domain.MarketCategory
	Condition   domain.ItemCondition
	Price       float64
}

func (in MarketItemInput) validate() error {
	if strings.TrimSpace(in.ItemName) == "" {
		return invalidField("itemName", "required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return invalidField("description", "required")
	}
	if !domain.ValidMarketCategory(in.Category) {
		return invalidField("category", "unknown category")
	}
	if in.Price < 0 {
		return invalidField("price", "must not be negative")
	}
	if in.Category == domain.CategoryEquipment {
		if !domain.ValidItemCondition(in.Condition) {
			return invalidField("condition", "required for equipment")
		}
	}
	return nil
}

// CreateMarketItem publishes a new farm-supply listing with a mandatory image.
// Condition is kept only for equipment; other categories store none.
func (a *App) CreateMarketItem(ctx context.Context, user domain.User, in MarketItemInput, upload *AssetUpload) (domain.MarketItem, error) {
	if err := in.validate(); err != nil {
		return domain.MarketItem{}, err
	}
	now := time.Now().UTC()
	item := domain.MarketItem{
		ID:               util.NewID(),
		OwnerID:          user.ID,
		OwnerDisplayName: user.Name(),
		ItemName:         strings.TrimSpace(in.ItemName),
		Description:      strings.TrimSpace(in.Description),
		Category:         in.Category,
		Condition:        conditionFor(in),
		Price:            in.Price,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := a.upsertWithAsset(ctx, NamespaceMarketItemImages, user.ID, storage.AssetRef{}, upload, func(ref storage.AssetRef) error {
		item.AssetURL = ref.URL
		item.StorageKey = ref.Key
		return a.store.SaveMarketItem(item)
	})
	if err != nil {
		return domain.MarketItem{}, err
	}
	a.hub.Notify(feed.CollectionMarketItems)
	return item, nil
}

// UpdateMarketItem rewrites an owned listing, optionally replacing its image.
func (a *App) UpdateMarketItem(ctx context.Context, user domain.User, id string, in MarketItemInput, upload *AssetUpload) (domain.MarketItem, error) {
	existing, found, err := a.store.GetMarketItem(id)
	if err != nil {
		return domain.MarketItem{}, fmt.Errorf("fetch market item: %w", err)
	}
	if !found {
		return domain.MarketItem{}, ErrNotFound
	}
	if existing.OwnerID != user.ID {
		return domain.MarketItem{}, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return domain.MarketItem{}, err
	}
	item := existing
	item.OwnerDisplayName = user.Name()
	item.ItemName = strings.TrimSpace(in.ItemName)
	item.Description = strings.TrimSpace(in.Description)
	item.Category = in.Category
	item.Condition = conditionFor(in)
	item.Price = in.Price
	item.UpdatedAt = time.Now().UTC()
	prior := storage.AssetRef{URL: existing.AssetURL, Key: existing.StorageKey}
	_, err = a.upsertWithAsset(ctx, NamespaceMarketItemImages, user.ID, prior, upload, func(ref storage.AssetRef) error {
		item.AssetURL = ref.URL
		item.StorageKey = ref.Key
		return a.store.SaveMarketItem(item)
	})
	if err != nil {
		return domain.MarketItem{}, err
	}
	a.hub.Notify(feed.CollectionMarketItems)
	return item, nil
}

// DeleteMarketItem removes an owned listing and best-effort deletes its image.
func (a *App) DeleteMarketItem(ctx context.Context, user domain.User, id string) error {
	existing, found, err := a.store.GetMarketItem(id)
	if err != nil {
		return fmt.Errorf("fetch market item: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	if existing.OwnerID != user.ID {
		return ErrUnauthorized
	}
	if err := a.store.DeleteMarketItem(id); err != nil {
		return fmt.Errorf("delete market item: %w", err)
	}
	a.deleteAsset(ctx, storage.AssetRef{URL: existing.AssetURL, Key: existing.StorageKey}, "record deleted")
	a.hub.Notify(feed.CollectionMarketItems)
	return nil
}

// GetMarketItem returns a single supply listing with the seller contact attached.
func (a *App) GetMarketItem(ctx context.Context, id string) (domain.MarketItem, error) {
	item, found, err := a.store.GetMarketItem(id)
	if err != nil {
		return domain.MarketItem{}, fmt.Errorf("fetch market item: %w", err)
	}
	if !found {
		return domain.MarketItem{}, ErrNotFound
	}
	contacts := a.contacts.Contacts(ctx, []string{item.OwnerID})
	item.SellerContact = contacts[item.OwnerID]
	return item, nil
}

// ListMarketItems returns supply listings, newest first, optionally filtered
// by category, with seller contacts attached.
func (a *App) ListMarketItems(ctx context.Context, category domain.MarketCategory) ([]domain.MarketItem, error) {
	if category != "" && !domain.ValidMarketCategory(category) {
		return nil, invalidField("category", "unknown category")
	}
	items, err := a.store.ListMarketItems(category)
	if err != nil {
		return nil, fmt.Errorf("list market items: %w", err)
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].OwnerID
	}
	contacts := a.contacts.Contacts(ctx, ids)
	for i := range items {
		items[i].SellerContact = contacts[items[i].OwnerID]
	}
	return items, nil
}

func conditionFor(in MarketItemInput) domain.ItemCondition {
	if in.Category == domain.CategoryEquipment {
		return in.Condition
	}
	return ""
}

// requireFarmer gates produce and inventory operations on the farmer flag.
func (a *App) requireFarmer(user domain.User) error {
	profile, found, err := a.store.GetProfile(user.ID)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}
	if !found || !profile.IsFarmer {
		return ErrFarmerOnly
	}
	return nil
}
