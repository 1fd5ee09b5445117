package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmconnect/internal/util"
	"farmconnect/pkg/domain"
	"farmconnect/pkg/feed"
)

// InventoryItemInput carries the fields of a private farm-stock record.
type InventoryItemInput struct {
	ItemName     string
	ItemType     domain.InventoryItemType
	Quantity     string
	Unit         string
	PurchaseDate *time.Time
	Notes        string
}

func (in InventoryItemInput) validate() error {
	if strings.TrimSpace(in.ItemName) == "" {
		return invalidField("itemName", "required")
	}
	if !domain.ValidInventoryItemType(in.ItemType) {
		return invalidField("itemType", "unknown item type")
	}
	if strings.TrimSpace(in.Quantity) == "" {
		return invalidField("quantity", "required")
	}
	return nil
}

// CreateInventoryItem adds a stock record to the caller's farm inventory.
func (a *App) CreateInventoryItem(ctx context.Context, user domain.User, in InventoryItemInput) (domain.InventoryItem, error) {
	if err := a.requireFarmer(user); err != nil {
		return domain.InventoryItem{}, err
	}
	if err := in.validate(); err != nil {
		return domain.InventoryItem{}, err
	}
	now := time.Now().UTC()
	item := domain.InventoryItem{
		ID:           util.NewID(),
		OwnerID:      user.ID,
		ItemName:     strings.TrimSpace(in.ItemName),
		ItemType:     in.ItemType,
		Quantity:     strings.TrimSpace(in.Quantity),
		Unit:         strings.TrimSpace(in.Unit),
		PurchaseDate: in.PurchaseDate,
		Notes:        strings.TrimSpace(in.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveInventoryItem(item); err != nil {
		return domain.InventoryItem{}, fmt.Errorf("save inventory item: %w", err)
	}
	a.hub.Notify(feed.CollectionFarmInventories)
	return item, nil
}

// UpdateInventoryItem rewrites an owned stock record.
func (a *App) UpdateInventoryItem(ctx context.Context, user domain.User, id string, in InventoryItemInput) (domain.InventoryItem, error) {
	if err := a.requireFarmer(user); err != nil {
		return domain.InventoryItem{}, err
	}
	existing, found, err := a.store.GetInventoryItem(id)
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("fetch inventory item: %w", err)
	}
	if !found {
		return domain.InventoryItem{}, ErrNotFound
	}
	if existing.OwnerID != user.ID {
		return domain.InventoryItem{}, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return domain.InventoryItem{}, err
	}
	item := existing
	item.ItemName = strings.TrimSpace(in.ItemName)
	item.ItemType = in.ItemType
	item.Quantity = strings.TrimSpace(in.Quantity)
	item.Unit = strings.TrimSpace(in.Unit)
	item.PurchaseDate = in.PurchaseDate
	item.Notes = strings.TrimSpace(in.Notes)
	item.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveInventoryItem(item); err != nil {
		return domain.InventoryItem{}, fmt.Errorf("save inventory item: %w", err)
	}
	a.hub.Notify(feed.CollectionFarmInventories)
	return item, nil
}

// DeleteInventoryItem removes an owned stock record.
func (a *App) DeleteInventoryItem(ctx context.Context, user domain.User, id string) error {
	existing, found, err := a.store.GetInventoryItem(id)
	if err != nil {
		return fmt.Errorf("fetch inventory item: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	if existing.OwnerID != user.ID {
		return ErrUnauthorized
	}
	if err := a.store.DeleteInventoryItem(id); err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}
	a.hub.Notify(feed.CollectionFarmInventories)
	return nil
}

// ListInventory returns the caller's own stock records, newest first.
func (a *App) ListInventory(ctx context.Context, user domain.User) ([]domain.InventoryItem, error) {
	if err := a.requireFarmer(user); err != nil {
		return nil, err
	}
	items, err := a.store.ListInventoryByOwner(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}
