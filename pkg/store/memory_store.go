package store

import (
	"sort"
	"sync"

	"farmconnect/pkg/domain"
)

// MemoryStore keeps all records in-process. It is used by tests and by
// local development without Postgres.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	email     map[string]string // email -> user ID
	profiles  map[string]domain.Profile
	produce   map[string]domain.ProduceListing
	items     map[string]domain.MarketItem
	inventory map[string]domain.InventoryItem
	seq       map[string]int // record ID -> insertion order
	nextSeq   int
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.User),
		email:     make(map[string]string),
		profiles:  make(map[string]domain.Profile),
		produce:   make(map[string]domain.ProduceListing),
		items:     make(map[string]domain.MarketItem),
		inventory: make(map[string]domain.InventoryItem),
		seq:       make(map[string]int),
	}
}

func (m *MemoryStore) track(id string) {
	if _, ok := m.seq[id]; !ok {
		m.nextSeq++
		m.seq[id] = m.nextSeq
	}
}

// newestFirst orders by CreatedAt descending with insertion order as the
// tiebreak, matching the SQL "created_at DESC" ordering.
func (m *MemoryStore) newestFirst(ids []string, createdAtOf func(string) int64) {
	sort.SliceStable(ids, func(i, j int) bool {
		ci, cj := createdAtOf(ids[i]), createdAtOf(ids[j])
		if ci != cj {
			return ci > cj
		}
		return m.seq[ids[i]] > m.seq[ids[j]]
	})
}

// SaveUser stores or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.users[u.ID]; ok && prev.Email != u.Email {
		delete(m.email, prev.Email)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	user, ok := m.users[id]
	return user, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	return user, ok, nil
}

// SaveProfile stores or replaces a profile.
func (m *MemoryStore) SaveProfile(p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
	return nil
}

// GetProfile returns the profile keyed by user ID.
func (m *MemoryStore) GetProfile(userID string) (domain.Profile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	return p, ok, nil
}

// SaveProduceListing stores or replaces a produce listing.
func (m *MemoryStore) SaveProduceListing(l domain.ProduceListing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track(l.ID)
	m.produce[l.ID] = l
	return nil
}

// GetProduceListing retrieves one listing.
func (m *MemoryStore) GetProduceListing(id string) (domain.ProduceListing, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.produce[id]
	return l, ok, nil
}

// ListProduceListings returns all listings, newest first.
func (m *MemoryStore) ListProduceListings() ([]domain.ProduceListing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.produce))
	for id := range m.produce {
		ids = append(ids, id)
	}
	m.newestFirst(ids, func(id string) int64 { return m.produce[id].CreatedAt.UnixNano() })
	res := make([]domain.ProduceListing, 0, len(ids))
	for _, id := range ids {
		res = append(res, m.produce[id])
	}
	return res, nil
}

// DeleteProduceListing removes a listing.
func (m *MemoryStore) DeleteProduceListing(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.produce, id)
	return nil
}

// SaveMarketItem stores or replaces a market item.
func (m *MemoryStore) SaveMarketItem(item domain.MarketItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track(item.ID)
	m.items[item.ID] = item
	return nil
}

// GetMarketItem retrieves one market item.
func (m *MemoryStore) GetMarketItem(id string) (domain.MarketItem, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	return item, ok, nil
}

// ListMarketItems returns items newest first, optionally filtered by category.
func (m *MemoryStore) ListMarketItems(category domain.MarketCategory) ([]domain.MarketItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.items))
	for id, item := range m.items {
		if category != "" && item.Category != category {
			continue
		}
		ids = append(ids, id)
	}
	m.newestFirst(ids, func(id string) int64 { return m.items[id].CreatedAt.UnixNano() })
	res := make([]domain.MarketItem, 0, len(ids))
	for _, id := range ids {
		res = append(res, m.items[id])
	}
	return res, nil
}

// DeleteMarketItem removes a market item.
func (m *MemoryStore) DeleteMarketItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// SaveInventoryItem stores or replaces an inventory item.
func (m *MemoryStore) SaveInventoryItem(item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track(item.ID)
	m.inventory[item.ID] = item
	return nil
}

// GetInventoryItem retrieves one inventory item.
func (m *MemoryStore) GetInventoryItem(id string) (domain.InventoryItem, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.inventory[id]
	return item, ok, nil
}

// ListInventoryByOwner returns a farmer's inventory, newest first.
func (m *MemoryStore) ListInventoryByOwner(ownerID string) ([]domain.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.inventory))
	for id, item := range m.inventory {
		if item.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	m.newestFirst(ids, func(id string) int64 { return m.inventory[id].CreatedAt.UnixNano() })
	res := make([]domain.InventoryItem, 0, len(ids))
	for _, id := range ids {
		res = append(res, m.inventory[id])
	}
	return res, nil
}

// DeleteInventoryItem removes an inventory item.
func (m *MemoryStore) DeleteInventoryItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inventory, id)
	return nil
}
