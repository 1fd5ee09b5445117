package app

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"farmconnect/internal/util"
	"farmconnect/pkg/store"
)

const contactFetchConcurrency = 4

// ContactDirectory resolves seller contact details for listing feeds. Lookups
// are cached with a TTL so hot feeds do not hammer the store, and resolution
// failures degrade to listings without contact details rather than erroring.
type ContactDirectory struct {
	store store.Store
	cache *cache.Cache
}

func NewContactDirectory(s store.Store) *ContactDirectory {
	return &ContactDirectory{
		store: s,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Contacts returns the best contact string per owner ID. Owners that cannot
// be resolved are simply absent from the result.
func (d *ContactDirectory) Contacts(ctx context.Context, ownerIDs []string) map[string]string {
	out := make(map[string]string, len(ownerIDs))
	var unseen []string
	seen := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if contact, ok := d.cache.Get(id); ok {
			out[id] = contact.(string)
			continue
		}
		unseen = append(unseen, id)
	}
	if len(unseen) == 0 {
		return out
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(contactFetchConcurrency)
	for _, id := range unseen {
		id := id
		g.Go(func() error {
			contact, err := d.resolve(id)
			if err != nil {
				util.LoggerFromContext(ctx).Debug("contact lookup failed", "owner_id", id, "error", err)
				return nil
			}
			d.cache.SetDefault(id, contact)
			mu.Lock()
			out[id] = contact
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// resolve prefers the profile's stated contact preference and falls back to
// the account email.
func (d *ContactDirectory) resolve(ownerID string) (string, error) {
	profile, found, err := d.store.GetProfile(ownerID)
	if err != nil {
		return "", err
	}
	if found && profile.PreferredContact != "" {
		return profile.PreferredContact, nil
	}
	user, found, err := d.store.GetUserByID(ownerID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return user.Email, nil
}
