package storage

import (
	"net/url"
	"strings"
)

// AssetRef is a durable reference to a stored object: the dereferenceable
// URL plus the storage key it was written under. The key is stored alongside
// the URL so deletion never depends on parsing the URL back apart.
type AssetRef struct {
	URL string
	Key string
}

// IsZero reports whether the reference is empty.
func (a AssetRef) IsZero() bool {
	return a.URL == "" && a.Key == ""
}

// ResolveKey returns the storage key for the reference, falling back to
// URL parsing for records written before keys were stored explicitly.
func (a AssetRef) ResolveKey() (string, bool) {
	if a.Key != "" {
		return a.Key, true
	}
	return ParseAssetURL(a.URL)
}

// ParseAssetURL recovers a storage key from an asset URL whose path carries
// the key as a percent-encoded segment after "/o/". Malformed or foreign
// URLs yield ok=false; this never panics.
func ParseAssetURL(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	_, encoded, found := strings.Cut(u.EscapedPath(), "/o/")
	if !found {
		return "", false
	}
	if i := strings.IndexByte(encoded, '?'); i >= 0 {
		encoded = encoded[:i]
	}
	key, err := url.PathUnescape(encoded)
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
