package storage

import "testing"

func TestParseAssetURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		key  string
		ok   bool
	}{
		{
			name: "plain key",
			url:  "https://assets.example.com/farm-media/o/produce_images%2Fuser-1%2F17000_apples.jpg",
			key:  "produce_images/user-1/17000_apples.jpg",
			ok:   true,
		},
		{
			name: "query suffix",
			url:  "https://assets.example.com/farm-media/o/market_item_images%2Fu%2Fplow.png?alt=media&token=abc",
			key:  "market_item_images/u/plow.png",
			ok:   true,
		},
		{
			name: "foreign url without marker",
			url:  "https://cdn.example.com/images/plow.png",
			ok:   false,
		},
		{
			name: "empty",
			url:  "",
			ok:   false,
		},
		{
			name: "whitespace only",
			url:  "   ",
			ok:   false,
		},
		{
			name: "marker but empty key",
			url:  "https://assets.example.com/bucket/o/",
			ok:   false,
		},
		{
			name: "unparsable",
			url:  "http://bad url with spaces/o/x",
			ok:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := ParseAssetURL(tc.url)
			if ok != tc.ok {
				t.Fatalf("ParseAssetURL(%q) ok = %v, want %v", tc.url, ok, tc.ok)
			}
			if ok && key != tc.key {
				t.Fatalf("ParseAssetURL(%q) key = %q, want %q", tc.url, key, tc.key)
			}
		})
	}
}

func TestResolveKeyPrefersStoredKey(t *testing.T) {
	ref := AssetRef{
		URL: "https://assets.example.com/farm-media/o/produce_images%2Fu%2Fa.jpg",
		Key: "produce_images/u/b.jpg",
	}
	key, ok := ref.ResolveKey()
	if !ok || key != "produce_images/u/b.jpg" {
		t.Fatalf("ResolveKey = %q, %v; want stored key", key, ok)
	}

	ref.Key = ""
	key, ok = ref.ResolveKey()
	if !ok || key != "produce_images/u/a.jpg" {
		t.Fatalf("ResolveKey fallback = %q, %v; want parsed key", key, ok)
	}
}
