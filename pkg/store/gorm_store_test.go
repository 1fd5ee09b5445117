package store

import (
	"slices"
	"testing"
)

// The conflict-update column lists drive which fields a re-save actually
// rewrites under Postgres; a column left out silently goes stale on update.
func TestListingUpdateColumnsCoverMutableFields(t *testing.T) {
	cases := []struct {
		name    string
		columns []string
		want    []string
	}{
		{
			name:    "produce",
			columns: produceUpdateColumns,
			want: []string{
				"owner_display_name", "produce_name", "description", "price",
				"quantity", "asset_url", "storage_key", "updated_at",
			},
		},
		{
			name:    "market item",
			columns: marketItemUpdateColumns,
			want: []string{
				"owner_display_name", "item_name", "description", "category",
				"condition", "price", "asset_url", "storage_key", "updated_at",
			},
		},
	}
	for _, tc := range cases {
		for _, col := range tc.want {
			if !slices.Contains(tc.columns, col) {
				t.Errorf("%s update columns missing %q", tc.name, col)
			}
		}
		for _, col := range []string{"id", "owner_id", "created_at"} {
			if slices.Contains(tc.columns, col) {
				t.Errorf("%s update columns must not rewrite immutable %q", tc.name, col)
			}
		}
	}
}
