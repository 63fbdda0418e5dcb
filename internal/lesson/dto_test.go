// AngelaMos | 2026
// dto_test.go

package lesson

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParamsNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        ListParams
		wantPage  int
		wantLimit int
	}{
		{"defaults", ListParams{}, 1, defaultPageLimit},
		{"negative page", ListParams{Page: -4, Limit: 5}, 1, 5},
		{"limit capped", ListParams{Page: 2, Limit: 5000}, 2, maxPageLimit},
		{"huge page clamped", ListParams{Page: math.MaxInt, Limit: maxPageLimit}, maxPage, maxPageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()

			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.GreaterOrEqual(t, p.Offset(), 0)
			assert.LessOrEqual(t, p.Offset(), math.MaxInt32)
		})
	}
}

func TestListParamsIgnoresPlaceholderFilters(t *testing.T) {
	p := ListParams{Category: "undefined", EmotionalTone: "null", Search: "  grief  "}
	p.Normalize()

	assert.Empty(t, p.Category)
	assert.Empty(t, p.EmotionalTone)
	assert.Equal(t, "grief", p.Search)
}
