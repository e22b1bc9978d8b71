package httputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		name         string
		total, page  int
		limit        int
		wantPages    int
		wantHasNext  bool
		wantHasPrev  bool
	}{
		{"middle page", 25, 2, 10, 3, true, true},
		{"first page", 25, 1, 10, 3, true, false},
		{"last page", 25, 3, 10, 3, false, true},
		{"exact fit", 20, 2, 10, 2, false, true},
		{"empty", 0, 1, 10, 0, false, false},
		{"single row", 1, 1, 50, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := NewPageMeta(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.total, meta.Total)
			assert.Equal(t, tt.wantPages, meta.TotalPages)
			assert.Equal(t, tt.wantHasNext, meta.HasNext)
			assert.Equal(t, tt.wantHasPrev, meta.HasPrev)
			assert.Equal(t, tt.page, meta.CurrentPage)
		})
	}
}
