package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/contract_manager/internal/domain"
)

func TestNewPagedResponse(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		total     int64
		page      int
		size      int
		wantPages int
	}{
		{name: "exact division", items: []string{"a", "b"}, total: 100, page: 1, size: 20, wantPages: 5},
		{name: "partial last page", items: []string{"a"}, total: 101, page: 6, size: 20, wantPages: 6},
		{name: "single page", items: []string{"a", "b", "c"}, total: 3, page: 1, size: 20, wantPages: 1},
		{name: "empty result", items: []string{}, total: 0, page: 1, size: 20, wantPages: 0},
		{name: "zero size", items: []string{}, total: 10, page: 1, size: 0, wantPages: 0},
		{name: "negative size", items: []string{}, total: 10, page: 1, size: -5, wantPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := domain.NewPagedResponse(tt.items, tt.total, tt.page, tt.size)

			assert.Equal(t, tt.wantPages, resp.Pages)
			assert.Equal(t, tt.total, resp.Total)
			assert.Equal(t, tt.page, resp.Page)
			assert.Equal(t, tt.size, resp.Size)
			assert.Equal(t, tt.items, resp.Items)
		})
	}
}

func TestNewPagedResponseNilItems(t *testing.T) {
	resp := domain.NewPagedResponse[string](nil, 0, 1, 20)

	require.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)

	// Пустая страница сериализуется как [], а не null
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"total":0,"page":1,"size":20,"pages":0}`, string(data))
}
