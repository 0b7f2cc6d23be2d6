package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"pharmacy-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	p, ok := c.Product("amoxicillin-500")
	require.True(t, ok)
	assert.True(t, p.RequiresPrescription)
	assert.True(t, p.InStock)

	_, ok = c.Product("unknown")
	assert.False(t, ok)

	all := c.List(Filter{})
	assert.Len(t, all, 10)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name)
	}
}

func TestListFilters(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"category", Filter{Category: "Antibiotics"}, []string{"amoxicillin-500", "azithromycin-250"}},
		{"query name", Filter{Query: "vitamin"}, []string{"vitamin-c-1000", "vitamin-d3-1000"}},
		{"query description", Filter{Query: "antihistamine"}, []string{"cetirizine-10"}},
		{"both", Filter{Category: "pain-relief", Query: "ibu"}, []string{"ibuprofen-200"}},
		{"none", Filter{Category: "cosmetics"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range c.List(tt.filter) {
				got = append(got, p.ID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: aspirin-75
  name: Aspirin 75mg
  category: cardio
  price: 2.10
  in_stock: true
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.List(Filter{}), 1)
}

func TestNewRejectsBadProducts(t *testing.T) {
	_, err := New([]models.Product{{Name: "nameless"}})
	assert.Error(t, err)

	_, err = New([]models.Product{{ID: "a", Price: -1}})
	assert.Error(t, err)

	_, err = New([]models.Product{{ID: "a"}, {ID: "a"}})
	assert.Error(t, err)

	_, err = Parse([]byte("not: [valid"))
	assert.Error(t, err)
}
