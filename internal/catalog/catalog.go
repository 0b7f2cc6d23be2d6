// Package catalog serves the storefront product list.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"pharmacy-api/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var defaultProducts []byte

type Catalog struct {
	products []models.Product
	byID     map[string]models.Product
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	Category string
	Query    string
}

// Load reads the catalog from path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultProducts
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var products []models.Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(products)
}

func New(products []models.Product) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]models.Product, len(products))}
	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog product %q has no id", p.Name)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog product %s has negative price", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog product %s", p.ID)
		}
		c.byID[p.ID] = p
		c.products = append(c.products, p)
	}
	sort.Slice(c.products, func(i, j int) bool { return c.products[i].Name < c.products[j].Name })
	return c, nil
}

func (c *Catalog) Product(id string) (models.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) List(f Filter) []models.Product {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}
