// Package inventory looks up spare parts in a remote catalog with a local fallback.
package inventory

import (
	"context"
	_ "embed"
	"errors"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrPartNotFound is returned when a catalog has no part with the requested number.
var ErrPartNotFound = errors.New("part not found")

// Part is a catalog entry.
type Part struct {
	PartNumber  string  `json:"partNumber" yaml:"partNumber"`
	Name        string  `json:"name" yaml:"name"`
	Category    string  `json:"category" yaml:"category"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Stock       int     `json:"stock" yaml:"stock"`
	MinStock    int     `json:"-" yaml:"minStock"`
	Unit        string  `json:"unit" yaml:"unit"`
}

// Catalog is a source of parts.
type Catalog interface {
	Search(ctx context.Context, query string) ([]Part, error)
	Part(ctx context.Context, partNumber string) (*Part, error)
	Categories(ctx context.Context) ([]string, error)
	PartsByCategory(ctx context.Context, category string) ([]Part, error)
}

//go:embed catalog.yaml
var embeddedCatalog []byte

type catalogFile struct {
	Parts []Part `yaml:"parts"`
}

// LocalCatalog is an in-memory catalog keyed by uppercased part number.
type LocalCatalog struct {
	parts  []Part
	byCode map[string]Part
}

// NewLocalCatalog loads the embedded catalog.
func NewLocalCatalog() (*LocalCatalog, error) {
	return ParseCatalog(embeddedCatalog)
}

// ParseCatalog builds a LocalCatalog from a YAML document with a top-level parts list.
func ParseCatalog(data []byte) (*LocalCatalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := &LocalCatalog{byCode: make(map[string]Part, len(f.Parts))}
	for _, p := range f.Parts {
		p.PartNumber = strings.ToUpper(p.PartNumber)
		if _, dup := c.byCode[p.PartNumber]; dup {
			return nil, errors.New("duplicate part number " + p.PartNumber)
		}
		c.byCode[p.PartNumber] = p
		c.parts = append(c.parts, p)
	}
	return c, nil
}

// Parts returns every part in catalog order.
func (c *LocalCatalog) Parts() []Part {
	return append([]Part(nil), c.parts...)
}

// Search matches name, part number, category or description, ignoring case.
func (c *LocalCatalog) Search(_ context.Context, query string) ([]Part, error) {
	q := strings.ToLower(query)
	out := []Part{}
	for _, p := range c.parts {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.PartNumber), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Part looks a part up by number, ignoring case.
func (c *LocalCatalog) Part(_ context.Context, partNumber string) (*Part, error) {
	p, ok := c.byCode[strings.ToUpper(strings.TrimSpace(partNumber))]
	if !ok {
		return nil, ErrPartNotFound
	}
	return &p, nil
}

// Categories returns the distinct categories, sorted.
func (c *LocalCatalog) Categories(context.Context) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range c.parts {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// PartsByCategory returns the parts in category, ignoring case.
func (c *LocalCatalog) PartsByCategory(_ context.Context, category string) ([]Part, error) {
	out := []Part{}
	for _, p := range c.parts {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out, nil
}
