package schedule

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogTemplate is one named template in a YAML catalog.
type CatalogTemplate struct {
	Code        string          `yaml:"code"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	ProductType ProductType     `yaml:"product_type"`
	Default     bool            `yaml:"default"`
	Entries     []TemplateEntry `yaml:"entries"`
}

// Catalog is the on-disk template catalog.
type Catalog struct {
	Templates []CatalogTemplate `yaml:"templates"`
}

// BuiltinCatalog returns the catalog compiled into the binary.
func BuiltinCatalog() *Catalog {
	return &Catalog{Templates: []CatalogTemplate{
		{
			Code:        "ecr-16",
			Name:        "ECR 16-week launch",
			Description: "Standard ECR launch window",
			ProductType: ProductTypeLaunch,
			Default:     true,
			Entries:     DefaultLaunchTemplate(),
		},
		{
			Code:        "delisting",
			Name:        "Delisting",
			Description: "Validoo delisting process",
			ProductType: ProductTypeDelisting,
			Default:     true,
			Entries:     DelistingTemplate(),
		},
	}}
}

// LoadCatalog decodes and validates a YAML catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalogFile reads a catalog from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Validate checks codes, product types and entry ids.
func (c *Catalog) Validate() error {
	if len(c.Templates) == 0 {
		return errors.New("catalog has no templates")
	}
	codes := make(map[string]bool)
	for _, t := range c.Templates {
		if t.Code == "" {
			return errors.New("template without code")
		}
		if codes[t.Code] {
			return fmt.Errorf("duplicate template code %q", t.Code)
		}
		codes[t.Code] = true
		if !t.ProductType.Valid() {
			return fmt.Errorf("template %s: unknown product type %q", t.Code, t.ProductType)
		}
		ids := make(map[string]bool)
		for _, e := range t.Entries {
			if e.ID == "" || e.Name == "" {
				return fmt.Errorf("template %s: entry needs id and name", t.Code)
			}
			if ids[e.ID] {
				return fmt.Errorf("template %s: duplicate entry id %q", t.Code, e.ID)
			}
			ids[e.ID] = true
		}
	}
	return nil
}

// Find returns the default template for a product type, falling back to the
// first template of that type.
func (c *Catalog) Find(t ProductType) (CatalogTemplate, bool) {
	var first *CatalogTemplate
	for i := range c.Templates {
		tmpl := &c.Templates[i]
		if tmpl.ProductType != t {
			continue
		}
		if tmpl.Default {
			return *tmpl, true
		}
		if first == nil {
			first = tmpl
		}
	}
	if first != nil {
		return *first, true
	}
	return CatalogTemplate{}, false
}
