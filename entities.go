package loupe

import "fmt"

// Entity kinds and their one-letter wire abbreviations used in the result
// order record.
const (
	kindProduct      = "p"
	kindCategory     = "c"
	kindManufacturer = "m"
	kindBrand        = "b"
	kindTag          = "t"
)

// Product is a sellable item. Prices are integer minor units (cents).
type Product struct {
	ID           string
	EAN          string
	Name         string
	Slug         string
	Description  string
	Price        int
	ReducedPrice int
	Currency     string
	Rating       float64
	Stock        int
	Coordinate   *Coordinate
	Metadata     map[string]any
}

// ComposedID returns the composite "product~<id>" identity.
func (p Product) ComposedID() string { return "product~" + p.ID }

// ToMap encodes the product as a wire map.
func (p Product) ToMap() map[string]any {
	m := map[string]any{
		"id":   p.ID,
		"name": p.Name,
	}
	if p.EAN != "" {
		m["ean"] = p.EAN
	}
	if p.Slug != "" {
		m["slug"] = p.Slug
	}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if p.Price != 0 {
		m["price"] = p.Price
	}
	if p.ReducedPrice != 0 {
		m["reduced_price"] = p.ReducedPrice
	}
	if p.Currency != "" {
		m["currency"] = p.Currency
	}
	if p.Rating != 0 {
		m["rating"] = p.Rating
	}
	if p.Stock != 0 {
		m["stock"] = p.Stock
	}
	if p.Coordinate != nil {
		m["coordinate"] = p.Coordinate.ToMap()
	}
	if len(p.Metadata) > 0 {
		m["metadata"] = p.Metadata
	}
	return m
}

// ProductFromMap decodes a product from a wire map.
func ProductFromMap(m map[string]any) (Product, error) {
	id, ok := mapString(m, "id")
	if !ok {
		return Product{}, fmt.Errorf("%w: product: missing id", ErrInvalidFormat)
	}
	p := Product{ID: id}
	p.Name, _ = mapString(m, "name")
	p.EAN, _ = mapString(m, "ean")
	p.Slug, _ = mapString(m, "slug")
	p.Description, _ = mapString(m, "description")
	p.Price, _ = mapInt(m, "price")
	p.ReducedPrice, _ = mapInt(m, "reduced_price")
	p.Currency, _ = mapString(m, "currency")
	p.Rating, _ = mapFloat(m, "rating")
	p.Stock, _ = mapInt(m, "stock")
	if cm, ok := mapMap(m, "coordinate"); ok {
		c, err := CoordinateFromMap(cm)
		if err != nil {
			return Product{}, fmt.Errorf("product %q: %w", id, err)
		}
		p.Coordinate = &c
	}
	if md, ok := mapMap(m, "metadata"); ok {
		p.Metadata = md
	}
	return p, nil
}

// Category is a product category node, possibly part of a hierarchy.
type Category struct {
	ID    string
	Name  string
	Slug  string
	Level int
}

// ComposedID returns the composite "category~<id>" identity.
func (c Category) ComposedID() string { return "category~" + c.ID }

// ToMap encodes the category as a wire map.
func (c Category) ToMap() map[string]any {
	m := map[string]any{
		"id":   c.ID,
		"name": c.Name,
	}
	if c.Slug != "" {
		m["slug"] = c.Slug
	}
	if c.Level != 0 {
		m["level"] = c.Level
	}
	return m
}

// CategoryFromMap decodes a category from a wire map.
func CategoryFromMap(m map[string]any) (Category, error) {
	id, ok := mapString(m, "id")
	if !ok {
		return Category{}, fmt.Errorf("%w: category: missing id", ErrInvalidFormat)
	}
	c := Category{ID: id}
	c.Name, _ = mapString(m, "name")
	c.Slug, _ = mapString(m, "slug")
	c.Level, _ = mapInt(m, "level")
	return c, nil
}

// Manufacturer is a producing company.
type Manufacturer struct {
	ID   string
	Name string
	Slug string
}

// ComposedID returns the composite "manufacturer~<id>" identity.
func (m Manufacturer) ComposedID() string { return "manufacturer~" + m.ID }

// ToMap encodes the manufacturer as a wire map.
func (m Manufacturer) ToMap() map[string]any {
	out := map[string]any{
		"id":   m.ID,
		"name": m.Name,
	}
	if m.Slug != "" {
		out["slug"] = m.Slug
	}
	return out
}

// ManufacturerFromMap decodes a manufacturer from a wire map.
func ManufacturerFromMap(m map[string]any) (Manufacturer, error) {
	id, ok := mapString(m, "id")
	if !ok {
		return Manufacturer{}, fmt.Errorf("%w: manufacturer: missing id", ErrInvalidFormat)
	}
	mf := Manufacturer{ID: id}
	mf.Name, _ = mapString(m, "name")
	mf.Slug, _ = mapString(m, "slug")
	return mf, nil
}

// Brand is a commercial brand.
type Brand struct {
	ID   string
	Name string
	Slug string
}

// ComposedID returns the composite "brand~<id>" identity.
func (b Brand) ComposedID() string { return "brand~" + b.ID }

// ToMap encodes the brand as a wire map.
func (b Brand) ToMap() map[string]any {
	m := map[string]any{
		"id":   b.ID,
		"name": b.Name,
	}
	if b.Slug != "" {
		m["slug"] = b.Slug
	}
	return m
}

// BrandFromMap decodes a brand from a wire map.
func BrandFromMap(m map[string]any) (Brand, error) {
	id, ok := mapString(m, "id")
	if !ok {
		return Brand{}, fmt.Errorf("%w: brand: missing id", ErrInvalidFormat)
	}
	b := Brand{ID: id}
	b.Name, _ = mapString(m, "name")
	b.Slug, _ = mapString(m, "slug")
	return b, nil
}

// Tag is a free-form label. Its name is its identity.
type Tag struct {
	Name string
}

// ComposedID returns the composite "tag~<name>" identity.
func (t Tag) ComposedID() string { return "tag~" + t.Name }

// ToMap encodes the tag as a wire map.
func (t Tag) ToMap() map[string]any {
	return map[string]any{"name": t.Name}
}

// TagFromMap decodes a tag from a wire map.
func TagFromMap(m map[string]any) (Tag, error) {
	name, ok := mapString(m, "name")
	if !ok {
		return Tag{}, fmt.Errorf("%w: tag: missing name", ErrInvalidFormat)
	}
	return Tag{Name: name}, nil
}
