package loupe

import "fmt"

// resultPosition records one slot of the engine's relevance order: which
// entity kind and which composite identity occupies it.
type resultPosition struct {
	kind     string
	identity string
}

// Result reconstructs the engine's answer: total counts, five per-kind
// entity collections, the cross-kind relevance order, and the computed
// aggregations. Entities are added in relevance order via the Add methods;
// the result is read-only afterwards.
//
// Relevance order is a total order across independently keyed collections,
// so it is tracked as a side sequence of (kind, identity) pairs and resolved
// against the per-kind maps on read.
type Result struct {
	totalElements int
	totalProducts int
	totalHits     int
	minPrice      int
	maxPrice      int

	products      map[string]Product
	categories    map[string]Category
	manufacturers map[string]Manufacturer
	brands        map[string]Brand
	tags          map[string]Tag

	order        []resultPosition
	aggregations *ResultAggregations
}

// NewResult creates a result with its five totals.
func NewResult(totalElements, totalProducts, totalHits, minPrice, maxPrice int) *Result {
	return &Result{
		totalElements: totalElements,
		totalProducts: totalProducts,
		totalHits:     totalHits,
		minPrice:      minPrice,
		maxPrice:      maxPrice,
		products:      make(map[string]Product),
		categories:    make(map[string]Category),
		manufacturers: make(map[string]Manufacturer),
		brands:        make(map[string]Brand),
		tags:          make(map[string]Tag),
	}
}

// record appends an order slot unless the identity was already recorded for
// that kind. Re-adding an identity overwrites the stored entity but keeps
// its original relevance position, so the order record length always equals
// the sum of the per-kind collection sizes.
func (r *Result) record(kind, identity string, exists bool) {
	if exists {
		return
	}
	r.order = append(r.order, resultPosition{kind: kind, identity: identity})
}

// AddProduct records a product at the next relevance position.
func (r *Result) AddProduct(p Product) {
	id := p.ComposedID()
	_, exists := r.products[id]
	r.record(kindProduct, id, exists)
	r.products[id] = p
}

// AddCategory records a category at the next relevance position.
func (r *Result) AddCategory(c Category) {
	id := c.ComposedID()
	_, exists := r.categories[id]
	r.record(kindCategory, id, exists)
	r.categories[id] = c
}

// AddManufacturer records a manufacturer at the next relevance position.
func (r *Result) AddManufacturer(m Manufacturer) {
	id := m.ComposedID()
	_, exists := r.manufacturers[id]
	r.record(kindManufacturer, id, exists)
	r.manufacturers[id] = m
}

// AddBrand records a brand at the next relevance position.
func (r *Result) AddBrand(b Brand) {
	id := b.ComposedID()
	_, exists := r.brands[id]
	r.record(kindBrand, id, exists)
	r.brands[id] = b
}

// AddTag records a tag at the next relevance position.
func (r *Result) AddTag(t Tag) {
	id := t.ComposedID()
	_, exists := r.tags[id]
	r.record(kindTag, id, exists)
	r.tags[id] = t
}

// Items returns every entity in the engine's relevance order, resolved
// across all five kinds.
func (r *Result) Items() []Item {
	items := make([]Item, 0, len(r.order))
	for _, pos := range r.order {
		switch pos.kind {
		case kindProduct:
			items = append(items, r.products[pos.identity])
		case kindCategory:
			items = append(items, r.categories[pos.identity])
		case kindManufacturer:
			items = append(items, r.manufacturers[pos.identity])
		case kindBrand:
			items = append(items, r.brands[pos.identity])
		case kindTag:
			items = append(items, r.tags[pos.identity])
		}
	}
	return items
}

// Products returns the product collection keyed by composite identity.
func (r *Result) Products() map[string]Product { return r.products }

// Categories returns the category collection keyed by composite identity.
func (r *Result) Categories() map[string]Category { return r.categories }

// Manufacturers returns the manufacturer collection keyed by composite identity.
func (r *Result) Manufacturers() map[string]Manufacturer { return r.manufacturers }

// Brands returns the brand collection keyed by composite identity.
func (r *Result) Brands() map[string]Brand { return r.brands }

// Tags returns the tag collection keyed by composite identity.
func (r *Result) Tags() map[string]Tag { return r.tags }

// TotalElements returns the number of entities of all kinds matched.
func (r *Result) TotalElements() int { return r.totalElements }

// TotalProducts returns the number of products matched.
func (r *Result) TotalProducts() int { return r.totalProducts }

// TotalHits returns the raw engine hit count.
func (r *Result) TotalHits() int { return r.totalHits }

// MinPrice returns the lowest product price in the full match set.
func (r *Result) MinPrice() int { return r.minPrice }

// MaxPrice returns the highest product price in the full match set.
func (r *Result) MaxPrice() int { return r.maxPrice }

// SetAggregations attaches the computed aggregations. Called once during
// reconstruction.
func (r *Result) SetAggregations(a *ResultAggregations) {
	r.aggregations = a
}

// Aggregations returns the computed aggregation bag, nil when the response
// carried none.
func (r *Result) Aggregations() *ResultAggregations { return r.aggregations }

// GetAggregation returns a named computed aggregation. The second result is
// false for unknown names; a lookup miss is not an error.
func (r *Result) GetAggregation(name string) (ResultAggregation, bool) {
	if r.aggregations == nil {
		return ResultAggregation{}, false
	}
	return r.aggregations.Get(name)
}

// ToMap encodes the result as a wire map: totals, per-kind entity maps keyed
// by composite identity, the relevance order as [kind, identity] pairs, and
// the aggregations. Empty collections are omitted.
func (r *Result) ToMap() map[string]any {
	m := map[string]any{
		"total_elements": r.totalElements,
		"total_products": r.totalProducts,
		"total_hits":     r.totalHits,
		"min_price":      r.minPrice,
		"max_price":      r.maxPrice,
	}
	if len(r.products) > 0 {
		products := make(map[string]any, len(r.products))
		for id, p := range r.products {
			products[id] = p.ToMap()
		}
		m["products"] = products
	}
	if len(r.categories) > 0 {
		categories := make(map[string]any, len(r.categories))
		for id, c := range r.categories {
			categories[id] = c.ToMap()
		}
		m["categories"] = categories
	}
	if len(r.manufacturers) > 0 {
		manufacturers := make(map[string]any, len(r.manufacturers))
		for id, mf := range r.manufacturers {
			manufacturers[id] = mf.ToMap()
		}
		m["manufacturers"] = manufacturers
	}
	if len(r.brands) > 0 {
		brands := make(map[string]any, len(r.brands))
		for id, b := range r.brands {
			brands[id] = b.ToMap()
		}
		m["brands"] = brands
	}
	if len(r.tags) > 0 {
		tags := make(map[string]any, len(r.tags))
		for id, t := range r.tags {
			tags[id] = t.ToMap()
		}
		m["tags"] = tags
	}
	if len(r.order) > 0 {
		results := make([][]string, len(r.order))
		for i, pos := range r.order {
			results[i] = []string{pos.kind, pos.identity}
		}
		m["results"] = results
	}
	if r.aggregations != nil {
		m["aggregations"] = r.aggregations.ToMap()
	}
	return m
}

// ResultFromMap decodes a result from a wire map. Entities are restored by
// walking the relevance order record and resolving each pair against its
// per-kind entity map; a pair without a matching entity fails with
// ErrInvalidFormat.
func ResultFromMap(m map[string]any) (*Result, error) {
	totalElements, _ := mapInt(m, "total_elements")
	totalProducts, _ := mapInt(m, "total_products")
	totalHits, _ := mapInt(m, "total_hits")
	minPrice, _ := mapInt(m, "min_price")
	maxPrice, _ := mapInt(m, "max_price")

	r := NewResult(totalElements, totalProducts, totalHits, minPrice, maxPrice)

	products, _ := mapMap(m, "products")
	categories, _ := mapMap(m, "categories")
	manufacturers, _ := mapMap(m, "manufacturers")
	brands, _ := mapMap(m, "brands")
	tags, _ := mapMap(m, "tags")

	pairs, err := orderPairs(m)
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		kind, identity := pair[0], pair[1]
		switch kind {
		case kindProduct:
			em, err := entityMap(products, kind, identity)
			if err != nil {
				return nil, err
			}
			p, err := ProductFromMap(em)
			if err != nil {
				return nil, fmt.Errorf("result: %w", err)
			}
			r.AddProduct(p)
		case kindCategory:
			em, err := entityMap(categories, kind, identity)
			if err != nil {
				return nil, err
			}
			c, err := CategoryFromMap(em)
			if err != nil {
				return nil, fmt.Errorf("result: %w", err)
			}
			r.AddCategory(c)
		case kindManufacturer:
			em, err := entityMap(manufacturers, kind, identity)
			if err != nil {
				return nil, err
			}
			mf, err := ManufacturerFromMap(em)
			if err != nil {
				return nil, fmt.Errorf("result: %w", err)
			}
			r.AddManufacturer(mf)
		case kindBrand:
			em, err := entityMap(brands, kind, identity)
			if err != nil {
				return nil, err
			}
			b, err := BrandFromMap(em)
			if err != nil {
				return nil, fmt.Errorf("result: %w", err)
			}
			r.AddBrand(b)
		case kindTag:
			em, err := entityMap(tags, kind, identity)
			if err != nil {
				return nil, err
			}
			t, err := TagFromMap(em)
			if err != nil {
				return nil, fmt.Errorf("result: %w", err)
			}
			r.AddTag(t)
		default:
			return nil, fmt.Errorf("%w: result: unknown kind %q in order record", ErrInvalidFormat, kind)
		}
	}

	if am, ok := mapMap(m, "aggregations"); ok {
		aggs, err := ResultAggregationsFromMap(am)
		if err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		r.SetAggregations(aggs)
	}
	return r, nil
}

// orderPairs reads the "results" order record as [kind, identity] pairs.
func orderPairs(m map[string]any) ([][2]string, error) {
	raw, present := m["results"]
	if !present {
		return nil, nil
	}
	var pairs [][2]string
	appendPair := func(kind, identity string) {
		pairs = append(pairs, [2]string{kind, identity})
	}
	switch list := raw.(type) {
	case [][]string:
		for _, p := range list {
			if len(p) != 2 {
				return nil, fmt.Errorf("%w: result: malformed order record", ErrInvalidFormat)
			}
			appendPair(p[0], p[1])
		}
	case []any:
		for _, e := range list {
			p, ok := anyStringPair(e)
			if !ok {
				return nil, fmt.Errorf("%w: result: malformed order record", ErrInvalidFormat)
			}
			appendPair(p[0], p[1])
		}
	default:
		return nil, fmt.Errorf("%w: result: malformed order record", ErrInvalidFormat)
	}
	return pairs, nil
}

func anyStringPair(v any) ([2]string, bool) {
	switch p := v.(type) {
	case []string:
		if len(p) != 2 {
			return [2]string{}, false
		}
		return [2]string{p[0], p[1]}, true
	case []any:
		if len(p) != 2 {
			return [2]string{}, false
		}
		a, aok := p[0].(string)
		b, bok := p[1].(string)
		if !aok || !bok {
			return [2]string{}, false
		}
		return [2]string{a, b}, true
	default:
		return [2]string{}, false
	}
}

// entityMap resolves one order-record pair against its per-kind entity map.
func entityMap(entities map[string]any, kind, identity string) (map[string]any, error) {
	raw, ok := entities[identity]
	if !ok {
		return nil, fmt.Errorf(
			"%w: result: order record references missing entity %s/%s",
			ErrInvalidFormat, kind, identity,
		)
	}
	em, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: result: entity %s is not a map", ErrInvalidFormat, identity)
	}
	return em, nil
}
