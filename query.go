package loupe

import (
	"fmt"
	"sort"
)

// Query defaults.
const (
	DefaultPage = 1
	DefaultSize = 10
	// MatchAllSize is the page size used by NewQueryMatchAll.
	MatchAllSize = 1000
)

// queryFilterKey keys the implicit free-text filter. It is never emitted in
// the wire filter list; the query text travels as the top-level "q" field.
const queryFilterKey = "_query"

// Fixed filter keys installed by the dimension helpers.
const (
	filterKeyFamily       = "family"
	filterKeyType         = "type"
	filterKeyCategories   = "categories"
	filterKeyManufacturer = "manufacturer"
	filterKeyBrand        = "brand"
	filterKeyPrice        = "price"
	filterKeyRating       = "rating"
	filterKeyCoordinate   = "coordinate"
	filterKeyStore        = "store"
	filterKeyExcluded     = "excluded_ids"
)

// Query is the aggregate search request: free text, named filters and
// aggregations (insertion order preserved), sort, paging, and feature
// toggles. It is a single-owner builder; mutators return the receiver for
// chaining and must not be called concurrently.
type Query struct {
	coordinate          *Coordinate
	filters             map[string]Filter
	filterOrder         []string
	aggregations        map[string]Aggregation
	aggregationOrder    []string
	sort                SortSpec
	page                int
	size                int
	suggestionsEnabled  bool
	aggregationsEnabled bool
	scoreStrategy       *ScoreStrategy
}

// NewQuery creates a query for the given free text. Page is clamped to a
// minimum of 1; a non-positive size falls back to DefaultSize. An empty text
// matches everything.
func NewQuery(text string, page, size int) *Query {
	if page < DefaultPage {
		page = DefaultPage
	}
	if size <= 0 {
		size = DefaultSize
	}
	q := &Query{
		filters:             make(map[string]Filter),
		aggregations:        make(map[string]Aggregation),
		sort:                SortByScore(),
		page:                page,
		size:                size,
		aggregationsEnabled: true,
	}
	q.putFilter(queryFilterKey, NewFilter(
		"", []string{text}, ApplicationTypeMustAll, FilterTypeQuery, nil,
	))
	return q
}

// NewQueryLocated creates a query anchored at a coordinate, enabling
// geo-distance sorting and location-aware scoring.
func NewQueryLocated(coordinate Coordinate, text string, page, size int) *Query {
	q := NewQuery(text, page, size)
	q.coordinate = &coordinate
	return q
}

// NewQueryMatchAll creates a query matching every item on one large page.
func NewQueryMatchAll() *Query {
	return NewQuery("", DefaultPage, MatchAllSize)
}

func (q *Query) putFilter(name string, f Filter) {
	if _, exists := q.filters[name]; !exists {
		q.filterOrder = append(q.filterOrder, name)
	}
	q.filters[name] = f
}

func (q *Query) removeFilter(name string) {
	if _, exists := q.filters[name]; !exists {
		return
	}
	delete(q.filters, name)
	for i, n := range q.filterOrder {
		if n == name {
			q.filterOrder = append(q.filterOrder[:i], q.filterOrder[i+1:]...)
			break
		}
	}
}

func (q *Query) putAggregation(a Aggregation) {
	if _, exists := q.aggregations[a.Name()]; !exists {
		q.aggregationOrder = append(q.aggregationOrder, a.Name())
	}
	q.aggregations[a.Name()] = a
}

// setFilter stores a filter under name, or removes name when values is
// empty. Filters are never stored empty, except range filters (see
// FilterByRange) and the implicit free-text filter.
func (q *Query) setFilter(
	name, field string,
	values []string,
	applicationType ApplicationType,
	filterType FilterType,
	options map[string]any,
) {
	if len(values) == 0 {
		q.removeFilter(name)
		return
	}
	q.putFilter(name, NewFilter(field, values, applicationType, filterType, options))
}

// FilterBy adds, replaces, or removes a plain field filter keyed by the
// field name. Empty values remove the filter.
func (q *Query) FilterBy(field string, values []string, applicationType ApplicationType) *Query {
	q.setFilter(field, field, values, applicationType, FilterTypeField, nil)
	return q
}

// FilterByMeta behaves like FilterBy against an indexed metadata field.
func (q *Query) FilterByMeta(field string, values []string, applicationType ApplicationType) *Query {
	q.setFilter(field, "indexed_metadata."+field, values, applicationType, FilterTypeField, nil)
	return q
}

// FilterByFamilies filters by product family. When aggregate is true a
// companion facet aggregation is installed.
func (q *Query) FilterByFamilies(values []string, applicationType ApplicationType, aggregate bool) *Query {
	q.setFilter(filterKeyFamily, "family", values, applicationType, FilterTypeField, nil)
	if aggregate {
		q.putAggregation(NewAggregation(
			filterKeyFamily, "family", applicationType, FilterTypeField, nil,
		))
	}
	return q
}

// FilterByTypes filters by item type.
func (q *Query) FilterByTypes(values []string, applicationType ApplicationType, aggregate bool) *Query {
	q.setFilter(filterKeyType, "type", values, applicationType, FilterTypeField, nil)
	if aggregate {
		q.putAggregation(NewAggregation(
			filterKeyType, "type", applicationType, FilterTypeField, nil,
		))
	}
	return q
}

// FilterByCategories filters by category id over the nested category tree.
// Use ApplicationTypeMustAllWithLevels to constrain one level per value.
func (q *Query) FilterByCategories(values []string, applicationType ApplicationType, aggregate bool) *Query {
	q.setFilter(
		filterKeyCategories, "categories.id", values, applicationType, FilterTypeNested,
		map[string]any{"nested_path": "categories"},
	)
	if aggregate {
		q.putAggregation(NewAggregation(
			filterKeyCategories,
			"categories.id|categories.name|categories.level",
			applicationType, FilterTypeNested, nil,
		))
	}
	return q
}

// FilterByManufacturers filters by manufacturer id.
func (q *Query) FilterByManufacturers(values []string, applicationType ApplicationType, aggregate bool) *Query {
	q.setFilter(filterKeyManufacturer, "manufacturer.id", values, applicationType, FilterTypeField, nil)
	if aggregate {
		q.putAggregation(NewAggregation(
			filterKeyManufacturer, "manufacturer.id|manufacturer.name",
			applicationType, FilterTypeField, nil,
		))
	}
	return q
}

// FilterByBrands filters by brand id.
func (q *Query) FilterByBrands(values []string, applicationType ApplicationType, aggregate bool) *Query {
	q.setFilter(filterKeyBrand, "brand.id", values, applicationType, FilterTypeField, nil)
	if aggregate {
		q.putAggregation(NewAggregation(
			filterKeyBrand, "brand.id|brand.name",
			applicationType, FilterTypeField, nil,
		))
	}
	return q
}

// FilterByTags filters by tag name under a caller-chosen group key. The
// enabled list names the tags the facet should expose as sub-buckets.
func (q *Query) FilterByTags(
	group string, enabled []string, values []string,
	applicationType ApplicationType, aggregate bool,
) *Query {
	var options map[string]any
	if len(enabled) > 0 {
		options = map[string]any{"tags": enabled}
	}
	q.setFilter(group, "tags.name", values, applicationType, FilterTypeField, options)
	if aggregate {
		q.putAggregation(NewAggregation(
			group, "tags.name", applicationType, FilterTypeField, enabled,
		))
	}
	return q
}

// FilterByPriceRange filters by effective price. Options are range bucket
// specs in "from..to" notation.
func (q *Query) FilterByPriceRange(
	options, values []string, applicationType ApplicationType, aggregate bool,
) *Query {
	return q.FilterByRange(filterKeyPrice, "real_price", options, values, applicationType, aggregate)
}

// FilterByRatingRange filters by rating.
func (q *Query) FilterByRatingRange(
	options, values []string, applicationType ApplicationType, aggregate bool,
) *Query {
	return q.FilterByRange(filterKeyRating, "rating", options, values, applicationType, aggregate)
}

// FilterByRange installs a range filter. Unlike the other filter methods the
// filter is stored even when values is empty: an empty-value range filter
// still carries its buckets for faceting. A range aggregation is added when
// aggregate is true and options is non-empty.
func (q *Query) FilterByRange(
	name, field string,
	options, values []string,
	applicationType ApplicationType,
	aggregate bool,
) *Query {
	q.putFilter(name, NewFilter(field, values, applicationType, FilterTypeRange, nil))
	if aggregate && len(options) > 0 {
		q.putAggregation(NewAggregation(name, field, applicationType, FilterTypeRange, options))
	}
	return q
}

// FilterByLocation restricts results to a geographic range. Location filters
// are never faceted.
func (q *Query) FilterByLocation(locationRange LocationRange) *Query {
	q.putFilter(filterKeyCoordinate, NewFilter(
		"coordinate",
		[]string{locationRange.Name()},
		ApplicationTypeAtLeastOne,
		FilterTypeGeo,
		locationRange.ToMap(),
	))
	return q
}

// FilterByStores filters by store availability. Stores are never faceted.
func (q *Query) FilterByStores(values []string, applicationType ApplicationType) *Query {
	q.setFilter(filterKeyStore, "store", values, applicationType, FilterTypeField, nil)
	return q
}

// ExcludeReferences removes the referenced items from the result set,
// merging with any previous exclusions. Typical use is "load more" paging
// that must skip already-shown items.
func (q *Query) ExcludeReferences(refs ...ItemReference) *Query {
	var values []string
	if existing, ok := q.filters[filterKeyExcluded]; ok {
		values = existing.Values()
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	for _, ref := range refs {
		id := ref.ComposedID()
		if !seen[id] {
			values = append(values, id)
			seen[id] = true
		}
	}
	if len(values) == 0 {
		return q
	}
	q.putFilter(filterKeyExcluded, NewFilter(
		"uuid", values, ApplicationTypeExclude, FilterTypeField, nil,
	))
	return q
}

// SortBy sets the sort specification. A geo-distance spec requires a located
// query and fails with ErrMissingCoordinate otherwise; on success the query
// coordinate is injected into the geo clause.
func (q *Query) SortBy(spec SortSpec) error {
	if !spec.isGeoDistance() {
		q.sort = spec
		return nil
	}
	if q.coordinate == nil {
		return ErrMissingCoordinate
	}
	clause := map[string]any{}
	if c, ok := spec[geoDistanceSortField].(map[string]any); ok {
		for k, v := range c {
			clause[k] = v
		}
	}
	clause["coordinate"] = q.coordinate.ToMap()

	out := make(SortSpec, len(spec))
	for k, v := range spec {
		out[k] = v
	}
	out[geoDistanceSortField] = clause
	q.sort = out
	return nil
}

// SetScoreStrategy sets the relevance-boosting strategy.
func (q *Query) SetScoreStrategy(s ScoreStrategy) *Query {
	q.scoreStrategy = &s
	return q
}

// EnableSuggestions turns on engine-side query suggestions.
func (q *Query) EnableSuggestions() *Query {
	q.suggestionsEnabled = true
	return q
}

// DisableSuggestions turns off engine-side query suggestions.
func (q *Query) DisableSuggestions() *Query {
	q.suggestionsEnabled = false
	return q
}

// EnableAggregations turns on aggregation computation (on by default).
func (q *Query) EnableAggregations() *Query {
	q.aggregationsEnabled = true
	return q
}

// DisableAggregations turns off aggregation computation.
func (q *Query) DisableAggregations() *Query {
	q.aggregationsEnabled = false
	return q
}

// Text returns the free-text query string. Empty means match all.
func (q *Query) Text() string {
	f, ok := q.filters[queryFilterKey]
	if !ok || len(f.Values()) == 0 {
		return ""
	}
	return f.Values()[0]
}

// Coordinate returns the query anchor coordinate, nil for unlocated queries.
func (q *Query) Coordinate() *Coordinate { return q.coordinate }

// Page returns the 1-based page number.
func (q *Query) Page() int { return q.page }

// Size returns the page size.
func (q *Query) Size() int { return q.size }

// From returns the result offset, always (page-1)*size.
func (q *Query) From() int { return (q.page - 1) * q.size }

// Sort returns the current sort specification.
func (q *Query) Sort() SortSpec { return q.sort }

// SuggestionsEnabled reports whether suggestions are requested.
func (q *Query) SuggestionsEnabled() bool { return q.suggestionsEnabled }

// AggregationsEnabled reports whether aggregations are requested.
func (q *Query) AggregationsEnabled() bool { return q.aggregationsEnabled }

// ScoreStrategy returns the configured strategy, nil when unset.
func (q *Query) ScoreStrategy() *ScoreStrategy { return q.scoreStrategy }

// GetFilter returns a named filter. The second result is false for unknown
// names; a lookup miss is not an error.
func (q *Query) GetFilter(name string) (Filter, bool) {
	f, ok := q.filters[name]
	return f, ok
}

// Filters returns a copy of the named filter mapping, including the implicit
// free-text filter.
func (q *Query) Filters() map[string]Filter {
	out := make(map[string]Filter, len(q.filters))
	for name, f := range q.filters {
		out[name] = f
	}
	return out
}

// FilterNames returns filter names in insertion order.
func (q *Query) FilterNames() []string {
	out := make([]string, len(q.filterOrder))
	copy(out, q.filterOrder)
	return out
}

// GetAggregation returns a named aggregation. The second result is false for
// unknown names; a lookup miss is not an error.
func (q *Query) GetAggregation(name string) (Aggregation, bool) {
	a, ok := q.aggregations[name]
	return a, ok
}

// Aggregations returns a copy of the named aggregation mapping.
func (q *Query) Aggregations() map[string]Aggregation {
	out := make(map[string]Aggregation, len(q.aggregations))
	for name, a := range q.aggregations {
		out[name] = a
	}
	return out
}

// AggregationNames returns aggregation names in insertion order.
func (q *Query) AggregationNames() []string {
	out := make([]string, len(q.aggregationOrder))
	copy(out, q.aggregationOrder)
	return out
}

// ToMap encodes the query as a wire map. The free-text filter is carried as
// the top-level "q" field and dropped from the filter list; empty optional
// sections are omitted.
func (q *Query) ToMap() map[string]any {
	m := map[string]any{
		"q":                    q.Text(),
		"sort":                 map[string]any(q.sort),
		"page":                 q.page,
		"size":                 q.size,
		"suggestions_enabled":  q.suggestionsEnabled,
		"aggregations_enabled": q.aggregationsEnabled,
	}
	if q.coordinate != nil {
		m["coordinate"] = q.coordinate.ToMap()
	}
	filters := make(map[string]any, len(q.filters))
	for _, name := range q.filterOrder {
		if name == queryFilterKey {
			continue
		}
		filters[name] = q.filters[name].ToMap()
	}
	if len(filters) > 0 {
		m["filters"] = filters
	}
	if len(q.aggregations) > 0 {
		aggregations := make(map[string]any, len(q.aggregations))
		for _, name := range q.aggregationOrder {
			aggregations[name] = q.aggregations[name].ToMap()
		}
		m["aggregations"] = aggregations
	}
	if q.scoreStrategy != nil {
		m["score_strategy"] = q.scoreStrategy.ToMap()
	}
	return m
}

// QueryFromMap decodes a query from a wire map. Page, size, and sort are
// required; all other keys default. Filter and aggregation insertion order is
// not carried on the wire, so entries are restored in name order.
func QueryFromMap(m map[string]any) (*Query, error) {
	page, ok := mapInt(m, "page")
	if !ok {
		return nil, fmt.Errorf("%w: query: missing page", ErrInvalidFormat)
	}
	size, ok := mapInt(m, "size")
	if !ok {
		return nil, fmt.Errorf("%w: query: missing size", ErrInvalidFormat)
	}
	sortMap, ok := mapMap(m, "sort")
	if !ok {
		return nil, fmt.Errorf("%w: query: missing sort", ErrInvalidFormat)
	}
	text, _ := mapString(m, "q")

	q := NewQuery(text, page, size)
	q.sort = SortSpec(sortMap)

	if cm, ok := mapMap(m, "coordinate"); ok {
		c, err := CoordinateFromMap(cm)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		q.coordinate = &c
	}
	if filters, ok := mapMap(m, "filters"); ok {
		for _, name := range sortedKeys(filters) {
			fm, ok := filters[name].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: query: filter %q is not a map", ErrInvalidFormat, name)
			}
			f, err := FilterFromMap(fm)
			if err != nil {
				return nil, fmt.Errorf("query: %w", err)
			}
			q.putFilter(name, f)
		}
	}
	if aggregations, ok := mapMap(m, "aggregations"); ok {
		for _, name := range sortedKeys(aggregations) {
			am, ok := aggregations[name].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: query: aggregation %q is not a map", ErrInvalidFormat, name)
			}
			a, err := AggregationFromMap(am)
			if err != nil {
				return nil, fmt.Errorf("query: %w", err)
			}
			q.putAggregation(a)
		}
	}
	if v, ok := mapBool(m, "suggestions_enabled"); ok {
		q.suggestionsEnabled = v
	}
	if v, ok := mapBool(m, "aggregations_enabled"); ok {
		q.aggregationsEnabled = v
	}
	if sm, ok := mapMap(m, "score_strategy"); ok {
		s, err := ScoreStrategyFromMap(sm)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		q.scoreStrategy = &s
	}
	return q, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
