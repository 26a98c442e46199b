package loupe

import (
	"errors"
	"reflect"
	"testing"
)

// --- factory tests ---

func TestNewQuery_Defaults(t *testing.T) {
	q := NewQuery("shoes", 1, 10)
	if q.Text() != "shoes" {
		t.Errorf("Text() = %q", q.Text())
	}
	if q.Page() != 1 || q.Size() != 10 {
		t.Errorf("Page()/Size() = %d/%d", q.Page(), q.Size())
	}
	if !q.AggregationsEnabled() {
		t.Error("aggregations should default to enabled")
	}
	if q.SuggestionsEnabled() {
		t.Error("suggestions should default to disabled")
	}
	if q.Coordinate() != nil {
		t.Error("Coordinate() should be nil")
	}
	if !reflect.DeepEqual(q.Sort(), SortByScore()) {
		t.Errorf("Sort() = %v", q.Sort())
	}
}

func TestNewQuery_ClampsPageAndSize(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 10, 1, 10},
		{-3, 10, 1, 10},
		{2, 0, 2, DefaultSize},
		{1, -5, 1, DefaultSize},
	}
	for _, tc := range tests {
		q := NewQuery("", tc.page, tc.size)
		if q.Page() != tc.wantPage || q.Size() != tc.wantSize {
			t.Errorf("NewQuery(_, %d, %d): page/size = %d/%d, want %d/%d",
				tc.page, tc.size, q.Page(), q.Size(), tc.wantPage, tc.wantSize)
		}
	}
}

func TestFrom_DerivedFromPageAndSize(t *testing.T) {
	tests := []struct {
		page, size, want int
	}{
		{1, 10, 0},
		{2, 10, 10},
		{3, 25, 50},
		{10, 7, 63},
	}
	for _, tc := range tests {
		q := NewQuery("", tc.page, tc.size)
		if q.From() != tc.want {
			t.Errorf("From() with page=%d size=%d = %d, want %d", tc.page, tc.size, q.From(), tc.want)
		}
	}
}

func TestNewQueryMatchAll(t *testing.T) {
	q := NewQueryMatchAll()
	if q.Text() != "" {
		t.Errorf("Text() = %q", q.Text())
	}
	if q.Page() != 1 || q.Size() != MatchAllSize {
		t.Errorf("Page()/Size() = %d/%d", q.Page(), q.Size())
	}
}

// --- filter tests ---

func TestFilterBy_ReplaceAndRemove(t *testing.T) {
	q := NewQuery("", 1, 10)

	q.FilterBy("color", []string{"red"}, ApplicationTypeAtLeastOne)
	f, ok := q.GetFilter("color")
	if !ok {
		t.Fatal("filter should exist")
	}
	if f.Values()[0] != "red" {
		t.Errorf("Values() = %v", f.Values())
	}

	q.FilterBy("color", []string{"blue", "green"}, ApplicationTypeMustAll)
	f, _ = q.GetFilter("color")
	if len(f.Values()) != 2 || f.ApplicationType() != ApplicationTypeMustAll {
		t.Errorf("replace failed: %v %q", f.Values(), f.ApplicationType())
	}

	q.FilterBy("color", nil, ApplicationTypeMustAll)
	if _, ok := q.GetFilter("color"); ok {
		t.Error("empty values should remove the filter")
	}
	if _, present := q.Filters()["color"]; present {
		t.Error("removed filter should be absent from Filters()")
	}
}

func TestFilterByMeta_PrefixesField(t *testing.T) {
	q := NewQuery("", 1, 10).FilterByMeta("size", []string{"xl"}, ApplicationTypeAtLeastOne)
	f, ok := q.GetFilter("size")
	if !ok {
		t.Fatal("filter should exist")
	}
	if f.Field() != "indexed_metadata.size" {
		t.Errorf("Field() = %q", f.Field())
	}
}

func TestFilterByBrands_AutoAggregation(t *testing.T) {
	q := NewQuery("", 1, 10).FilterByBrands([]string{"b1"}, ApplicationTypeAtLeastOne, true)

	f, ok := q.GetFilter("brand")
	if !ok {
		t.Fatal("brand filter should exist")
	}
	if f.Field() != "brand.id" {
		t.Errorf("Field() = %q", f.Field())
	}

	a, ok := q.GetAggregation("brand")
	if !ok {
		t.Fatal("brand aggregation should exist")
	}
	if a.Field() != "brand.id|brand.name" {
		t.Errorf("aggregation Field() = %q", a.Field())
	}
}

func TestFilterByBrands_NoAggregation(t *testing.T) {
	q := NewQuery("", 1, 10).FilterByBrands([]string{"b1"}, ApplicationTypeAtLeastOne, false)
	if _, ok := q.GetAggregation("brand"); ok {
		t.Error("aggregation should not be added with aggregate=false")
	}
}

func TestFilterByBrands_EmptyValuesStillAggregates(t *testing.T) {
	// Faceting without filtering: empty values install no filter but the
	// facet aggregation is still requested.
	q := NewQuery("", 1, 10).FilterByBrands(nil, ApplicationTypeAtLeastOne, true)
	if _, ok := q.GetFilter("brand"); ok {
		t.Error("empty values should not store a filter")
	}
	if _, ok := q.GetAggregation("brand"); !ok {
		t.Error("aggregation should be added even with empty values")
	}
}

func TestFilterByCategories_NestedShape(t *testing.T) {
	q := NewQuery("", 1, 10).FilterByCategories([]string{"12"}, ApplicationTypeMustAllWithLevels, true)

	f, ok := q.GetFilter("categories")
	if !ok {
		t.Fatal("categories filter should exist")
	}
	if f.FilterType() != FilterTypeNested {
		t.Errorf("FilterType() = %q", f.FilterType())
	}
	if f.Options()["nested_path"] != "categories" {
		t.Errorf("Options() = %v", f.Options())
	}

	a, _ := q.GetAggregation("categories")
	if a.Field() != "categories.id|categories.name|categories.level" {
		t.Errorf("aggregation Field() = %q", a.Field())
	}
}

func TestFilterByTags_GroupKeyAndEnabled(t *testing.T) {
	q := NewQuery("", 1, 10).FilterByTags(
		"shipping", []string{"free_shipping", "express"}, []string{"free_shipping"},
		ApplicationTypeAtLeastOne, true,
	)

	f, ok := q.GetFilter("shipping")
	if !ok {
		t.Fatal("tag filter should exist under the group key")
	}
	if f.Field() != "tags.name" {
		t.Errorf("Field() = %q", f.Field())
	}

	a, ok := q.GetAggregation("shipping")
	if !ok {
		t.Fatal("tag aggregation should exist")
	}
	if len(a.Options()) != 2 || a.Options()[1] != "express" {
		t.Errorf("aggregation Options() = %v", a.Options())
	}
}

func TestFilterByRange_EmptyValuesStillStored(t *testing.T) {
	q := NewQuery("", 1, 10).FilterByRange(
		"price", "real_price", []string{"0..50"}, nil, ApplicationTypeAtLeastOne, true,
	)

	f, ok := q.GetFilter("price")
	if !ok {
		t.Fatal("range filter must be stored even with empty values")
	}
	if f.FilterType() != FilterTypeRange {
		t.Errorf("FilterType() = %q", f.FilterType())
	}
	if len(f.Values()) != 0 {
		t.Errorf("Values() = %v", f.Values())
	}

	a, ok := q.GetAggregation("price")
	if !ok {
		t.Fatal("range aggregation should exist")
	}
	if a.AggregationType() != FilterTypeRange || a.Options()[0] != "0..50" {
		t.Errorf("aggregation = %q %v", a.AggregationType(), a.Options())
	}
}

func TestFilterByRange_NoOptionsNoAggregation(t *testing.T) {
	q := NewQuery("", 1, 10).FilterByRange(
		"rating", "rating", nil, []string{"3.."}, ApplicationTypeAtLeastOne, true,
	)
	if _, ok := q.GetAggregation("rating"); ok {
		t.Error("no aggregation without bucket options")
	}
}

func TestFilterByPriceRange_FieldMapping(t *testing.T) {
	q := NewQuery("", 1, 10).FilterByPriceRange([]string{"0..50"}, nil, ApplicationTypeAtLeastOne, true)
	f, ok := q.GetFilter("price")
	if !ok {
		t.Fatal("price filter should exist")
	}
	if f.Field() != "real_price" {
		t.Errorf("Field() = %q", f.Field())
	}
}

func TestFilterByLocation(t *testing.T) {
	lr := NewCoordinateAndDistance(Coordinate{Lat: 40.4, Lon: -3.7}, "10km")
	q := NewQuery("", 1, 10).FilterByLocation(lr)

	f, ok := q.GetFilter("coordinate")
	if !ok {
		t.Fatal("location filter should exist")
	}
	if f.FilterType() != FilterTypeGeo {
		t.Errorf("FilterType() = %q", f.FilterType())
	}
	if f.ApplicationType() != ApplicationTypeAtLeastOne {
		t.Errorf("ApplicationType() = %q", f.ApplicationType())
	}
	if f.Values()[0] != "coordinate_and_distance" {
		t.Errorf("Values() = %v", f.Values())
	}
	if f.Options()["distance"] != "10km" {
		t.Errorf("Options() = %v", f.Options())
	}
}

func TestFilterByStores_NeverAggregated(t *testing.T) {
	q := NewQuery("", 1, 10).FilterByStores([]string{"s1"}, ApplicationTypeAtLeastOne)
	if _, ok := q.GetFilter("store"); !ok {
		t.Fatal("store filter should exist")
	}
	if _, ok := q.GetAggregation("store"); ok {
		t.Error("stores must never be faceted")
	}
}

func TestExcludeReferences_Merges(t *testing.T) {
	q := NewQuery("", 1, 10)
	q.ExcludeReferences(NewItemReference("1", "product"))
	q.ExcludeReferences(
		NewItemReference("2", "product"),
		NewItemReference("1", "product"), // duplicate, ignored
		NewItemReference("5", "category"),
	)

	f, ok := q.GetFilter("excluded_ids")
	if !ok {
		t.Fatal("exclusion filter should exist")
	}
	want := []string{"product~1", "product~2", "category~5"}
	if !reflect.DeepEqual(f.Values(), want) {
		t.Errorf("Values() = %v, want %v", f.Values(), want)
	}
	if f.ApplicationType() != ApplicationTypeExclude {
		t.Errorf("ApplicationType() = %q", f.ApplicationType())
	}
}

func TestFilterNames_InsertionOrder(t *testing.T) {
	q := NewQuery("shoes", 1, 10).
		FilterByBrands([]string{"b1"}, ApplicationTypeAtLeastOne, false).
		FilterByFamilies([]string{"f1"}, ApplicationTypeMustAll, false).
		FilterByStores([]string{"s1"}, ApplicationTypeAtLeastOne)

	want := []string{"_query", "brand", "family", "store"}
	if !reflect.DeepEqual(q.FilterNames(), want) {
		t.Errorf("FilterNames() = %v, want %v", q.FilterNames(), want)
	}

	// Replacing keeps the original position.
	q.FilterByBrands([]string{"b2"}, ApplicationTypeAtLeastOne, false)
	if !reflect.DeepEqual(q.FilterNames(), want) {
		t.Errorf("FilterNames() after replace = %v, want %v", q.FilterNames(), want)
	}
}

// --- sort tests ---

func TestSortBy_GeoWithoutCoordinateFails(t *testing.T) {
	q := NewQuery("", 1, 10)
	err := q.SortBy(SortByDistanceAsc())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrMissingCoordinate) {
		t.Errorf("error = %v, want ErrMissingCoordinate", err)
	}
	// Sort stays untouched on failure.
	if !reflect.DeepEqual(q.Sort(), SortByScore()) {
		t.Errorf("Sort() = %v", q.Sort())
	}
}

func TestSortBy_GeoInjectsCoordinate(t *testing.T) {
	q := NewQueryLocated(Coordinate{Lat: 40.4, Lon: -3.7}, "", 1, 10)
	if err := q.SortBy(SortByDistanceAsc()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clause, ok := q.Sort()["_geo_distance"].(map[string]any)
	if !ok {
		t.Fatalf("Sort() = %v", q.Sort())
	}
	coord, ok := clause["coordinate"].(map[string]any)
	if !ok {
		t.Fatalf("coordinate not injected: %v", clause)
	}
	if coord["lat"] != 40.4 || coord["lon"] != -3.7 {
		t.Errorf("coordinate = %v", coord)
	}
	if clause["unit"] != "km" {
		t.Errorf("unit = %v", clause["unit"])
	}
}

func TestSortBy_PlainSpec(t *testing.T) {
	q := NewQuery("", 1, 10)
	if err := q.SortBy(SortByPriceDesc()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(q.Sort(), SortByPriceDesc()) {
		t.Errorf("Sort() = %v", q.Sort())
	}
}

// --- toggle tests ---

func TestToggles(t *testing.T) {
	q := NewQuery("", 1, 10)
	q.EnableSuggestions()
	if !q.SuggestionsEnabled() {
		t.Error("suggestions should be enabled")
	}
	q.DisableSuggestions()
	if q.SuggestionsEnabled() {
		t.Error("suggestions should be disabled")
	}
	q.DisableAggregations()
	if q.AggregationsEnabled() {
		t.Error("aggregations should be disabled")
	}
	q.EnableAggregations()
	if !q.AggregationsEnabled() {
		t.Error("aggregations should be enabled")
	}
}

// --- wire tests ---

func TestQueryToMap_DropsQueryFilterAndEmptySections(t *testing.T) {
	q := NewQuery("shoes", 2, 20)
	m := q.ToMap()

	if m["q"] != "shoes" {
		t.Errorf("q = %v", m["q"])
	}
	if _, present := m["filters"]; present {
		t.Error("filters should be omitted when only _query exists")
	}
	if _, present := m["aggregations"]; present {
		t.Error("empty aggregations should be omitted")
	}
	if _, present := m["coordinate"]; present {
		t.Error("coordinate should be omitted for unlocated queries")
	}
	if m["page"] != 2 || m["size"] != 20 {
		t.Errorf("page/size = %v/%v", m["page"], m["size"])
	}
}

func TestQueryFromMap_MissingRequiredKeys(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]any
		want string
	}{
		{"missing page", map[string]any{"size": 10, "sort": map[string]any{}}, "missing page"},
		{"missing size", map[string]any{"page": 1, "sort": map[string]any{}}, "missing size"},
		{"missing sort", map[string]any{"page": 1, "size": 10}, "missing sort"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QueryFromMap(tc.m)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("error should wrap ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestQueryWireRoundTripIdempotent(t *testing.T) {
	lr := NewCoordinateAndDistance(Coordinate{Lat: 40.4, Lon: -3.7}, "50km")
	q := NewQueryLocated(Coordinate{Lat: 40.4, Lon: -3.7}, "running shoes", 2, 25)
	q.FilterByBrands([]string{"b1", "b2"}, ApplicationTypeAtLeastOne, true).
		FilterByCategories([]string{"12"}, ApplicationTypeMustAllWithLevels, true).
		FilterByPriceRange([]string{"0..50", "50..100"}, []string{"0..50"}, ApplicationTypeAtLeastOne, true).
		FilterByLocation(lr).
		FilterByStores([]string{"s1"}, ApplicationTypeAtLeastOne).
		ExcludeReferences(NewItemReference("9", "product")).
		EnableSuggestions().
		SetScoreStrategy(NewFieldBoostingScoreStrategy("rating", 2.0))
	if err := q.SortBy(SortByDistanceAsc()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := q.ToMap()
	decoded, err := QueryFromMap(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := decoded.ToMap()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip not idempotent:\nfirst  = %#v\nsecond = %#v", first, second)
	}
}

func TestQueryFromMap_RestoresState(t *testing.T) {
	q := NewQuery("shoes", 3, 15)
	q.FilterByBrands([]string{"b1"}, ApplicationTypeAtLeastOne, true).
		DisableAggregations()

	decoded, err := QueryFromMap(q.ToMap())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Text() != "shoes" {
		t.Errorf("Text() = %q", decoded.Text())
	}
	if decoded.Page() != 3 || decoded.Size() != 15 || decoded.From() != 30 {
		t.Errorf("paging = %d/%d/%d", decoded.Page(), decoded.Size(), decoded.From())
	}
	if decoded.AggregationsEnabled() {
		t.Error("aggregations toggle lost")
	}
	f, ok := decoded.GetFilter("brand")
	if !ok {
		t.Fatal("brand filter lost")
	}
	if f.Values()[0] != "b1" {
		t.Errorf("Values() = %v", f.Values())
	}
	if _, ok := decoded.GetAggregation("brand"); !ok {
		t.Error("brand aggregation lost")
	}
}

func TestGetFilter_LookupMissIsNotAnError(t *testing.T) {
	q := NewQuery("", 1, 10)
	if _, ok := q.GetFilter("nope"); ok {
		t.Error("unknown filter should report false")
	}
	if _, ok := q.GetAggregation("nope"); ok {
		t.Error("unknown aggregation should report false")
	}
}
