package loupe

// SortSpec is an engine-agnostic sort specification. A "_geo_distance" clause
// orders by distance from the query coordinate and requires a located query.
type SortSpec map[string]any

const geoDistanceSortField = "_geo_distance"

// SortByScore orders by relevance score. This is the default sort.
func SortByScore() SortSpec {
	return SortSpec{"_score": map[string]any{"order": "asc"}}
}

// SortByPriceAsc orders by effective price, cheapest first.
func SortByPriceAsc() SortSpec {
	return SortSpec{"real_price": map[string]any{"order": "asc"}}
}

// SortByPriceDesc orders by effective price, most expensive first.
func SortByPriceDesc() SortSpec {
	return SortSpec{"real_price": map[string]any{"order": "desc"}}
}

// SortByRatingAsc orders by rating, lowest first.
func SortByRatingAsc() SortSpec {
	return SortSpec{"rating": map[string]any{"order": "asc"}}
}

// SortByRatingDesc orders by rating, highest first.
func SortByRatingDesc() SortSpec {
	return SortSpec{"rating": map[string]any{"order": "desc"}}
}

// SortByUpdatedAtDesc orders by last update, newest first.
func SortByUpdatedAtDesc() SortSpec {
	return SortSpec{"updated_at": map[string]any{"order": "desc"}}
}

// SortByDistanceAsc orders by distance from the query coordinate, nearest
// first. Only valid on located queries; Query.SortBy injects the coordinate.
func SortByDistanceAsc() SortSpec {
	return SortSpec{geoDistanceSortField: map[string]any{"order": "asc", "unit": "km"}}
}

// isGeoDistance reports whether s orders by geo distance.
func (s SortSpec) isGeoDistance() bool {
	_, ok := s[geoDistanceSortField]
	return ok
}
