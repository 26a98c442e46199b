package loupe

import "fmt"

// ApplicationType is the policy for combining multiple filter values.
type ApplicationType string

const (
	// ApplicationTypeMustAll requires every value to match.
	ApplicationTypeMustAll ApplicationType = "must_all"
	// ApplicationTypeMustAllWithLevels requires every value to match,
	// honoring hierarchical levels (e.g. nested category trees).
	ApplicationTypeMustAllWithLevels ApplicationType = "must_all_with_levels"
	// ApplicationTypeAtLeastOne requires at least one value to match.
	ApplicationTypeAtLeastOne ApplicationType = "at_least_one"
	// ApplicationTypeExclude removes matching items from the result set.
	ApplicationTypeExclude ApplicationType = "exclude"
)

// IsValid reports whether a is a known application type.
func (a ApplicationType) IsValid() bool {
	switch a {
	case ApplicationTypeMustAll, ApplicationTypeMustAllWithLevels,
		ApplicationTypeAtLeastOne, ApplicationTypeExclude:
		return true
	default:
		return false
	}
}

// FilterType describes the shape of a filter or aggregation: a plain field,
// the free-text query, a nested object, a numeric/date range, or a geo radius.
type FilterType string

const (
	FilterTypeField  FilterType = "field"
	FilterTypeQuery  FilterType = "query"
	FilterTypeNested FilterType = "nested"
	FilterTypeRange  FilterType = "range"
	FilterTypeGeo    FilterType = "geo_distance"
)

// IsValid reports whether t is a known filter type.
func (t FilterType) IsValid() bool {
	switch t {
	case FilterTypeField, FilterTypeQuery, FilterTypeNested, FilterTypeRange, FilterTypeGeo:
		return true
	default:
		return false
	}
}

// Filter is an immutable declaration of one search constraint.
type Filter struct {
	field           string
	values          []string
	applicationType ApplicationType
	filterType      FilterType
	options         map[string]any
}

// NewFilter creates a Filter.
func NewFilter(
	field string,
	values []string,
	applicationType ApplicationType,
	filterType FilterType,
	options map[string]any,
) Filter {
	return Filter{
		field:           field,
		values:          values,
		applicationType: applicationType,
		filterType:      filterType,
		options:         options,
	}
}

// Field returns the filtered field name.
func (f Filter) Field() string { return f.field }

// Values returns the filter values.
func (f Filter) Values() []string { return f.values }

// ApplicationType returns the value-combination policy.
func (f Filter) ApplicationType() ApplicationType { return f.applicationType }

// FilterType returns the filter shape.
func (f Filter) FilterType() FilterType { return f.filterType }

// Options returns extra filter options (nested path, enabled tags, geo range).
func (f Filter) Options() map[string]any { return f.options }

// ToMap encodes the filter as a wire map.
func (f Filter) ToMap() map[string]any {
	m := map[string]any{
		"field":            f.field,
		"application_type": string(f.applicationType),
		"filter_type":      string(f.filterType),
	}
	if len(f.values) > 0 {
		m["values"] = f.values
	}
	if len(f.options) > 0 {
		m["filter_options"] = f.options
	}
	return m
}

// FilterFromMap decodes a filter from a wire map. Unknown application or
// filter types fail with ErrInvalidFormat.
func FilterFromMap(m map[string]any) (Filter, error) {
	field, ok := mapString(m, "field")
	if !ok {
		return Filter{}, fmt.Errorf("%w: filter: missing field", ErrInvalidFormat)
	}
	at, ok := mapString(m, "application_type")
	if !ok {
		return Filter{}, fmt.Errorf("%w: filter %q: missing application_type", ErrInvalidFormat, field)
	}
	applicationType := ApplicationType(at)
	if !applicationType.IsValid() {
		return Filter{}, fmt.Errorf("%w: filter %q: unknown application_type %q", ErrInvalidFormat, field, at)
	}
	ft, ok := mapString(m, "filter_type")
	if !ok {
		return Filter{}, fmt.Errorf("%w: filter %q: missing filter_type", ErrInvalidFormat, field)
	}
	filterType := FilterType(ft)
	if !filterType.IsValid() {
		return Filter{}, fmt.Errorf("%w: filter %q: unknown filter_type %q", ErrInvalidFormat, field, ft)
	}

	var values []string
	if _, present := m["values"]; present {
		values, ok = mapStringSlice(m, "values")
		if !ok {
			return Filter{}, fmt.Errorf("%w: filter %q: values must be strings", ErrInvalidFormat, field)
		}
	}
	options, _ := mapMap(m, "filter_options")

	return NewFilter(field, values, applicationType, filterType, options), nil
}
