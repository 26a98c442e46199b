package loupe

import "fmt"

// Aggregation is an immutable declaration of one requested summarization:
// bucketed counts along one dimension. The field may encode several physical
// fields joined by "|" (e.g. "brand.id|brand.name").
type Aggregation struct {
	name            string
	field           string
	applicationType ApplicationType
	aggregationType FilterType
	options         []string
}

// NewAggregation creates an Aggregation. Range buckets in options use
// "from..to" notation.
func NewAggregation(
	name string,
	field string,
	applicationType ApplicationType,
	aggregationType FilterType,
	options []string,
) Aggregation {
	return Aggregation{
		name:            name,
		field:           field,
		applicationType: applicationType,
		aggregationType: aggregationType,
		options:         options,
	}
}

// Name returns the aggregation name, unique within a query.
func (a Aggregation) Name() string { return a.name }

// Field returns the bucketed field, possibly a "|"-joined composite.
func (a Aggregation) Field() string { return a.field }

// ApplicationType returns the value-combination policy.
func (a Aggregation) ApplicationType() ApplicationType { return a.applicationType }

// AggregationType returns the aggregation shape.
func (a Aggregation) AggregationType() FilterType { return a.aggregationType }

// Options returns the ordered bucket specs.
func (a Aggregation) Options() []string { return a.options }

// ToMap encodes the aggregation as a wire map.
func (a Aggregation) ToMap() map[string]any {
	m := map[string]any{
		"name":             a.name,
		"field":            a.field,
		"application_type": string(a.applicationType),
		"aggregation_type": string(a.aggregationType),
	}
	if len(a.options) > 0 {
		m["options"] = a.options
	}
	return m
}

// AggregationFromMap decodes an aggregation from a wire map. Unknown
// application or aggregation types fail with ErrInvalidFormat.
func AggregationFromMap(m map[string]any) (Aggregation, error) {
	name, ok := mapString(m, "name")
	if !ok {
		return Aggregation{}, fmt.Errorf("%w: aggregation: missing name", ErrInvalidFormat)
	}
	field, ok := mapString(m, "field")
	if !ok {
		return Aggregation{}, fmt.Errorf("%w: aggregation %q: missing field", ErrInvalidFormat, name)
	}
	at, ok := mapString(m, "application_type")
	if !ok {
		return Aggregation{}, fmt.Errorf("%w: aggregation %q: missing application_type", ErrInvalidFormat, name)
	}
	applicationType := ApplicationType(at)
	if !applicationType.IsValid() {
		return Aggregation{}, fmt.Errorf("%w: aggregation %q: unknown application_type %q", ErrInvalidFormat, name, at)
	}
	gt, ok := mapString(m, "aggregation_type")
	if !ok {
		return Aggregation{}, fmt.Errorf("%w: aggregation %q: missing aggregation_type", ErrInvalidFormat, name)
	}
	aggregationType := FilterType(gt)
	if !aggregationType.IsValid() {
		return Aggregation{}, fmt.Errorf("%w: aggregation %q: unknown aggregation_type %q", ErrInvalidFormat, name, gt)
	}

	var options []string
	if _, present := m["options"]; present {
		options, ok = mapStringSlice(m, "options")
		if !ok {
			return Aggregation{}, fmt.Errorf("%w: aggregation %q: options must be strings", ErrInvalidFormat, name)
		}
	}

	return NewAggregation(name, field, applicationType, aggregationType, options), nil
}
