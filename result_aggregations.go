package loupe

import "fmt"

// Counter is one computed bucket of a result aggregation: a value, the
// number of matching items, and whether the bucket is currently applied as a
// filter.
type Counter struct {
	Value  string
	N      int
	Active bool
}

// ToMap encodes the counter as a wire map.
func (c Counter) ToMap() map[string]any {
	m := map[string]any{
		"value": c.Value,
		"n":     c.N,
	}
	if c.Active {
		m["active"] = true
	}
	return m
}

// CounterFromMap decodes a counter from a wire map.
func CounterFromMap(m map[string]any) (Counter, error) {
	value, ok := mapString(m, "value")
	if !ok {
		return Counter{}, fmt.Errorf("%w: counter: missing value", ErrInvalidFormat)
	}
	n, ok := mapInt(m, "n")
	if !ok {
		return Counter{}, fmt.Errorf("%w: counter %q: missing n", ErrInvalidFormat, value)
	}
	active, _ := mapBool(m, "active")
	return Counter{Value: value, N: n, Active: active}, nil
}

// ResultAggregation is one computed aggregation: a name and its counters in
// engine order.
type ResultAggregation struct {
	name     string
	counters []Counter
}

// NewResultAggregation creates a computed aggregation.
func NewResultAggregation(name string, counters []Counter) ResultAggregation {
	return ResultAggregation{name: name, counters: counters}
}

// Name returns the aggregation name.
func (a ResultAggregation) Name() string { return a.name }

// Counters returns the buckets in engine order.
func (a ResultAggregation) Counters() []Counter { return a.counters }

// GetCounter returns the bucket for a value. The second result is false when
// the value has no bucket.
func (a ResultAggregation) GetCounter(value string) (Counter, bool) {
	for _, c := range a.counters {
		if c.Value == value {
			return c, true
		}
	}
	return Counter{}, false
}

// ToMap encodes the aggregation as a wire map.
func (a ResultAggregation) ToMap() map[string]any {
	counters := make([]map[string]any, len(a.counters))
	for i, c := range a.counters {
		counters[i] = c.ToMap()
	}
	return map[string]any{
		"name":     a.name,
		"counters": counters,
	}
}

// ResultAggregationFromMap decodes a computed aggregation from a wire map.
func ResultAggregationFromMap(m map[string]any) (ResultAggregation, error) {
	name, ok := mapString(m, "name")
	if !ok {
		return ResultAggregation{}, fmt.Errorf("%w: result aggregation: missing name", ErrInvalidFormat)
	}
	var counters []Counter
	if raw, present := m["counters"]; present {
		list, ok := anySlice(raw)
		if !ok {
			return ResultAggregation{}, fmt.Errorf(
				"%w: result aggregation %q: counters is not a list", ErrInvalidFormat, name,
			)
		}
		counters = make([]Counter, 0, len(list))
		for _, e := range list {
			cm, ok := e.(map[string]any)
			if !ok {
				return ResultAggregation{}, fmt.Errorf(
					"%w: result aggregation %q: counter is not a map", ErrInvalidFormat, name,
				)
			}
			c, err := CounterFromMap(cm)
			if err != nil {
				return ResultAggregation{}, fmt.Errorf("result aggregation %q: %w", name, err)
			}
			counters = append(counters, c)
		}
	}
	return NewResultAggregation(name, counters), nil
}

// anySlice normalizes the slice shapes a wire list can arrive in.
func anySlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

// ResultAggregations is the bag of named computed aggregations attached to a
// result, in insertion order.
type ResultAggregations struct {
	aggregations map[string]ResultAggregation
	order        []string
}

// NewResultAggregations creates an empty aggregation bag.
func NewResultAggregations() *ResultAggregations {
	return &ResultAggregations{
		aggregations: make(map[string]ResultAggregation),
	}
}

// Add stores an aggregation, replacing any previous one with the same name
// while keeping its original position.
func (r *ResultAggregations) Add(a ResultAggregation) {
	if _, exists := r.aggregations[a.Name()]; !exists {
		r.order = append(r.order, a.Name())
	}
	r.aggregations[a.Name()] = a
}

// Get returns a named aggregation. The second result is false for unknown
// names; a lookup miss is not an error.
func (r *ResultAggregations) Get(name string) (ResultAggregation, bool) {
	a, ok := r.aggregations[name]
	return a, ok
}

// Names returns aggregation names in insertion order.
func (r *ResultAggregations) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ToMap encodes the bag as a wire map keyed by aggregation name.
func (r *ResultAggregations) ToMap() map[string]any {
	m := make(map[string]any, len(r.aggregations))
	for _, name := range r.order {
		m[name] = r.aggregations[name].ToMap()
	}
	return m
}

// ResultAggregationsFromMap decodes the aggregation bag from a wire map.
// Wire maps carry no order, so entries are restored in name order.
func ResultAggregationsFromMap(m map[string]any) (*ResultAggregations, error) {
	out := NewResultAggregations()
	for _, name := range sortedKeys(m) {
		am, ok := m[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: aggregations: %q is not a map", ErrInvalidFormat, name)
		}
		a, err := ResultAggregationFromMap(am)
		if err != nil {
			return nil, fmt.Errorf("aggregations: %w", err)
		}
		out.Add(a)
	}
	return out, nil
}
