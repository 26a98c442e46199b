package loupe

import "fmt"

// ScoreStrategyType selects a relevance-boosting strategy.
type ScoreStrategyType string

const (
	ScoreStrategyDefault        ScoreStrategyType = "default"
	ScoreStrategyFieldValue     ScoreStrategyType = "field_value"
	ScoreStrategyCustomFunction ScoreStrategyType = "custom_function"
	ScoreStrategyDecay          ScoreStrategyType = "decay"
)

// IsValid reports whether t is a known score strategy type.
func (t ScoreStrategyType) IsValid() bool {
	switch t {
	case ScoreStrategyDefault, ScoreStrategyFieldValue,
		ScoreStrategyCustomFunction, ScoreStrategyDecay:
		return true
	default:
		return false
	}
}

// Modifier transforms the boosting field value before it is applied.
type Modifier string

const (
	ModifierNone   Modifier = "none"
	ModifierSqrt   Modifier = "sqrt"
	ModifierLog    Modifier = "log"
	ModifierLn     Modifier = "ln"
	ModifierSquare Modifier = "square"
)

// DecayType selects the decay curve for distance/time decay strategies.
type DecayType string

const (
	DecayLinear DecayType = "linear"
	DecayExp    DecayType = "exp"
	DecayGauss  DecayType = "gauss"
)

const defaultStrategyWeight = 1.0

// ScoreStrategy is an immutable declaration of one relevance-boosting
// strategy: a typed configuration bag, a weight, and an optional gating
// filter restricting which items the boost applies to.
type ScoreStrategy struct {
	strategyType  ScoreStrategyType
	weight        float64
	filter        *Filter
	configuration map[string]any
}

// ScoreStrategyOption configures optional strategy parameters.
type ScoreStrategyOption func(*ScoreStrategy)

// WithWeight sets the strategy weight (default 1.0).
func WithWeight(weight float64) ScoreStrategyOption {
	return func(s *ScoreStrategy) {
		s.weight = weight
	}
}

// WithMissing sets the value used when the boosting field is absent.
func WithMissing(missing float64) ScoreStrategyOption {
	return func(s *ScoreStrategy) {
		s.configuration["missing"] = missing
	}
}

// WithModifier sets the field-value modifier (default none).
func WithModifier(m Modifier) ScoreStrategyOption {
	return func(s *ScoreStrategy) {
		s.configuration["modifier"] = string(m)
	}
}

// WithScoreFilter gates the strategy behind a filter.
func WithScoreFilter(f Filter) ScoreStrategyOption {
	return func(s *ScoreStrategy) {
		s.filter = &f
	}
}

// NewDefaultScoreStrategy creates the engine-default scoring strategy.
func NewDefaultScoreStrategy() ScoreStrategy {
	return ScoreStrategy{
		strategyType: ScoreStrategyDefault,
		weight:       defaultStrategyWeight,
	}
}

// NewFieldBoostingScoreStrategy boosts relevance by a field value multiplied
// by factor. Missing values default to 1.0, modifier defaults to none.
func NewFieldBoostingScoreStrategy(
	field string, factor float64, opts ...ScoreStrategyOption,
) ScoreStrategy {
	s := ScoreStrategy{
		strategyType: ScoreStrategyFieldValue,
		weight:       defaultStrategyWeight,
		configuration: map[string]any{
			"field":    field,
			"factor":   factor,
			"missing":  1.0,
			"modifier": string(ModifierNone),
		},
	}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// NewCustomFunctionScoreStrategy scores items with an engine-side function
// expression.
func NewCustomFunctionScoreStrategy(
	function string, opts ...ScoreStrategyOption,
) ScoreStrategy {
	s := ScoreStrategy{
		strategyType: ScoreStrategyCustomFunction,
		weight:       defaultStrategyWeight,
		configuration: map[string]any{
			"function": function,
		},
	}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// NewDecayScoreStrategy boosts relevance with a distance/time decay curve
// centered on origin.
func NewDecayScoreStrategy(
	decay DecayType,
	field, origin, scale, offset string,
	rate float64,
	opts ...ScoreStrategyOption,
) ScoreStrategy {
	s := ScoreStrategy{
		strategyType: ScoreStrategyDecay,
		weight:       defaultStrategyWeight,
		configuration: map[string]any{
			"type":   string(decay),
			"field":  field,
			"origin": origin,
			"scale":  scale,
			"offset": offset,
			"decay":  rate,
		},
	}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// Type returns the strategy type.
func (s ScoreStrategy) Type() ScoreStrategyType { return s.strategyType }

// Weight returns the strategy weight.
func (s ScoreStrategy) Weight() float64 { return s.weight }

// Filter returns the gating filter, nil when the strategy is unconditional.
func (s ScoreStrategy) Filter() *Filter { return s.filter }

// Configuration returns the typed configuration bag. Present keys depend on
// the strategy type.
func (s ScoreStrategy) Configuration() map[string]any { return s.configuration }

// ToMap encodes the strategy as a wire map.
func (s ScoreStrategy) ToMap() map[string]any {
	m := map[string]any{
		"type":   string(s.strategyType),
		"weight": s.weight,
	}
	if s.filter != nil {
		m["filter"] = s.filter.ToMap()
	}
	if len(s.configuration) > 0 {
		m["configuration"] = s.configuration
	}
	return m
}

// ScoreStrategyFromMap decodes a strategy from a wire map. Unlike filter and
// aggregation decoding, an absent, empty, or unrecognized type defaults to
// the engine-default strategy instead of failing.
func ScoreStrategyFromMap(m map[string]any) (ScoreStrategy, error) {
	s := NewDefaultScoreStrategy()

	if st, ok := mapString(m, "type"); ok {
		if t := ScoreStrategyType(st); t.IsValid() {
			s.strategyType = t
		}
	}
	if w, ok := mapFloat(m, "weight"); ok {
		s.weight = w
	}
	if fm, ok := mapMap(m, "filter"); ok {
		f, err := FilterFromMap(fm)
		if err != nil {
			return ScoreStrategy{}, fmt.Errorf("score strategy: %w", err)
		}
		s.filter = &f
	}
	if cfg, ok := mapMap(m, "configuration"); ok {
		s.configuration = cfg
	}
	return s, nil
}
