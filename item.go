package loupe

import "fmt"

// Item is any entity that can appear in a result set.
type Item interface {
	// ComposedID returns the composite "<kind>~<id>" identity, unique
	// across all entity kinds.
	ComposedID() string
	// ToMap encodes the entity as a wire map.
	ToMap() map[string]any
}

// ItemReference identifies an entity without carrying its payload. Used to
// exclude already-seen items from follow-up queries.
type ItemReference struct {
	id       string
	itemType string
}

// NewItemReference creates a reference from an entity id and kind
// (e.g. "product", "category").
func NewItemReference(id, itemType string) ItemReference {
	return ItemReference{id: id, itemType: itemType}
}

// ID returns the referenced entity id.
func (r ItemReference) ID() string { return r.id }

// Type returns the referenced entity kind.
func (r ItemReference) Type() string { return r.itemType }

// ComposedID returns the composite "<kind>~<id>" identity.
func (r ItemReference) ComposedID() string {
	return r.itemType + "~" + r.id
}

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// ToMap encodes the coordinate as a wire map.
func (c Coordinate) ToMap() map[string]any {
	return map[string]any{"lat": c.Lat, "lon": c.Lon}
}

// CoordinateFromMap decodes a coordinate from a wire map.
func CoordinateFromMap(m map[string]any) (Coordinate, error) {
	lat, ok := mapFloat(m, "lat")
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: coordinate: missing lat", ErrInvalidFormat)
	}
	lon, ok := mapFloat(m, "lon")
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: coordinate: missing lon", ErrInvalidFormat)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// LocationRange is a geographic area usable in a location filter.
type LocationRange interface {
	// Name identifies the range shape on the wire.
	Name() string
	// ToMap encodes the range as a wire map.
	ToMap() map[string]any
}

// CoordinateAndDistance is a circular location range: a center point plus a
// radius with unit, e.g. "10km".
type CoordinateAndDistance struct {
	coordinate Coordinate
	distance   string
}

// NewCoordinateAndDistance creates a circular location range.
func NewCoordinateAndDistance(coordinate Coordinate, distance string) CoordinateAndDistance {
	return CoordinateAndDistance{coordinate: coordinate, distance: distance}
}

// Name returns "coordinate_and_distance".
func (r CoordinateAndDistance) Name() string { return "coordinate_and_distance" }

// ToMap encodes the range as a wire map.
func (r CoordinateAndDistance) ToMap() map[string]any {
	return map[string]any{
		"coordinate": r.coordinate.ToMap(),
		"distance":   r.distance,
	}
}

// Square is a rectangular location range given by two opposite corners.
type Square struct {
	topLeft     Coordinate
	bottomRight Coordinate
}

// NewSquare creates a rectangular location range.
func NewSquare(topLeft, bottomRight Coordinate) Square {
	return Square{topLeft: topLeft, bottomRight: bottomRight}
}

// Name returns "square".
func (r Square) Name() string { return "square" }

// ToMap encodes the range as a wire map.
func (r Square) ToMap() map[string]any {
	return map[string]any{
		"top_left":     r.topLeft.ToMap(),
		"bottom_right": r.bottomRight.ToMap(),
	}
}
