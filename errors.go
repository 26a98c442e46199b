package loupe

import "errors"

var (
	// ErrMissingCoordinate signals a geo-distance sort on a query built
	// without a coordinate.
	ErrMissingCoordinate = errors.New("coordinate required for geo distance sort")
	// ErrInvalidFormat signals a wire map with missing required keys or
	// unrecognized enumerated values. All decode failures wrap it.
	ErrInvalidFormat = errors.New("invalid wire format")
	// ErrEndpointRequired signals client construction without an endpoint.
	ErrEndpointRequired = errors.New("loupe: endpoint required (use WithEndpoint)")
)
