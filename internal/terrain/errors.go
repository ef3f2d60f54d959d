package terrain

import "errors"

// Errors reported by Storage. Every failing operation leaves the storage unchanged.
var (
	ErrRegionExists      = errors.New("region already exists")
	ErrRegionNotFound    = errors.New("region does not exist")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrOutOfBounds       = errors.New("offset outside region map")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrUnsupportedMap    = errors.New("unsupported map type")
	ErrInvalidRegionSize = errors.New("invalid region size")
	ErrInvalidMaxHeight  = errors.New("invalid max height")
	ErrInvalidMap        = errors.New("invalid map")
	ErrRegionCount       = errors.New("list length differs from region count")
	ErrNilLayer          = errors.New("nil layer")
	ErrLayerTexture      = errors.New("layer textures differ in size or format")
	ErrClosed            = errors.New("storage closed")
)
