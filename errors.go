package quadgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/quadgo/quadtree"
	"github.com/hupe1980/quadgo/snapshot"
)

var (
	// ErrNotFound is returned when an entry is not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrTrackingDisabled is returned when a payload operation is attempted
	// on an index built without object tracking.
	ErrTrackingDisabled = errors.New("object tracking is disabled")

	// ErrIDInUse is returned when a caller-supplied identifier collides with
	// a live entry.
	ErrIDInUse = errors.New("identifier already in use")

	// ErrCustomIDUnsupported is returned when a caller-supplied identifier is
	// passed to an index using dense identifier assignment.
	ErrCustomIDUnsupported = errors.New("custom identifiers require sparse identifier mode")

	// ErrUnknownCodec is returned when a snapshot records a codec name this
	// build does not know.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrPayloadNotAllowed is returned when a snapshot carries payload bytes
	// and the caller did not opt in to decoding them.
	ErrPayloadNotAllowed = snapshot.ErrPayloadNotAllowed
)

// ErrOutOfBounds indicates a geometry not fully inside the index bounds.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrOutOfBounds struct {
	Geom   string
	Bounds string
	cause  error
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("out of bounds: %s not within %s", e.Geom, e.Bounds)
}

func (e *ErrOutOfBounds) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Format errors from both framing layers read the same to callers.
	if errors.Is(err, snapshot.ErrInvalidMagic) || errors.Is(err, snapshot.ErrInvalidVersion) {
		return fmt.Errorf("snapshot: %w", err)
	}
	if errors.Is(err, quadtree.ErrInvalidMagic) || errors.Is(err, quadtree.ErrInvalidVersion) {
		return fmt.Errorf("snapshot: %w", err)
	}

	return err
}
