package geom

import (
	"fmt"
	"reflect"
)

// DType identifies one of the four fixed-width coordinate encodings.
// The tag is persisted in snapshots so a decoded index can verify that its
// byte stream matches the instantiated coordinate type.
type DType uint8

const (
	DTypeInvalid DType = iota
	DTypeF32
	DTypeF64
	DTypeI32
	DTypeI64
)

// String returns the stable tag name used in snapshot headers.
func (dt DType) String() string {
	switch dt {
	case DTypeF32:
		return "f32"
	case DTypeF64:
		return "f64"
	case DTypeI32:
		return "i32"
	case DTypeI64:
		return "i64"
	default:
		return "invalid"
	}
}

// Size returns the width of one coordinate in bytes.
func (dt DType) Size() int {
	switch dt {
	case DTypeF32, DTypeI32:
		return 4
	case DTypeF64, DTypeI64:
		return 8
	default:
		return 0
	}
}

// DTypeOf returns the encoding tag for the coordinate type C. Named types
// encode with the width of their underlying kind.
func DTypeOf[C Coord]() DType {
	var zero C
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Float32:
		return DTypeF32
	case reflect.Float64:
		return DTypeF64
	case reflect.Int32:
		return DTypeI32
	case reflect.Int64:
		return DTypeI64
	default:
		return DTypeInvalid
	}
}

// ErrDTypeMismatch indicates that serialized data was produced with a
// different coordinate encoding than the index it is being loaded into.
// It is rejected before any mutation occurs.
type ErrDTypeMismatch struct {
	Expected DType
	Actual   DType
}

func (e *ErrDTypeMismatch) Error() string {
	return fmt.Sprintf("coordinate dtype mismatch: expected %s, got %s", e.Expected, e.Actual)
}
