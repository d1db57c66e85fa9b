// Package scalar enumerates the primitive kinds a field can hold and the
// coercion rules between native Go values and those kinds.
package scalar

import "time"

// Kind is the enumeration of primitive field kinds.
type Kind string

const (
	KindInteger Kind = "integer"
	KindString  Kind = "string"
	KindComplex Kind = "complex"
	KindFloat   Kind = "float"
	KindBoolean Kind = "boolean"
	KindLong    Kind = "long"
	KindText    Kind = "text"
	KindDate    Kind = "date"
	KindTime    Kind = "time"
)

// Valid reports whether k is one of the catalog kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInteger, KindString, KindComplex, KindFloat, KindBoolean,
		KindLong, KindText, KindDate, KindTime:
		return true
	}
	return false
}

// Numeric reports whether the kind holds a numeric representation.
func (k Kind) Numeric() bool {
	switch k {
	case KindInteger, KindLong, KindFloat, KindComplex:
		return true
	}
	return false
}

// KindOf inspects a native Go value and returns the kind it infers to.
// Plain strings infer to Text rather than String, matching how untyped
// input is edited. The second return is false when the value is not a
// scalar the catalog knows about (maps, slices, structs, nil).
func KindOf(value any) (Kind, bool) {
	switch value.(type) {
	case bool:
		return KindBoolean, true
	case int, int8, int16, int32, uint, uint8, uint16, uint32:
		return KindInteger, true
	case int64, uint64:
		return KindLong, true
	case float32, float64:
		return KindFloat, true
	case complex64, complex128:
		return KindComplex, true
	case string:
		return KindText, true
	case time.Time:
		return KindDate, true
	default:
		return "", false
	}
}

// Zero returns the empty placeholder value for a kind.
func Zero(kind Kind) any {
	switch kind {
	case KindInteger:
		return int(0)
	case KindLong:
		return int64(0)
	case KindFloat:
		return float64(0)
	case KindComplex:
		return complex128(0)
	case KindBoolean:
		return false
	case KindString, KindText:
		return ""
	case KindDate, KindTime:
		return time.Time{}
	default:
		return nil
	}
}
