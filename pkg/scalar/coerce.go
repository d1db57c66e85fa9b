package scalar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/containerd/errdefs"
)

// TypeMismatchError reports a value whose runtime shape cannot be losslessly
// converted to its resolved kind. It is scoped to a single field; callers
// keep resolving siblings.
type TypeMismatchError struct {
	Field string
	Kind  Kind
	Value any
}

func (e *TypeMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("scalar: value %v (%T) does not coerce to %s", e.Value, e.Value, e.Kind)
	}
	return fmt.Sprintf("scalar: field %q: value %v (%T) does not coerce to %s", e.Field, e.Value, e.Value, e.Kind)
}

func (e *TypeMismatchError) Unwrap() error { return errdefs.ErrInvalidArgument }

func mismatch(kind Kind, value any) error {
	return &TypeMismatchError{Kind: kind, Value: value}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

var timeLayouts = []string{"15:04:05", "15:04"}

// Coerce converts value into the canonical representation of kind. nil
// coerces to the kind's zero value. Conversions are accepted only when
// lossless: a numeric string fits an Integer field, an integral float does,
// a fractional one does not.
func Coerce(kind Kind, value any) (any, error) {
	if value == nil {
		return Zero(kind), nil
	}
	switch kind {
	case KindInteger:
		return coerceInt(value)
	case KindLong:
		return coerceLong(value)
	case KindFloat:
		return coerceFloat(value)
	case KindComplex:
		return coerceComplex(value)
	case KindBoolean:
		return coerceBool(value)
	case KindString, KindText:
		return coerceString(kind, value)
	case KindDate:
		return coerceTime(kind, value, dateLayouts)
	case KindTime:
		return coerceTime(kind, value, timeLayouts)
	default:
		return nil, fmt.Errorf("scalar: unknown kind %q", kind)
	}
}

// Validate reports whether value already is, or losslessly converts to, kind.
func Validate(kind Kind, value any) error {
	_, err := Coerce(kind, value)
	return err
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint:
		if uint64(v) > math.MaxInt {
			return nil, mismatch(KindInteger, value)
		}
		return int(v), nil
	case int64:
		if v > math.MaxInt || v < math.MinInt {
			return nil, mismatch(KindInteger, value)
		}
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return nil, mismatch(KindInteger, value)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt || v < math.MinInt {
			return nil, mismatch(KindInteger, value)
		}
		return int(v), nil
	case float32:
		return coerceInt(float64(v))
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, mismatch(KindInteger, value)
		}
		return parsed, nil
	default:
		return nil, mismatch(KindInteger, value)
	}
}

func coerceLong(value any) (any, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int, int8, int16, int32:
		n, _ := coerceInt(v)
		return int64(n.(int)), nil
	case uint8, uint16, uint32:
		n, _ := coerceInt(v)
		return int64(n.(int)), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, mismatch(KindLong, value)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, mismatch(KindLong, value)
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return nil, mismatch(KindLong, value)
		}
		return int64(v), nil
	case float32:
		return coerceLong(float64(v))
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, mismatch(KindLong, value)
		}
		return parsed, nil
	default:
		return nil, mismatch(KindLong, value)
	}
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, mismatch(KindFloat, value)
		}
		return parsed, nil
	default:
		return nil, mismatch(KindFloat, value)
	}
}

func coerceComplex(value any) (any, error) {
	switch v := value.(type) {
	case complex128:
		return v, nil
	case complex64:
		return complex128(v), nil
	case string:
		parsed, err := strconv.ParseComplex(strings.TrimSpace(v), 128)
		if err != nil {
			return nil, mismatch(KindComplex, value)
		}
		return parsed, nil
	default:
		f, err := coerceFloat(value)
		if err != nil {
			return nil, mismatch(KindComplex, value)
		}
		return complex(f.(float64), 0), nil
	}
}

func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, mismatch(KindBoolean, value)
		}
		return parsed, nil
	default:
		return nil, mismatch(KindBoolean, value)
	}
}

func coerceString(kind Kind, value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return nil, mismatch(kind, value)
	}
}

func coerceTime(kind Kind, value any, layouts []string) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed, nil
			}
		}
		return nil, mismatch(kind, value)
	default:
		return nil, mismatch(kind, value)
	}
}
