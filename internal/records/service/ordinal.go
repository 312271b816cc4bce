package service

import (
	"math"
	"time"

	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/records/domain"
)

// Date layouts accepted for range-mode string values, tried in order.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// ordinal maps an orderable value onto uint64 such that numeric (or
// chronological) order equals unsigned integer order. Numbers of any Go type
// are routed through float64 so that a value written as int compares equal to
// the same value read back from a JSON document as float64. Times and date
// strings map through Unix nanoseconds.
func ordinal(value any) (uint64, error) {
	switch v := value.(type) {
	case int:
		return floatOrdinal(float64(v))
	case int8:
		return floatOrdinal(float64(v))
	case int16:
		return floatOrdinal(float64(v))
	case int32:
		return floatOrdinal(float64(v))
	case int64:
		return floatOrdinal(float64(v))
	case uint:
		return floatOrdinal(float64(v))
	case uint8:
		return floatOrdinal(float64(v))
	case uint16:
		return floatOrdinal(float64(v))
	case uint32:
		return floatOrdinal(float64(v))
	case uint64:
		return floatOrdinal(float64(v))
	case float32:
		return floatOrdinal(float64(v))
	case float64:
		return floatOrdinal(v)
	case time.Time:
		return int64Ordinal(v.UnixNano()), nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return int64Ordinal(t.UnixNano()), nil
			}
		}
		return 0, apperrors.Wrapf(domain.ErrValueNotOrderable, "string %q is not a date", v)
	default:
		return 0, apperrors.Wrapf(domain.ErrValueNotOrderable, "type %T has no ordering", value)
	}
}

// int64Ordinal shifts a signed value into unsigned space: flipping the sign
// bit maps math.MinInt64 to 0 and math.MaxInt64 to math.MaxUint64.
func int64Ordinal(v int64) uint64 {
	return uint64(v) ^ (1 << 63)
}

// floatOrdinal applies the IEEE-754 order-preserving bit transform: positive
// floats get the sign bit set, negative floats are bitwise inverted. The
// resulting unsigned order matches float order for all finite values and
// infinities. NaN has no ordering and is rejected.
func floatOrdinal(v float64) (uint64, error) {
	if math.IsNaN(v) {
		return 0, apperrors.Wrap(domain.ErrValueNotOrderable, "NaN has no ordering")
	}

	bits := math.Float64bits(v)
	if bits&(1<<63) != 0 {
		return ^bits, nil
	}
	return bits | (1 << 63), nil
}
