package repo

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// coerce maps a driver value onto the shapes the shaper and reconstructor read:
// integers become int64, reals float64, ids string, timestamps time.Time
func coerce(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int64, float64, string, bool, time.Time:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case [16]byte:
		return uuid.UUID(x).String()
	case uuid.UUID:
		return x.String()
	case pgtype.UUID:
		if !x.Valid {
			return nil
		}
		return uuid.UUID(x.Bytes).String()
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case decimal.Decimal:
		return x.InexactFloat64()
	}

	// nullable columns arrive as typed pointers
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return coerce(rv.Elem().Interface())
	}
	return v
}

func coerceRows(rows [][]any) [][]any {
	for _, r := range rows {
		for i := range r {
			r[i] = coerce(r[i])
		}
	}
	return rows
}
