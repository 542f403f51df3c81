package properties

import (
	"encoding/base64"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diwise/cheap/pkg/cheap/errors"
)

// PropertyType identifies the scalar type of a property slot
type PropertyType int

const (
	Integer PropertyType = iota + 1
	Float
	Boolean
	String
	Text
	Decimal
	DateTime
	URI
	UUID
	Blob
)

var typeNames = map[PropertyType]string{
	Integer:  "Integer",
	Float:    "Float",
	Boolean:  "Boolean",
	String:   "String",
	Text:     "Text",
	Decimal:  "Decimal",
	DateTime: "DateTime",
	URI:      "URI",
	UUID:     "UUID",
	Blob:     "Blob",
}

func (t PropertyType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PropertyType(%d)", int(t))
}

func (t PropertyType) IsValid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParsePropertyType is case insensitive
func ParsePropertyType(name string) (PropertyType, error) {
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return 0, errors.NewConfigurationError("unknown property type %q", name)
}

// Coerce converts v into the canonical Go representation of the type:
// int64, float64, bool, string, decimal.Decimal, time.Time, uuid.UUID or []byte.
// Values are accepted in the forms database drivers commonly hand back, which
// includes string encodings of every type. Nil is returned unchanged.
func (t PropertyType) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case Integer:
		return toInt64(v)
	case Float:
		return toFloat64(v)
	case Boolean:
		return toBool(v)
	case String, Text:
		return toString(v)
	case Decimal:
		return toDecimal(v)
	case DateTime:
		return toTime(v)
	case URI:
		return toURI(v)
	case UUID:
		return toUUID(v)
	case Blob:
		return toBytes(v)
	}

	return nil, fmt.Errorf("unsupported property type %s", t)
}

func toInt64(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows Integer", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("value %v is not integral", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(n)), 10, 64)
	}
	return nil, fmt.Errorf("cannot convert %T to Integer", v)
}

func toFloat64(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	}
	return nil, fmt.Errorf("cannot convert %T to Float", v)
}

func toBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case int:
		return b != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	case []byte:
		return strconv.ParseBool(strings.TrimSpace(string(b)))
	}
	return nil, fmt.Errorf("cannot convert %T to Boolean", v)
}

func toString(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return nil, fmt.Errorf("cannot convert %T to String", v)
}

func toDecimal(v any) (any, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(d))
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(d)))
	case float64:
		return decimal.NewFromFloat(d), nil
	case int64:
		return decimal.NewFromInt(d), nil
	case int:
		return decimal.NewFromInt(int64(d)), nil
	}
	return nil, fmt.Errorf("cannot convert %T to Decimal", v)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func toTime(v any) (any, error) {
	var s string

	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return nil, fmt.Errorf("cannot convert %T to DateTime", v)
	}

	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}

	return nil, fmt.Errorf("cannot parse %q as DateTime", s)
}

func toURI(v any) (any, error) {
	var s string

	switch u := v.(type) {
	case string:
		s = u
	case []byte:
		s = string(u)
	case *url.URL:
		s = u.String()
	case url.URL:
		s = u.String()
	default:
		return nil, fmt.Errorf("cannot convert %T to URI", v)
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid URI %q: %w", s, err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("URI %q is not absolute", s)
	}

	return s, nil
}

func toUUID(v any) (any, error) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, nil
	case [16]byte:
		return uuid.UUID(id), nil
	case string:
		return uuid.Parse(strings.TrimSpace(id))
	case []byte:
		if len(id) == 16 {
			return uuid.FromBytes(id)
		}
		return uuid.ParseBytes(id)
	}
	return nil, fmt.Errorf("cannot convert %T to UUID", v)
}

func toBytes(v any) (any, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		// blobs travel as base64 through text encodings such as JSON arrays
		decoded, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, fmt.Errorf("blob string is not base64: %w", err)
		}
		return decoded, nil
	}
	return nil, fmt.Errorf("cannot convert %T to Blob", v)
}
