package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the storage class of a field.
type Kind int

const (
	// KindText holds verbatim strings.
	KindText Kind = iota
	// KindNumeric holds float64 values.
	KindNumeric
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one cell. Num is only meaningful for numeric cells; null numeric
// cells carry NaN.
type Value struct {
	Raw  string
	Num  float64
	Kind Kind
	Null bool
}

// NumberValue builds a numeric cell.
func NumberValue(f float64) Value {
	if math.IsNaN(f) {
		return Value{Num: math.NaN(), Kind: KindNumeric, Null: true}
	}
	return Value{Raw: formatFloat(f), Num: f, Kind: KindNumeric}
}

// TextValue builds a text cell.
func TextValue(s string) Value {
	return Value{Raw: s, Kind: KindText}
}

// NullValue builds a missing cell of the given kind.
func NullValue(k Kind) Value {
	v := Value{Kind: k, Null: true}
	if k == KindNumeric {
		v.Num = math.NaN()
	}
	return v
}

// Float coerces the cell to a number. Text cells are parsed; null cells
// never coerce.
func (v Value) Float() (float64, bool) {
	if v.Null {
		return math.NaN(), false
	}
	if v.Kind == KindNumeric {
		return v.Num, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Raw), 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

// String renders numbers in their shortest exact form and text verbatim.
func (v Value) String() string {
	if v.Null {
		return ""
	}
	if v.Kind == KindNumeric {
		return formatFloat(v.Num)
	}
	return v.Raw
}

// Any returns float64, string or nil.
func (v Value) Any() any {
	switch {
	case v.Null:
		return nil
	case v.Kind == KindNumeric:
		return v.Num
	default:
		return v.Raw
	}
}

// Equal compares by kind and content. Nulls are never equal.
func (v Value) Equal(o Value) bool {
	if v.Null || o.Null || v.Kind != o.Kind {
		return false
	}
	if v.Kind == KindNumeric {
		return v.Num == o.Num
	}
	return v.Raw == o.Raw
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cellText turns a decoded cell into its raw text and reports whether it is
// natively numeric.
func cellText(cell any) (raw string, num float64, numeric bool, null bool) {
	switch c := cell.(type) {
	case nil:
		return "", math.NaN(), false, true
	case string:
		if strings.TrimSpace(c) == "" {
			return "", math.NaN(), false, true
		}
		return c, math.NaN(), false, false
	case float64:
		if math.IsNaN(c) {
			return "", c, true, true
		}
		return formatFloat(c), c, true, false
	case float32:
		return cellText(float64(c))
	case int:
		return strconv.Itoa(c), float64(c), true, false
	case int8:
		return cellText(int(c))
	case int16:
		return cellText(int(c))
	case int32:
		return cellText(int(c))
	case int64:
		return strconv.FormatInt(c, 10), float64(c), true, false
	case uint:
		return cellText(uint64(c))
	case uint8:
		return cellText(uint64(c))
	case uint16:
		return cellText(uint64(c))
	case uint32:
		return cellText(uint64(c))
	case uint64:
		return strconv.FormatUint(c, 10), float64(c), true, false
	case bool:
		return strconv.FormatBool(c), math.NaN(), false, false
	case fmt.Stringer:
		return cellText(c.String())
	default:
		return fmt.Sprint(c), math.NaN(), false, false
	}
}
