package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CoerceFloat converts a heterogeneous cell into a float64. Floats pass through
// unchanged. Strings may carry thousands separators, surrounding whitespace and
// accounting parentheses. nil, blank, NaN, Inf and unparsable values are
// "missing": fill is returned with ok=false. It never fails.
func CoerceFloat(v any, fill float64) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return fill, false
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fill, false
		}
		return x, true
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fill, false
		}
		return f, true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case decimal.Decimal:
		return x.InexactFloat64(), true
	case json.Number:
		return parseNumeric(string(x), fill)
	case string:
		return parseNumeric(x, fill)
	case []byte:
		return parseNumeric(string(x), fill)
	default:
		return fill, false
	}
}

// CoerceColumn coerces every value and returns how many were missing.
func CoerceColumn(values []any, fill float64) ([]float64, int) {
	out := make([]float64, len(values))
	missing := 0
	for i, v := range values {
		f, ok := CoerceFloat(v, fill)
		if !ok {
			missing++
		}
		out[i] = f
	}
	return out, missing
}

func parseNumeric(s string, fill float64) (float64, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return fill, false
	}
	return d.InexactFloat64(), true
}

// ParseDecimal parses a locale-tolerant numeric string.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// Sum adds values exactly in decimal and returns the float64 nearest to the total.
// NaN and Inf are skipped.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

// Accumulator is a running decimal sum.
type Accumulator struct {
	total decimal.Decimal
}

// Add adds v to the running total; NaN and Inf are ignored.
func (a *Accumulator) Add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	a.total = a.total.Add(decimal.NewFromFloat(v))
}

// Float64 returns the current total.
func (a *Accumulator) Float64() float64 {
	return a.total.InexactFloat64()
}

// CoerceBool reads an is_active/is_valid style flag.
func CoerceBool(v any) (bool, bool) {
	switch x := v.(type) {
	case nil:
		return false, false
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "1.0", "true", "t", "yes", "y":
			return true, true
		case "0", "0.0", "false", "f", "no", "n":
			return false, true
		case "":
			return false, false
		}
	}
	f, ok := CoerceFloat(v, 0)
	if !ok {
		return false, false
	}
	return f != 0, true
}

var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// CoerceTime reads a date/time cell; missing or unparsable values return ok=false.
func CoerceTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// CoerceString renders a cell as trimmed text; nil becomes "".
func CoerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return decimal.NewFromFloat(x).String()
	case time.Time:
		return x.Format("2006-01-02")
	case []byte:
		return strings.TrimSpace(string(x))
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
