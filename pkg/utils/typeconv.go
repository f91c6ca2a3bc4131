package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateCodeLayout is the packed YYYYMMDD layout the source system uses.
const DateCodeLayout = "20060102"

// IsMissing reports whether a cell holds no usable value.
func IsMissing(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

// ToString renders a cell the way it appears in a CSV snapshot.
func ToString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02")
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ConvertToInt converts a cell to int64. Float text with a zero
// fraction ("12.0") is accepted since spreadsheet exports often carry it.
func ConvertToInt(val interface{}) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("cannot convert %v to int: has a fraction", v)
		}
		return int64(v), nil
	case decimal.Decimal:
		if !v.IsInteger() {
			return 0, fmt.Errorf("cannot convert %s to int: has a fraction", v)
		}
		return v.IntPart(), nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("cannot convert %q to int", v)
		}
		return int64(f), nil
	case []byte:
		return ConvertToInt(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", val)
	}
}

// ConvertToDecimal converts a cell to an exact decimal.
func ConvertToDecimal(val interface{}) (decimal.Decimal, error) {
	switch v := val.(type) {
	case decimal.Decimal:
		return v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("cannot convert %q to decimal: %w", v, err)
		}
		return d, nil
	case []byte:
		return ConvertToDecimal(string(v))
	default:
		return decimal.Zero, fmt.Errorf("cannot convert %T to decimal", val)
	}
}

// ParseDateCode parses a packed YYYYMMDD code into a UTC calendar date.
// Numeric cells are accepted, including float text such as "20181003.0".
func ParseDateCode(val interface{}) (time.Time, error) {
	s := strings.TrimSpace(ToString(val))
	s = strings.TrimSuffix(s, ".0")
	if len(s) != len(DateCodeLayout) {
		return time.Time{}, fmt.Errorf("unable to parse date code %q: want YYYYMMDD", s)
	}
	t, err := time.Parse(DateCodeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date code %q: %w", s, err)
	}
	return t, nil
}
