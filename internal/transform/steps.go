package transform

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BartekS5/sap-etl/pkg/models"
	"github.com/BartekS5/sap-etl/pkg/utils"
	"golang.org/x/text/encoding/charmap"
)

// ErrMissingColumn is returned when a step reads a column the table lacks.
var ErrMissingColumn = errors.New("missing column")

// Step is one named rule applied to a table in place.
type Step struct {
	Name  string
	Apply func(t *models.Table) error
}

func requireColumns(t *models.Table, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// mapColumn replaces every value of col with fn(value).
func mapColumn(t *models.Table, col string, fn func(v interface{}) (interface{}, error)) error {
	for i, r := range t.Rows {
		nv, err := fn(r[col])
		if err != nil {
			return fmt.Errorf("column %s, row %d: %w", col, i+1, err)
		}
		r[col] = nv
	}
	return nil
}

// LowerHeaders lower-cases every column name.
func LowerHeaders() Step {
	return Step{Name: "lower_headers", Apply: func(t *models.Table) error {
		names := make(map[string]string, len(t.Columns))
		for _, c := range t.Columns {
			if l := strings.ToLower(c); l != c {
				names[c] = l
			}
		}
		return t.RenameColumns(names)
	}}
}

// Rename maps source column identifiers to target schema names.
func Rename(columns Lookup) Step {
	return Step{Name: "rename", Apply: func(t *models.Table) error {
		return t.RenameColumns(columns.Pairs())
	}}
}

// Dedupe keeps the last-seen row for every distinct key. Surviving rows
// keep their relative order.
func Dedupe(key ...string) Step {
	return Step{Name: "dedupe", Apply: func(t *models.Table) error {
		if err := requireColumns(t, key...); err != nil {
			return err
		}
		last := make(map[string]int, len(t.Rows))
		for i, r := range t.Rows {
			last[KeyOf(r, key)] = i
		}
		if len(last) == len(t.Rows) {
			return nil
		}
		kept := make([]models.Record, 0, len(last))
		for i, r := range t.Rows {
			if last[KeyOf(r, key)] == i {
				kept = append(kept, r)
			}
		}
		t.Rows = kept
		return nil
	}}
}

// KeyOf renders the key columns of r as one comparable string. Values are
// compared trimmed, so keys that only differ in padding are one key.
func KeyOf(r models.Record, key []string) string {
	if len(key) == 1 {
		return strings.TrimSpace(utils.ToString(r[key[0]]))
	}
	parts := make([]string, len(key))
	for i, k := range key {
		parts[i] = strings.TrimSpace(utils.ToString(r[k]))
	}
	return strings.Join(parts, "\x1f")
}

// Strip trims surrounding whitespace from text values.
func Strip(cols ...string) Step {
	return Step{Name: "strip", Apply: func(t *models.Table) error {
		if err := requireColumns(t, cols...); err != nil {
			return err
		}
		for _, c := range cols {
			_ = mapColumn(t, c, func(v interface{}) (interface{}, error) {
				if s, ok := v.(string); ok {
					return strings.TrimSpace(s), nil
				}
				return v, nil
			})
		}
		return nil
	}}
}

// ParseDates converts YYYYMMDD codes to dates. Missing cells stay nil.
func ParseDates(cols ...string) Step {
	return parseDates("parse_dates", "", cols)
}

// ParseDatesWithSentinel is ParseDates where code maps to a missing date.
func ParseDatesWithSentinel(sentinel string, cols ...string) Step {
	return parseDates("parse_dates_sentinel", sentinel, cols)
}

func parseDates(name, sentinel string, cols []string) Step {
	return Step{Name: name, Apply: func(t *models.Table) error {
		if err := requireColumns(t, cols...); err != nil {
			return err
		}
		for _, c := range cols {
			err := mapColumn(t, c, func(v interface{}) (interface{}, error) {
				if utils.IsMissing(v) {
					return nil, nil
				}
				code := strings.TrimSuffix(strings.TrimSpace(utils.ToString(v)), ".0")
				if sentinel != "" && code == sentinel {
					return nil, nil
				}
				return utils.ParseDateCode(code)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}}
}

// Translate replaces coded values in col with their labels. Codes without
// a label are left unchanged.
func Translate(col string, labels Lookup) Step {
	return Step{Name: "translate_" + col, Apply: func(t *models.Table) error {
		if err := requireColumns(t, col); err != nil {
			return err
		}
		return mapColumn(t, col, func(v interface{}) (interface{}, error) {
			if s, ok := v.(string); ok {
				if label, found := labels.Get(s); found {
					return label, nil
				}
			}
			return v, nil
		})
	}}
}

// Drop removes columns not needed downstream. Absent columns are ignored.
func Drop(cols ...string) Step {
	return Step{Name: "drop", Apply: func(t *models.Table) error {
		t.DropColumns(cols...)
		return nil
	}}
}

// RenameOne renames a single column after derivations have used it.
func RenameOne(from, to string) Step {
	return Step{Name: "rename_" + from, Apply: func(t *models.Table) error {
		if err := requireColumns(t, from); err != nil {
			return err
		}
		return t.RenameColumns(map[string]string{from: to})
	}}
}

// FillMissing replaces nil or blank cells of col with value.
func FillMissing(col string, value interface{}) Step {
	return Step{Name: "fill_" + col, Apply: func(t *models.Table) error {
		if err := requireColumns(t, col); err != nil {
			return err
		}
		return mapColumn(t, col, func(v interface{}) (interface{}, error) {
			if utils.IsMissing(v) {
				return value, nil
			}
			return v, nil
		})
	}}
}

// Integer converts col to int64, filling missing cells with fill.
func Integer(col string, fill int64) Step {
	return Step{Name: "integer_" + col, Apply: func(t *models.Table) error {
		if err := requireColumns(t, col); err != nil {
			return err
		}
		return mapColumn(t, col, func(v interface{}) (interface{}, error) {
			if utils.IsMissing(v) {
				return fill, nil
			}
			return utils.ConvertToInt(v)
		})
	}}
}

// RoundMoney converts cols to decimals rounded to two places.
func RoundMoney(cols ...string) Step {
	return Step{Name: "round_money", Apply: func(t *models.Table) error {
		if err := requireColumns(t, cols...); err != nil {
			return err
		}
		for _, c := range cols {
			err := mapColumn(t, c, func(v interface{}) (interface{}, error) {
				if utils.IsMissing(v) {
					return nil, nil
				}
				d, err := utils.ConvertToDecimal(v)
				if err != nil {
					return nil, err
				}
				return d.Round(2), nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}}
}

// Derive adds (or overwrites) col with fn evaluated against every row.
// The inputs are checked for presence before any row is touched.
func Derive(col string, inputs []string, fn func(r models.Record) (interface{}, error)) Step {
	return Step{Name: "derive_" + col, Apply: func(t *models.Table) error {
		if err := requireColumns(t, inputs...); err != nil {
			return err
		}
		t.AddColumn(col)
		for i, r := range t.Rows {
			v, err := fn(r)
			if err != nil {
				return fmt.Errorf("column %s, row %d: %w", col, i+1, err)
			}
			r[col] = v
		}
		return nil
	}}
}

// RepairLatin1 undoes UTF-8 text that was decoded as Latin-1 upstream
// ("MÃ¼nchen" -> "München"). Values that do not round-trip are kept.
func RepairLatin1(col string) Step {
	enc := charmap.ISO8859_1.NewEncoder()
	return Step{Name: "repair_" + col, Apply: func(t *models.Table) error {
		if err := requireColumns(t, col); err != nil {
			return err
		}
		return mapColumn(t, col, func(v interface{}) (interface{}, error) {
			s, ok := v.(string)
			if !ok {
				return v, nil
			}
			raw, err := enc.String(s)
			if err != nil || !utf8.ValidString(raw) {
				return s, nil
			}
			return raw, nil
		})
	}}
}

var (
	intLiteral   = regexp.MustCompile(`^[+-]?(0|[1-9][0-9]*)$`)
	floatLiteral = regexp.MustCompile(`^[+-]?([0-9]+\.[0-9]*|\.[0-9]+|[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// InferTypes converts text columns whose every present value is numeric
// to int64 or float64. Columns listed in text, and columns with values
// carrying leading zeros, stay text.
func InferTypes(text ...string) Step {
	keep := make(map[string]bool, len(text))
	for _, c := range text {
		keep[c] = true
	}
	return Step{Name: "infer_types", Apply: func(t *models.Table) error {
		for _, c := range t.Columns {
			if keep[c] {
				continue
			}
			switch inferKind(t, c) {
			case kindInt:
				err := mapColumn(t, c, func(v interface{}) (interface{}, error) {
					if v == nil {
						return nil, nil
					}
					return strconv.ParseInt(strings.TrimSpace(v.(string)), 10, 64)
				})
				if err != nil {
					return err
				}
			case kindFloat:
				err := mapColumn(t, c, func(v interface{}) (interface{}, error) {
					if v == nil {
						return nil, nil
					}
					return strconv.ParseFloat(strings.TrimSpace(v.(string)), 64)
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	}}
}

type inferredKind int

const (
	kindText inferredKind = iota
	kindInt
	kindFloat
)

func inferKind(t *models.Table, col string) inferredKind {
	kind := kindInt
	seen := false
	for _, r := range t.Rows {
		v := r[col]
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return kindText
		}
		s = strings.TrimSpace(s)
		seen = true
		switch {
		case intLiteral.MatchString(s):
			// Integers beyond int64 keep their exact text.
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				return kindText
			}
		case floatLiteral.MatchString(s) && !leadingZero(s):
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				return kindText
			}
			kind = kindFloat
		default:
			return kindText
		}
	}
	if !seen {
		return kindText
	}
	return kind
}

func leadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}
