package etl

import (
	"errors"
	"fmt"

	"github.com/BartekS5/sap-etl/internal/transform"
	"github.com/BartekS5/sap-etl/pkg/models"
)

// ErrDuplicateKey is returned when a cleaned table repeats a primary key.
var ErrDuplicateKey = errors.New("duplicate primary key")

// ErrNullKey is returned when a cleaned row has no value for a key column.
var ErrNullKey = errors.New("null primary key")

type Validator struct {
	Registry *transform.Registry
}

func NewValidator(r *transform.Registry) *Validator {
	return &Validator{Registry: r}
}

// Validate checks that every key column of entity exists, is filled in
// every row and that no key repeats.
func (v *Validator) Validate(entity string, t *models.Table) error {
	e, ok := v.Registry.Get(entity)
	if !ok {
		return fmt.Errorf("unknown entity %q", entity)
	}
	return validateKey(e.Key, t)
}

func validateKey(key []string, t *models.Table) error {
	for _, k := range key {
		if !t.HasColumn(k) {
			return fmt.Errorf("missing required key column: %s", k)
		}
	}
	seen := make(map[string]int, t.Len())
	for i, r := range t.Rows {
		for _, k := range key {
			if r[k] == nil {
				return fmt.Errorf("row %d: %w %s", i+1, ErrNullKey, k)
			}
		}
		id := transform.KeyOf(r, key)
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("rows %d and %d: %w %q", prev+1, i+1, ErrDuplicateKey, id)
		}
		seen[id] = i
	}
	return nil
}
