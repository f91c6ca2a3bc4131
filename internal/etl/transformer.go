package etl

import (
	"fmt"

	"github.com/BartekS5/sap-etl/internal/transform"
	"github.com/BartekS5/sap-etl/pkg/models"
)

// Transformer runs an entity's rules and checks the result before it is
// handed to a loader.
type Transformer struct {
	Registry  *transform.Registry
	Validator *Validator
}

func NewTransformer(r *transform.Registry) *Transformer {
	return &Transformer{Registry: r, Validator: NewValidator(r)}
}

func (t *Transformer) Transform(entity string, raw *models.Table) (*models.Table, error) {
	e, ok := t.Registry.Get(entity)
	if !ok {
		return nil, fmt.Errorf("no transform registered for %q", entity)
	}
	out, err := e.Transform(raw)
	if err != nil {
		return nil, err
	}
	if err := t.Validator.Validate(entity, out); err != nil {
		return nil, fmt.Errorf("%s: %w", entity, err)
	}
	return out, nil
}
