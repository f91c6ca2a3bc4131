// Package transform holds the per-entity cleaning rules. Every entity is a
// fixed list of steps run over a copy of the raw table; nothing here does
// I/O or keeps state between calls.
package transform

import (
	"fmt"

	"github.com/BartekS5/sap-etl/pkg/models"
)

// Entity is one business object type and the rules that clean it.
type Entity struct {
	Name string
	// Key lists the primary key columns of the cleaned table.
	Key   []string
	Steps []Step
}

// Transform applies the entity's steps to a copy of raw. The first step
// that fails aborts the transform.
func (e Entity) Transform(raw *models.Table) (*models.Table, error) {
	t := raw.Clone()
	for _, s := range e.Steps {
		if err := s.Apply(t); err != nil {
			return nil, fmt.Errorf("%s: step %s: %w", e.Name, s.Name, err)
		}
	}
	return t, nil
}

// Registry resolves entities by name and keeps their processing order.
type Registry struct {
	order    []string
	entities map[string]Entity
}

func NewRegistry(entities ...Entity) *Registry {
	r := &Registry{entities: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		if _, dup := r.entities[e.Name]; !dup {
			r.order = append(r.order, e.Name)
		}
		r.entities[e.Name] = e
	}
	return r
}

func (r *Registry) Get(name string) (Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Names returns entity names in processing order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Default returns the nine SAP sales entities in pipeline order.
func Default() *Registry {
	return NewRegistry(
		Addresses,
		BusinessPartners,
		Employees,
		ProductCategories,
		ProductCategoryText,
		ProductTexts,
		Products,
		SalesOrderItems,
		SalesOrders,
	)
}
