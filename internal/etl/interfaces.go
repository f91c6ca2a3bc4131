package etl

import (
	"context"

	"github.com/BartekS5/sap-etl/pkg/models"
)

// Source serves one page of an endpoint. An empty table ends pagination.
type Source interface {
	FetchPage(ctx context.Context, endpoint string, page int) (*models.Table, error)
}

// Loader replaces a warehouse table with the given rows.
type Loader interface {
	Replace(ctx context.Context, schema, table string, t *models.Table) error
}

// ProcedureRunner invokes a stored procedure in the warehouse.
type ProcedureRunner interface {
	CallProcedure(ctx context.Context, name string) error
}
