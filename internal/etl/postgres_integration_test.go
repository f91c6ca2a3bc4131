//go:build integration

package etl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/BartekS5/sap-etl/internal/staging"
	"github.com/BartekS5/sap-etl/internal/transform"
	"github.com/BartekS5/sap-etl/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "etl",
			"POSTGRES_PASSWORD": "etl",
			"POSTGRES_DB":       "warehouse",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://etl:etl@%s:%s/warehouse?sslmode=disable", host, port.Port())
}

func TestPostgresWarehouse(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}
	ctx := context.Background()
	dsn := startPostgres(t, ctx)

	d, err := database.DialectFor("postgres")
	require.NoError(t, err)
	db, err := database.ConnectSQL(d, dsn)
	require.NoError(t, err)
	defer db.Close()
	w := NewSQLWarehouse(db, d)

	store := staging.NewMemoryStore()
	stage(t, store, "products", rawProducts, fixedNow)
	tl := NewTransformLoader(store, NewTransformer(transform.Default()), w, "bronze")
	tl.Entities = []string{"products"}
	tl.Now = clock

	rep := tl.TransformAndLoadAll(ctx)
	require.Empty(t, rep.Failed())

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bronze.products`).Scan(&n))
	assert.Equal(t, 1, n)

	var price string
	var changed time.Time
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT unit_price::text, dt_changed_at FROM bronze.products WHERE product_id = $1`, "RC-1052").Scan(&price, &changed))
	assert.Equal(t, "1400", price)
	assert.Equal(t, time.Date(2018, 11, 4, 0, 0, 0, 0, time.UTC), changed.UTC())

	_, err = db.ExecContext(ctx, `
CREATE OR REPLACE PROCEDURE process_dim_products() LANGUAGE plpgsql AS $$
BEGIN
	DROP TABLE IF EXISTS public.dim_products;
	CREATE TABLE public.dim_products AS SELECT product_id, unit_price FROM bronze.products;
END
$$`)
	require.NoError(t, err)
	require.NoError(t, w.CallProcedure(ctx, "process_dim_products"))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM public.dim_products`).Scan(&n))
	assert.Equal(t, 1, n)
}
