package etl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/BartekS5/sap-etl/pkg/database"
	"github.com/BartekS5/sap-etl/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteWarehouse(t *testing.T) *SQLWarehouse {
	t.Helper()
	d, err := database.DialectFor("sqlite")
	require.NoError(t, err)
	db, err := database.ConnectSQL(d, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLWarehouse(db, d)
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)).Scan(&n))
	return n
}

func TestColumnKinds(t *testing.T) {
	tbl := models.NewTable("id", "price", "weight", "dt", "flag", "name", "empty", "mixed")
	tbl.Append(models.Record{
		"id":     int64(1),
		"price":  decimal.RequireFromString("1.50"),
		"weight": 7.5,
		"dt":     time.Date(2018, 10, 3, 0, 0, 0, 0, time.UTC),
		"flag":   true,
		"name":   "Roadster",
		"mixed":  int64(3),
	})
	tbl.Append(models.Record{"id": int64(2), "price": int64(3), "weight": int64(2), "mixed": "x"})

	assert.Equal(t, []database.ColumnKind{
		database.KindInteger,
		database.KindDecimal,
		database.KindFloat,
		database.KindDate,
		database.KindBool,
		database.KindText,
		database.KindText,
		database.KindText,
	}, ColumnKinds(tbl))
}

func TestBindValue(t *testing.T) {
	assert.Equal(t, "42", bindValue(int64(42), database.KindText))
	assert.Equal(t, 2.0, bindValue(int64(2), database.KindFloat))
	assert.True(t, decimal.NewFromInt(3).Equal(bindValue(int64(3), database.KindDecimal).(decimal.Decimal)))
	assert.Nil(t, bindValue(nil, database.KindInteger))
}

func TestReplaceIsFullReplacement(t *testing.T) {
	ctx := context.Background()
	w := sqliteWarehouse(t)

	first := models.NewTable("product_id", "unit_price", "weight_measure")
	for i := 0; i < 1200; i++ {
		first.Append(models.Record{
			"product_id":     fmt.Sprintf("P-%04d", i),
			"unit_price":     decimal.New(int64(i), -2),
			"weight_measure": float64(i) / 2,
		})
	}
	require.NoError(t, w.Replace(ctx, "bronze", "products", first))
	assert.Equal(t, 1200, count(t, w.DB, "products"))

	second := models.NewTable("product_id", "category")
	second.Append(models.Record{"product_id": "RC-1052", "category": "RC"})
	require.NoError(t, w.Replace(ctx, "bronze", "products", second))
	assert.Equal(t, 1, count(t, w.DB, "products"))

	var id, category string
	require.NoError(t, w.DB.QueryRow(`SELECT product_id, category FROM "products"`).Scan(&id, &category))
	assert.Equal(t, "RC-1052", id)
	assert.Equal(t, "RC", category)
}

func TestReplaceEmptyTableCreatesIt(t *testing.T) {
	ctx := context.Background()
	w := sqliteWarehouse(t)

	require.NoError(t, w.Replace(ctx, "", "employees", models.NewTable("employee_id")))
	assert.Equal(t, 0, count(t, w.DB, "employees"))

	assert.Error(t, w.Replace(ctx, "", "employees", models.NewTable()))
}

func TestReplaceRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	w := sqliteWarehouse(t)

	ok := models.NewTable("id")
	ok.Append(models.Record{"id": int64(1)})
	require.NoError(t, w.Replace(ctx, "", "t", ok))

	cols := make([]string, 1000)
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	wide := models.NewTable(cols...)
	wide.Append(models.Record{})
	assert.Error(t, w.Replace(ctx, "", "t", wide))
	assert.Equal(t, 1, count(t, w.DB, "t"), "previous table survives a failed replace")
}

func TestCallProcedure(t *testing.T) {
	w := sqliteWarehouse(t)

	err := w.CallProcedure(context.Background(), "process_dim_products")
	assert.True(t, errors.Is(err, database.ErrUnsupported))

	err = w.CallProcedure(context.Background(), "x; DROP TABLE products")
	assert.Error(t, err)
}
