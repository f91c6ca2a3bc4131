package etl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BartekS5/sap-etl/internal/staging"
	"github.com/BartekS5/sap-etl/internal/transform"
	"github.com/BartekS5/sap-etl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawProducts = `PRODUCTID,TYPECODE,PRODCATEGORYID,CREATEDBY,CREATEDAT,CHANGEDBY,CHANGEDAT,SUPPLIER_PARTNERID,TAXTARIFFCODE,QUANTITYUNIT,WEIGHTMEASURE,WEIGHTUNIT,CURRENCY,PRICE,WIDTH,DEPTH,HEIGHT,DIMENSIONUNIT,PRODUCTPICURL
RC-1052,PR,RC,12,20181003,12,20181003,100000000,1,EA,7.5,KG,USD,1299.999,,,,,
RC-1052,PR,RC,12,20181003,12,20181104,100000000,1,EA,7.5,KG,USD,1400.004,,,,,
`

const rawCategoryText = `PRODCATEGORYID,LANGUAGE,SHORT_DESCR,MEDIUM_DESCR,LONG_DESCR
RC,EN,Race Bikes,,
`

// recordingLoader keeps what it was asked to load.
type recordingLoader struct {
	tables map[string]*models.Table
	fail   map[string]error
}

func (l *recordingLoader) Replace(_ context.Context, schema, table string, t *models.Table) error {
	if err := l.fail[table]; err != nil {
		return err
	}
	if l.tables == nil {
		l.tables = map[string]*models.Table{}
	}
	l.tables[schema+"."+table] = t
	return nil
}

func stage(t *testing.T, store staging.Store, entity, csv string, at time.Time) string {
	t.Helper()
	name := staging.ObjectName(entity, at)
	require.NoError(t, store.Put(context.Background(), name, []byte(csv)))
	return name
}

func TestTransformAndLoadAllIntoSQLite(t *testing.T) {
	ctx := context.Background()
	store := staging.NewMemoryStore()
	stage(t, store, "products", "PRODUCTID\nstale\n", fixedNow.Add(-time.Hour))
	latest := stage(t, store, "products", rawProducts, fixedNow)
	stage(t, store, "product_category_text", rawCategoryText, fixedNow)

	w := sqliteWarehouse(t)
	tl := NewTransformLoader(store, NewTransformer(transform.Default()), w, "bronze")
	tl.Now = clock

	rep := tl.TransformAndLoadAll(ctx)
	require.Len(t, rep.Outcomes, 9)

	products, ok := rep.Outcome("products")
	require.True(t, ok)
	require.NoError(t, products.Err)
	assert.Equal(t, latest, products.Object)
	assert.Equal(t, 1, products.Rows)
	assert.Equal(t, 1, count(t, w.DB, "products"), "two raw rows with one product_id load as one")

	var price float64
	require.NoError(t, w.DB.QueryRow(`SELECT unit_price FROM "products" WHERE product_id = ?`, "RC-1052").Scan(&price))
	assert.InDelta(t, 1400.00, price, 1e-9)

	assert.Equal(t, 1, count(t, w.DB, "product_category_text"))

	addresses, _ := rep.Outcome("addresses")
	assert.True(t, errors.Is(addresses.Err, staging.ErrNoSnapshot), "entities without a snapshot fail alone")
	assert.Len(t, rep.Failed(), 7)
}

func TestTransformAndLoadAllContinuesAfterLoadError(t *testing.T) {
	store := staging.NewMemoryStore()
	stage(t, store, "products", rawProducts, fixedNow)
	stage(t, store, "product_category_text", rawCategoryText, fixedNow)

	loader := &recordingLoader{fail: map[string]error{"product_category_text": errors.New("disk full")}}
	tl := NewTransformLoader(store, NewTransformer(transform.Default()), loader, "bronze")
	tl.Entities = []string{"product_category_text", "products"}
	tl.Now = clock

	rep := tl.TransformAndLoadAll(context.Background())
	require.Len(t, rep.Failed(), 1)
	assert.Contains(t, rep.Failed()[0].Err.Error(), "disk full")
	assert.Contains(t, loader.tables, "bronze.products")
}

func TestTransformAndLoadAllDryRun(t *testing.T) {
	store := staging.NewMemoryStore()
	stage(t, store, "products", rawProducts, fixedNow)

	loader := &recordingLoader{}
	tl := NewTransformLoader(store, NewTransformer(transform.Default()), loader, "bronze")
	tl.Entities = []string{"products"}
	tl.Now = clock
	tl.DryRun = true

	rep := tl.TransformAndLoadAll(context.Background())
	assert.Empty(t, rep.Failed())
	out, _ := rep.Outcome("products")
	assert.Equal(t, 1, out.Rows)
	assert.Empty(t, loader.tables)
}

func TestTransformAndLoadAllBadSnapshot(t *testing.T) {
	store := staging.NewMemoryStore()
	stage(t, store, "products", "PRODUCTID,PRICE\nRC-1052,12\n", fixedNow)

	tl := NewTransformLoader(store, NewTransformer(transform.Default()), &recordingLoader{}, "bronze")
	tl.Entities = []string{"products"}
	tl.Now = clock

	rep := tl.TransformAndLoadAll(context.Background())
	require.Len(t, rep.Failed(), 1)
	assert.True(t, errors.Is(rep.Failed()[0].Err, transform.ErrMissingColumn))
}
