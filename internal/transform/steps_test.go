package transform

import (
	"errors"
	"testing"
	"time"

	"github.com/BartekS5/sap-etl/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(cols []string, rows ...[]interface{}) *models.Table {
	t := models.NewTable(cols...)
	for _, row := range rows {
		r := make(models.Record, len(cols))
		for i, c := range cols {
			r[c] = row[i]
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func apply(t *testing.T, tbl *models.Table, steps ...Step) *models.Table {
	t.Helper()
	for _, s := range steps {
		require.NoError(t, s.Apply(tbl), s.Name)
	}
	return tbl
}

func TestLowerHeaders(t *testing.T) {
	tbl := table([]string{"ADDRESSID", "City"}, []interface{}{"1", "Berlin"})
	apply(t, tbl, LowerHeaders())

	assert.Equal(t, []string{"addressid", "city"}, tbl.Columns)
	assert.Equal(t, "Berlin", tbl.Rows[0]["city"])
}

func TestRenameLeavesUnknownColumns(t *testing.T) {
	tbl := table([]string{"postalcode", "street"}, []interface{}{"10115", "Main"})
	apply(t, tbl, Rename(NewLookup(map[string]string{"postalcode": "postal_code", "absent": "x"})))

	assert.Equal(t, []string{"postal_code", "street"}, tbl.Columns)
	assert.Equal(t, "10115", tbl.Rows[0]["postal_code"])
}

func TestDedupeKeepsLastSeen(t *testing.T) {
	tbl := table([]string{"id", "v"},
		[]interface{}{"1", "first"},
		[]interface{}{"2", "only"},
		[]interface{}{"1", "second"},
	)
	apply(t, tbl, Dedupe("id"))

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "2", tbl.Rows[0]["id"])
	assert.Equal(t, "second", tbl.Rows[1]["v"])
}

func TestDedupeCompositeKey(t *testing.T) {
	tbl := table([]string{"a", "b"},
		[]interface{}{"1", "10"},
		[]interface{}{"1", "20"},
		[]interface{}{"1", "10"},
	)
	apply(t, tbl, Dedupe("a", "b"))
	assert.Len(t, tbl.Rows, 2)
}

func TestDedupeMissingKeyColumn(t *testing.T) {
	tbl := table([]string{"v"}, []interface{}{"x"})
	err := Dedupe("id").Apply(tbl)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestStripOnlyTouchesText(t *testing.T) {
	tbl := table([]string{"s"}, []interface{}{"  a  "}, []interface{}{int64(3)}, []interface{}{nil})
	apply(t, tbl, Strip("s"))
	assert.Equal(t, []interface{}{"a", int64(3), nil}, tbl.Column("s"))
}

func TestParseDates(t *testing.T) {
	tbl := table([]string{"d"}, []interface{}{"20181003"}, []interface{}{nil}, []interface{}{"20200229.0"})
	apply(t, tbl, ParseDates("d"))

	assert.Equal(t, time.Date(2018, 10, 3, 0, 0, 0, 0, time.UTC), tbl.Rows[0]["d"])
	assert.Nil(t, tbl.Rows[1]["d"])
	assert.Equal(t, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), tbl.Rows[2]["d"])
}

func TestParseDatesRejectsBadCode(t *testing.T) {
	tbl := table([]string{"d"}, []interface{}{"20181399"})
	assert.Error(t, ParseDates("d").Apply(tbl))
}

func TestParseDatesSentinel(t *testing.T) {
	tbl := table([]string{"d"}, []interface{}{NeverDelivered}, []interface{}{"20190101"})
	apply(t, tbl, ParseDatesWithSentinel(NeverDelivered, "d"))

	assert.Nil(t, tbl.Rows[0]["d"])
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), tbl.Rows[1]["d"])

	// Without the sentinel the same code is an ordinary, valid date.
	plain := table([]string{"d"}, []interface{}{NeverDelivered})
	apply(t, plain, ParseDates("d"))
	assert.Equal(t, time.Date(2999, 12, 12, 0, 0, 0, 0, time.UTC), plain.Rows[0]["d"])
}

func TestTranslatePassesUnmappedThrough(t *testing.T) {
	tbl := table([]string{"s"}, []interface{}{"C"}, []interface{}{"I"}, []interface{}{"X"}, []interface{}{"Q"}, []interface{}{nil})
	apply(t, tbl, Translate("s", LifeCycleStatus))

	want := []interface{}{"Completed", "In Progress", "Canceled", "Q", nil}
	if diff := cmp.Diff(want, tbl.Column("s")); diff != "" {
		t.Errorf("translated values mismatch (-want +got):\n%s", diff)
	}
}

func TestDropIgnoresAbsentColumns(t *testing.T) {
	tbl := table([]string{"a", "b"}, []interface{}{"1", "2"})
	apply(t, tbl, Drop("b", "unnamed: 13"))
	assert.Equal(t, []string{"a"}, tbl.Columns)
	_, ok := tbl.Rows[0]["b"]
	assert.False(t, ok)
}

func TestRoundMoney(t *testing.T) {
	tbl := table([]string{"p"}, []interface{}{"10.005"}, []interface{}{"3"}, []interface{}{nil})
	apply(t, tbl, RoundMoney("p"))

	assert.True(t, decimal.RequireFromString("10.01").Equal(tbl.Rows[0]["p"].(decimal.Decimal)))
	assert.True(t, decimal.NewFromInt(3).Equal(tbl.Rows[1]["p"].(decimal.Decimal)))
	assert.Nil(t, tbl.Rows[2]["p"])
}

func TestIntegerFillsMissing(t *testing.T) {
	tbl := table([]string{"b"}, []interface{}{nil}, []interface{}{"12"}, []interface{}{"7.0"})
	apply(t, tbl, Integer("b", 0))
	assert.Equal(t, []interface{}{int64(0), int64(12), int64(7)}, tbl.Column("b"))
}

func TestRepairLatin1(t *testing.T) {
	tbl := table([]string{"city"},
		[]interface{}{"MÃ¼nchen"},
		[]interface{}{"München"},
		[]interface{}{"Tokyo"},
		[]interface{}{"東京"},
	)
	apply(t, tbl, RepairLatin1("city"))
	assert.Equal(t, []interface{}{"München", "München", "Tokyo", "東京"}, tbl.Column("city"))
}

func TestInferTypes(t *testing.T) {
	tbl := table([]string{"i", "f", "z", "s", "keep"},
		[]interface{}{"1", "1.5", "0100", "a", "7"},
		[]interface{}{nil, "2", "0200", "b", "8"},
	)
	apply(t, tbl, InferTypes("keep"))

	assert.Equal(t, []interface{}{int64(1), nil}, tbl.Column("i"))
	assert.Equal(t, []interface{}{1.5, 2.0}, tbl.Column("f"))
	assert.Equal(t, []interface{}{"0100", "0200"}, tbl.Column("z"))
	assert.Equal(t, []interface{}{"a", "b"}, tbl.Column("s"))
	assert.Equal(t, []interface{}{"7", "8"}, tbl.Column("keep"))
}

func TestInferTypesKeepsOutOfRangeNumbersAsText(t *testing.T) {
	tbl := table([]string{"big", "mixed", "huge"},
		[]interface{}{"12345678901234567890", "1.5", "1e400"},
		[]interface{}{"-99999999999999999999", "98765432109876543210", "2"},
	)
	apply(t, tbl, InferTypes())

	assert.Equal(t, []interface{}{"12345678901234567890", "-99999999999999999999"}, tbl.Column("big"))
	assert.Equal(t, []interface{}{"1.5", "98765432109876543210"}, tbl.Column("mixed"))
	assert.Equal(t, []interface{}{"1e400", "2"}, tbl.Column("huge"))
}

func TestDedupeIgnoresKeyPadding(t *testing.T) {
	tbl := table([]string{"product_id", "v"},
		[]interface{}{"RC-1052", "first"},
		[]interface{}{"RC-1052 ", "second"},
	)
	apply(t, tbl, Dedupe("product_id"), Strip("product_id"))

	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "RC-1052", tbl.Rows[0]["product_id"])
	assert.Equal(t, "second", tbl.Rows[0]["v"])
}

func TestLookupIsACopy(t *testing.T) {
	src := map[string]string{"A": "Alpha"}
	l := NewLookup(src)
	src["A"] = "changed"
	l.Pairs()["A"] = "changed too"

	got, ok := l.Get("A")
	assert.True(t, ok)
	assert.Equal(t, "Alpha", got)
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	raw := table([]string{"ID"}, []interface{}{"1"}, []interface{}{"1"})
	e := Entity{Name: "x", Key: []string{"id"}, Steps: []Step{LowerHeaders(), Dedupe("id")}}

	out, err := e.Transform(raw)
	require.NoError(t, err)
	assert.Len(t, out.Rows, 1)
	assert.Equal(t, []string{"ID"}, raw.Columns)
	assert.Len(t, raw.Rows, 2)
}
