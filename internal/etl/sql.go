package etl

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/BartekS5/sap-etl/pkg/database"
	"github.com/BartekS5/sap-etl/pkg/logger"
	"github.com/BartekS5/sap-etl/pkg/models"
	"github.com/BartekS5/sap-etl/pkg/utils"
	"github.com/shopspring/decimal"
)

// maxRowsPerInsert bounds one multi-row INSERT; SQL Server refuses more
// than 1000 row value expressions.
const maxRowsPerInsert = 500

var procedureName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLWarehouse loads tables through database/sql.
type SQLWarehouse struct {
	DB      *sql.DB
	Dialect database.Dialect
}

func NewSQLWarehouse(db *sql.DB, d database.Dialect) *SQLWarehouse {
	return &SQLWarehouse{DB: db, Dialect: d}
}

// Replace drops and recreates schema.table and inserts every row, all in
// one transaction. Column types are inferred from the cell values.
func (w *SQLWarehouse) Replace(ctx context.Context, schema, table string, t *models.Table) (err error) {
	if len(t.Columns) == 0 {
		return fmt.Errorf("replace %s.%s: table has no columns", schema, table)
	}
	start := time.Now()
	kinds := ColumnKinds(t)
	qualified := w.Dialect.Qualify(schema, table)

	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if schema != "" {
		if stmt := w.Dialect.EnsureSchema(schema); stmt != "" {
			if _, err = tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("ensure schema %s: %w", schema, err)
			}
		}
	}
	if _, err = tx.ExecContext(ctx, w.Dialect.DropTableIfExists(qualified)); err != nil {
		return fmt.Errorf("drop %s: %w", qualified, err)
	}
	if _, err = tx.ExecContext(ctx, w.createTable(qualified, t.Columns, kinds)); err != nil {
		return fmt.Errorf("create %s: %w", qualified, err)
	}
	if err = w.insertRows(ctx, tx, qualified, t, kinds); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", qualified, err)
	}

	logger.Debugf("Replaced %s with %d rows in %s", qualified, t.Len(), time.Since(start))
	return nil
}

func (w *SQLWarehouse) createTable(qualified string, cols []string, kinds []database.ColumnKind) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = w.Dialect.Quote(c) + " " + w.Dialect.ColumnType(kinds[i])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(defs, ", "))
}

func (w *SQLWarehouse) insertRows(ctx context.Context, tx *sql.Tx, qualified string, t *models.Table, kinds []database.ColumnKind) error {
	if t.Len() == 0 {
		return nil
	}
	quoted := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		quoted[i] = w.Dialect.Quote(c)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", qualified, strings.Join(quoted, ", "))

	batch := w.Dialect.MaxParams() / len(t.Columns)
	if batch > maxRowsPerInsert {
		batch = maxRowsPerInsert
	}
	if batch < 1 {
		return fmt.Errorf("insert %s: %d columns exceed the %s parameter limit", qualified, len(t.Columns), w.Dialect.Name())
	}

	for start := 0; start < t.Len(); start += batch {
		end := start + batch
		if end > t.Len() {
			end = t.Len()
		}
		var b strings.Builder
		b.WriteString(prefix)
		args := make([]interface{}, 0, (end-start)*len(t.Columns))
		for i, r := range t.Rows[start:end] {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			for j, c := range t.Columns {
				if j > 0 {
					b.WriteString(", ")
				}
				args = append(args, bindValue(r[c], kinds[j]))
				b.WriteString(w.Dialect.Placeholder(len(args)))
			}
			b.WriteByte(')')
		}
		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", qualified, start+1, end, err)
		}
	}
	return nil
}

// bindValue converts a cell to what the column kind expects.
func bindValue(v interface{}, kind database.ColumnKind) interface{} {
	if v == nil {
		return nil
	}
	switch kind {
	case database.KindText:
		if s, ok := v.(string); ok {
			return s
		}
		return utils.ToString(v)
	case database.KindFloat:
		switch n := v.(type) {
		case int64:
			return float64(n)
		case int:
			return float64(n)
		}
	case database.KindDecimal:
		switch n := v.(type) {
		case int64:
			return decimal.NewFromInt(n)
		case float64:
			return decimal.NewFromFloat(n)
		}
	}
	return v
}

// ColumnKinds infers one storage kind per column. Columns with no values
// or with mixed, incompatible values are text.
func ColumnKinds(t *models.Table) []database.ColumnKind {
	kinds := make([]database.ColumnKind, len(t.Columns))
	for i, c := range t.Columns {
		kinds[i] = columnKind(t, c)
	}
	return kinds
}

func columnKind(t *models.Table, col string) database.ColumnKind {
	var hasInt, hasFloat, hasDec, hasDate, hasBool, hasText bool
	for _, r := range t.Rows {
		switch r[col].(type) {
		case nil:
		case int, int32, int64:
			hasInt = true
		case float64:
			hasFloat = true
		case decimal.Decimal:
			hasDec = true
		case time.Time:
			hasDate = true
		case bool:
			hasBool = true
		default:
			hasText = true
		}
	}
	switch {
	case hasText:
		return database.KindText
	case hasDate:
		if hasInt || hasFloat || hasDec || hasBool {
			return database.KindText
		}
		return database.KindDate
	case hasBool:
		if hasInt || hasFloat || hasDec {
			return database.KindText
		}
		return database.KindBool
	case hasDec:
		return database.KindDecimal
	case hasFloat:
		return database.KindFloat
	case hasInt:
		return database.KindInteger
	default:
		return database.KindText
	}
}

// CallProcedure runs a stored procedure that takes no arguments.
func (w *SQLWarehouse) CallProcedure(ctx context.Context, name string) error {
	if !procedureName.MatchString(name) {
		return fmt.Errorf("invalid procedure name %q", name)
	}
	stmt, err := w.Dialect.CallProcedure(name)
	if err != nil {
		return err
	}
	if _, err := w.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	logger.Infof("Procedure %s completed", name)
	return nil
}
