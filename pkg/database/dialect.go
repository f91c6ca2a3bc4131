// Package database opens warehouse and MongoDB connections and hides the
// SQL differences between the supported warehouse engines.
package database

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned for operations a dialect cannot express.
var ErrUnsupported = errors.New("not supported by dialect")

// ColumnKind is the storage class inferred for a warehouse column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindFloat
	KindDecimal
	KindDate
	KindBool
)

func (k ColumnKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// Dialect renders engine-specific SQL.
type Dialect interface {
	Name() string
	DriverName() string
	Quote(ident string) string
	Qualify(schema, table string) string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	ColumnType(k ColumnKind) string
	DropTableIfExists(qualified string) string
	// EnsureSchema returns "" when schemas are managed outside SQL.
	EnsureSchema(schema string) string
	CallProcedure(name string) (string, error)
	// MaxParams caps bind arguments per statement.
	MaxParams() int
}

// DialectFor resolves a WAREHOUSE_DRIVER value.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return postgres{}, nil
	case "sqlserver", "mssql":
		return sqlServer{}, nil
	case "sqlite":
		return sqlite{}, nil
	default:
		return nil, fmt.Errorf("unknown warehouse driver %q", name)
	}
}

func quoteDouble(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

type postgres struct{}

func (postgres) Name() string {
	return "postgres"
}

func (postgres) DriverName() string {
	return "pgx"
}

func (postgres) Quote(ident string) string {
	return quoteDouble(ident)
}

func (postgres) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (postgres) MaxParams() int {
	return 65535
}

func (d postgres) Qualify(s, t string) string {
	if s == "" {
		return d.Quote(t)
	}
	return d.Quote(s) + "." + d.Quote(t)
}

func (postgres) DropTableIfExists(q string) string {
	return "DROP TABLE IF EXISTS " + q
}

func (d postgres) EnsureSchema(s string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + d.Quote(s)
}

func (postgres) CallProcedure(name string) (string, error) {
	return fmt.Sprintf("CALL %s()", name), nil
}

func (postgres) ColumnType(k ColumnKind) string {
	switch k {
	case KindInteger:
		return "BIGINT"
	case KindFloat:
		return "DOUBLE PRECISION"
	case KindDecimal:
		return "NUMERIC"
	case KindDate:
		return "DATE"
	case KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

type sqlServer struct{}

func (sqlServer) Name() string {
	return "sqlserver"
}

func (sqlServer) DriverName() string {
	return "sqlserver"
}

func (sqlServer) Quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (sqlServer) Placeholder(n int) string {
	return fmt.Sprintf("@p%d", n)
}

// SQL Server rejects statements with more than 2100 parameters.
func (sqlServer) MaxParams() int {
	return 2000
}

func (d sqlServer) Qualify(s, t string) string {
	if s == "" {
		return d.Quote(t)
	}
	return d.Quote(s) + "." + d.Quote(t)
}

func (sqlServer) DropTableIfExists(q string) string {
	return "DROP TABLE IF EXISTS " + q
}

func (d sqlServer) EnsureSchema(s string) string {
	lit := strings.ReplaceAll(s, "'", "''")
	return fmt.Sprintf("IF SCHEMA_ID(N'%s') IS NULL EXEC('CREATE SCHEMA %s')", lit, strings.ReplaceAll(d.Quote(s), "'", "''"))
}

func (sqlServer) CallProcedure(name string) (string, error) {
	return "EXEC " + name, nil
}

func (sqlServer) ColumnType(k ColumnKind) string {
	switch k {
	case KindInteger:
		return "BIGINT"
	case KindFloat:
		return "FLOAT"
	case KindDecimal:
		return "DECIMAL(18,2)"
	case KindDate:
		return "DATE"
	case KindBool:
		return "BIT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// sqlite is a single-file warehouse for local runs; the schema name is
// not part of table names.
type sqlite struct{}

func (sqlite) Name() string {
	return "sqlite"
}

func (sqlite) DriverName() string {
	return "sqlite"
}

func (sqlite) Quote(ident string) string {
	return quoteDouble(ident)
}

func (sqlite) Placeholder(int) string {
	return "?"
}

func (sqlite) MaxParams() int {
	return 999
}

func (d sqlite) Qualify(_, t string) string {
	return d.Quote(t)
}

func (sqlite) DropTableIfExists(q string) string {
	return "DROP TABLE IF EXISTS " + q
}

func (sqlite) EnsureSchema(string) string {
	return ""
}

func (sqlite) CallProcedure(name string) (string, error) {
	return "", fmt.Errorf("call procedure %s: %w", name, ErrUnsupported)
}

func (sqlite) ColumnType(k ColumnKind) string {
	switch k {
	case KindInteger, KindBool:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	case KindDecimal:
		return "NUMERIC"
	case KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}
