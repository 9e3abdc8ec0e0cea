// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
tables.go - Tenant-Scoped Table Export

FetchTable returns every row of one business table that belongs to one
tenant, as column/value maps ready for JSON encoding.

Scoping Rules:
  - empresas: the tenant's own row (id = tenant)
  - detail tables (detalle_*): joined to their header table, which carries
    empresa_id
  - every other table: empresa_id = tenant

Value Normalization:
pgx decodes some PostgreSQL types into Go values that do not encode well
as JSON. uuid becomes its canonical string, numeric becomes a JSON number
without precision loss, and other pgtype values use their text form.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tomtom215/snapvault/internal/backup"
	"github.com/tomtom215/snapvault/internal/metrics"
)

// sqlStateUndefinedTable is the PostgreSQL error code for a missing relation
const sqlStateUndefinedTable = "42P01"

// tenantColumn scopes a row to its tenant
const tenantColumn = "empresa_id"

// detailParents maps a detail table to its header table and foreign key
var detailParents = map[string]struct {
	table  string
	column string
}{
	"detalle_ventas":       {table: "ventas", column: "venta_id"},
	"detalle_compras":      {table: "compras", column: "compra_id"},
	"detalle_presupuestos": {table: "presupuestos", column: "presupuesto_id"},
}

// tableQuery builds the tenant-scoped SELECT for a table. The tenant ID is
// always bound as $1.
func tableQuery(table string) string {
	ident := pgx.Identifier{table}.Sanitize()

	if table == backup.TenantTable {
		return fmt.Sprintf("SELECT * FROM %s WHERE id = $1", ident)
	}

	if parent, ok := detailParents[table]; ok {
		return fmt.Sprintf(
			"SELECT d.* FROM %s d JOIN %s p ON p.id = d.%s WHERE p.%s = $1",
			ident,
			pgx.Identifier{parent.table}.Sanitize(),
			pgx.Identifier{parent.column}.Sanitize(),
			pgx.Identifier{tenantColumn}.Sanitize(),
		)
	}

	return fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", ident, pgx.Identifier{tenantColumn}.Sanitize())
}

// FetchTable returns the tenant's rows of one table. A missing table
// returns an error marked backup.ErrTableNotFound.
func (db *Postgres) FetchTable(ctx context.Context, tenantID, table string) ([]map[string]interface{}, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.pool.Query(ctx, tableQuery(table), tenantID)
	if err != nil {
		metrics.RecordDBQuery("fetch_table", table, time.Since(start), err)
		return nil, classifyQueryError(err, table)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	metrics.RecordDBQuery("fetch_table", table, time.Since(start), err)
	if err != nil {
		return nil, classifyQueryError(err, table)
	}

	for _, record := range records {
		for column, value := range record {
			record[column] = normalizeValue(value)
		}
	}
	return records, nil
}

// classifyQueryError marks undefined_table errors so callers can tell a
// missing table from a failed query.
func classifyQueryError(err error, table string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateUndefinedTable {
		return errors.Mark(fmt.Errorf("table %s: %w", table, err), backup.ErrTableNotFound)
	}
	return fmt.Errorf("query table %s: %w", table, err)
}

// normalizeValue converts pgx-decoded values into JSON-friendly forms
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		return numericValue(val)
	case time.Time, string, bool, []byte,
		int16, int32, int64, float32, float64,
		map[string]interface{}, []interface{}:
		return val
	case driver.Valuer:
		out, err := val.Value()
		if err != nil {
			return nil
		}
		return out
	default:
		return val
	}
}

// numericValue keeps the exact decimal text of a numeric as a JSON number.
// NaN and infinities are not valid JSON numbers and are kept as strings.
func numericValue(n pgtype.Numeric) interface{} {
	if !n.Valid {
		return nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		out, err := n.Value()
		if err != nil {
			return nil
		}
		return out
	}
	b, err := n.MarshalJSON()
	if err != nil {
		return nil
	}
	return json.Number(b)
}
