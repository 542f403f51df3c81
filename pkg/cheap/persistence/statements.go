package persistence

import (
	"fmt"
	"strings"

	"github.com/diwise/cheap/pkg/cheap/mapping"
)

func (e *Engine) quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = e.dialect.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// CreateTableStatement returns the idempotent DDL for the table of m
func (e *Engine) CreateTableStatement(m *mapping.AspectTableMapping) string {
	defs := []string{}

	if m.HasCatalogID() {
		defs = append(defs, fmt.Sprintf("%s %s NOT NULL", e.dialect.QuoteIdentifier(mapping.CatalogIDColumn), e.dialect.IDColumnType()))
	}

	if m.HasEntityID() {
		defs = append(defs, fmt.Sprintf("%s %s NOT NULL", e.dialect.QuoteIdentifier(mapping.EntityIDColumn), e.dialect.IDColumnType()))
	}

	for _, c := range m.Columns() {
		def := fmt.Sprintf("%s %s", e.dialect.QuoteIdentifier(c.Column), e.dialect.ColumnType(c.Property))
		if !c.Property.IsNullable() {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	if pk := m.PrimaryKey(); len(pk) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", e.quoteAll(pk)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", e.dialect.QuoteIdentifier(m.Table()), strings.Join(defs, ", "))
}

func (e *Engine) CreateEntityTableStatement() string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s %s NOT NULL, PRIMARY KEY (%s))",
		e.dialect.QuoteIdentifier(e.entityTable),
		e.dialect.QuoteIdentifier(mapping.EntityIDColumn), e.dialect.IDColumnType(),
		e.dialect.QuoteIdentifier(mapping.EntityIDColumn),
	)
}

// EnsureEntityStatement registers an entity id in the identity store, keeping an existing row
func (e *Engine) EnsureEntityStatement() string {
	id := e.dialect.QuoteIdentifier(mapping.EntityIDColumn)
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		e.dialect.QuoteIdentifier(e.entityTable), id, e.dialect.Placeholder(1), id,
	)
}

// InsertStatement returns the per row insert of m. Tables keyed on entity_id upsert
// every mapped column while tables without a key always append.
func (e *Engine) InsertStatement(m *mapping.AspectTableMapping) string {
	columns := m.ColumnNames()

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = e.dialect.Placeholder(i + 1)
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		e.dialect.QuoteIdentifier(m.Table()), e.quoteAll(columns), strings.Join(placeholders, ", "),
	)

	if !m.HasEntityID() {
		return stmt
	}

	updates := []string{}
	for _, c := range m.Columns() {
		col := e.dialect.QuoteIdentifier(c.Column)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	if len(updates) == 0 {
		return fmt.Sprintf("%s ON CONFLICT (%s) DO NOTHING", stmt, e.quoteAll(m.PrimaryKey()))
	}

	return fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s", stmt, e.quoteAll(m.PrimaryKey()), strings.Join(updates, ", "))
}

func (e *Engine) catalogFilter(m *mapping.AspectTableMapping) string {
	if !m.HasCatalogID() {
		return ""
	}
	return fmt.Sprintf(" WHERE %s = %s", e.dialect.QuoteIdentifier(mapping.CatalogIDColumn), e.dialect.Placeholder(1))
}

func (e *Engine) SelectStatement(m *mapping.AspectTableMapping) string {
	return fmt.Sprintf(
		"SELECT %s FROM %s%s",
		e.quoteAll(m.ColumnNames()), e.dialect.QuoteIdentifier(m.Table()), e.catalogFilter(m),
	)
}

func (e *Engine) CountStatement(m *mapping.AspectTableMapping) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", e.dialect.QuoteIdentifier(m.Table()), e.catalogFilter(m))
}

// CleanupStatement returns what a save runs before inserting, or false when
// the table relies on upserts alone
func (e *Engine) CleanupStatement(m *mapping.AspectTableMapping) (string, bool) {
	switch m.Shape().Cleanup {
	case mapping.CleanupTruncate:
		return e.dialect.TruncateStatement(m.Table()), true
	case mapping.CleanupDeleteByCatalog:
		return fmt.Sprintf("DELETE FROM %s%s", e.dialect.QuoteIdentifier(m.Table()), e.catalogFilter(m)), true
	}
	return "", false
}
