package mapping

import (
	"regexp"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/diwise/cheap/pkg/cheap/aspects"
	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/properties"
)

const (
	CatalogIDColumn string = "catalog_id"
	EntityIDColumn  string = "entity_id"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Cleanup is what a save does to a table before inserting rows
type Cleanup int

const (
	// CleanupNone leaves existing rows in place and relies on per-row upserts
	CleanupNone Cleanup = iota
	// CleanupTruncate removes every row in the table, whatever catalog wrote it
	CleanupTruncate
	// CleanupDeleteByCatalog removes the rows of the catalog being saved
	CleanupDeleteByCatalog
)

func (c Cleanup) String() string {
	switch c {
	case CleanupTruncate:
		return "truncate"
	case CleanupDeleteByCatalog:
		return "delete-by-catalog"
	default:
		return "none"
	}
}

// Shape is the primary key and save cleanup implied by the identity columns of a table
type Shape struct {
	PrimaryKey []string
	Cleanup    Cleanup
}

func DeriveShape(hasCatalogID, hasEntityID bool) Shape {
	switch {
	case hasCatalogID && hasEntityID:
		return Shape{PrimaryKey: []string{CatalogIDColumn, EntityIDColumn}, Cleanup: CleanupNone}
	case hasEntityID:
		return Shape{PrimaryKey: []string{EntityIDColumn}, Cleanup: CleanupNone}
	case hasCatalogID:
		return Shape{Cleanup: CleanupDeleteByCatalog}
	default:
		return Shape{Cleanup: CleanupTruncate}
	}
}

func (s Shape) HasPrimaryKey() bool {
	return len(s.PrimaryKey) > 0
}

// ColumnMapping binds one property of an aspect to a table column
type ColumnMapping struct {
	Property *properties.PropertyDef
	Column   string
}

// AspectTableMapping binds an AspectDef to a relational table. It is immutable once built.
type AspectTableMapping struct {
	aspectDef    *aspects.AspectDef
	table        string
	hasCatalogID bool
	hasEntityID  bool
	columns      []ColumnMapping
	shape        Shape

	requestedColumns [][2]string
	requestedKey     []string
}

type MappingDecoratorFunc func(m *AspectTableMapping)

// Column maps the named property to a column. When no column is given every
// property of the aspect maps to a column of the same name.
func Column(property, column string) MappingDecoratorFunc {
	return func(m *AspectTableMapping) {
		m.requestedColumns = append(m.requestedColumns, [2]string{property, column})
	}
}

func WithCatalogID() MappingDecoratorFunc {
	return func(m *AspectTableMapping) {
		m.hasCatalogID = true
	}
}

func WithEntityID() MappingDecoratorFunc {
	return func(m *AspectTableMapping) {
		m.hasEntityID = true
	}
}

// PrimaryKey requests an explicit key. It must equal the key derived from the identity columns.
func PrimaryKey(columns ...string) MappingDecoratorFunc {
	return func(m *AspectTableMapping) {
		if columns == nil {
			columns = []string{}
		}
		m.requestedKey = columns
	}
}

func New(def *aspects.AspectDef, table string, decorators ...MappingDecoratorFunc) (*AspectTableMapping, error) {
	if def == nil {
		return nil, errors.NewConfigurationError("a table mapping requires an aspect definition")
	}

	if err := validation.Validate(table, validation.Required, validation.Match(identifier)); err != nil {
		return nil, errors.NewConfigurationError("invalid table name %q for aspect %q: %s", table, def.Name(), err.Error())
	}

	m := &AspectTableMapping{
		aspectDef: def,
		table:     table,
	}

	for _, decorator := range decorators {
		decorator(m)
	}

	if len(m.requestedColumns) == 0 {
		for _, pd := range def.PropertyDefs() {
			m.requestedColumns = append(m.requestedColumns, [2]string{pd.Name(), pd.Name()})
		}
	}

	if err := m.bindColumns(); err != nil {
		return nil, err
	}

	m.shape = DeriveShape(m.hasCatalogID, m.hasEntityID)

	if m.requestedKey != nil && !slices.Equal(m.requestedKey, m.shape.PrimaryKey) {
		return nil, errors.NewConfigurationError(
			"table %q cannot use primary key %v, catalogId=%t entityId=%t implies %v",
			table, m.requestedKey, m.hasCatalogID, m.hasEntityID, m.shape.PrimaryKey,
		)
	}

	m.requestedColumns = nil
	m.requestedKey = nil

	return m, nil
}

func (m *AspectTableMapping) bindColumns() error {
	seenProperties := map[string]bool{}
	seenColumns := map[string]bool{}

	for _, rc := range m.requestedColumns {
		property, column := rc[0], rc[1]

		pd, ok := m.aspectDef.PropertyDef(property)
		if !ok {
			return errors.NewConfigurationError("aspect %q has no property %q to map to table %q", m.aspectDef.Name(), property, m.table)
		}

		if err := validation.Validate(column, validation.Required, validation.Match(identifier)); err != nil {
			return errors.NewConfigurationError("invalid column name %q for property %q: %s", column, property, err.Error())
		}

		if column == CatalogIDColumn || column == EntityIDColumn {
			return errors.NewConfigurationError("column name %q is reserved, property %q cannot use it", column, property)
		}

		if seenProperties[property] {
			return errors.NewConfigurationError("property %q is mapped more than once in table %q", property, m.table)
		}

		if seenColumns[column] {
			return errors.NewConfigurationError("column %q is mapped more than once in table %q", column, m.table)
		}

		seenProperties[property] = true
		seenColumns[column] = true
		m.columns = append(m.columns, ColumnMapping{Property: pd, Column: column})
	}

	return nil
}

func (m *AspectTableMapping) AspectDef() *aspects.AspectDef { return m.aspectDef }
func (m *AspectTableMapping) Table() string                 { return m.table }
func (m *AspectTableMapping) HasCatalogID() bool            { return m.hasCatalogID }
func (m *AspectTableMapping) HasEntityID() bool             { return m.hasEntityID }
func (m *AspectTableMapping) Shape() Shape                  { return m.shape }

func (m *AspectTableMapping) PrimaryKey() []string {
	return slices.Clone(m.shape.PrimaryKey)
}

// Columns returns the mapped property columns in declaration order
func (m *AspectTableMapping) Columns() []ColumnMapping {
	return slices.Clone(m.columns)
}

// ColumnNames returns every column of the table in the fixed order
// catalog_id, entity_id, mapped columns
func (m *AspectTableMapping) ColumnNames() []string {
	names := make([]string, 0, len(m.columns)+2)
	if m.hasCatalogID {
		names = append(names, CatalogIDColumn)
	}
	if m.hasEntityID {
		names = append(names, EntityIDColumn)
	}
	for _, c := range m.columns {
		names = append(names, c.Column)
	}
	return names
}

func (m *AspectTableMapping) ColumnFor(property string) (string, bool) {
	for _, c := range m.columns {
		if c.Property.Name() == property {
			return c.Column, true
		}
	}
	return "", false
}

func (m *AspectTableMapping) PropertyFor(column string) (*properties.PropertyDef, bool) {
	for _, c := range m.columns {
		if c.Column == column {
			return c.Property, true
		}
	}
	return nil, false
}
