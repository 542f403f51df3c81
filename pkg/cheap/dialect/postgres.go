package dialect

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/diwise/cheap/pkg/cheap/properties"
)

type postgres struct{}

// Postgres stores identities in native UUID columns
func Postgres() Dialect {
	return postgres{}
}

var postgresTypes = map[properties.PropertyType]string{
	properties.Integer:  "BIGINT",
	properties.Float:    "DOUBLE PRECISION",
	properties.Boolean:  "BOOLEAN",
	properties.String:   "TEXT",
	properties.Text:     "TEXT",
	properties.Decimal:  "NUMERIC",
	properties.DateTime: "TIMESTAMPTZ",
	properties.URI:      "TEXT",
	properties.UUID:     "UUID",
	properties.Blob:     "BYTEA",
}

func (postgres) Name() string { return PostgresName }

func (postgres) ColumnType(pd *properties.PropertyDef) string {
	if pd.IsMultivalued() {
		return "TEXT"
	}
	return postgresTypes[pd.Type()]
}

func (postgres) IDColumnType() string                  { return "UUID" }
func (postgres) QuoteIdentifier(name string) string    { return quote(name) }
func (postgres) Placeholder(n int) string              { return fmt.Sprintf("$%d", n) }
func (postgres) TruncateStatement(table string) string { return "TRUNCATE TABLE " + quote(table) }

func (postgres) Bind(pd *properties.PropertyDef, value any) (any, error) {
	return bind(pd, value, func(v any) any {
		// uuid.UUID and decimal.Decimal are driver.Valuers
		return v
	})
}

func (postgres) BindID(id uuid.UUID) any {
	return id
}

func (postgres) Read(pd *properties.PropertyDef, raw any) (any, error) {
	return read(pd, raw)
}

func (postgres) ReadID(raw any) (uuid.UUID, error) {
	return readID(raw)
}
