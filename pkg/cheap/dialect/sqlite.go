package dialect

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diwise/cheap/pkg/cheap/properties"
)

type sqlite struct{}

// SQLite stores identities as their canonical string form in TEXT columns.
// Decimals and timestamps are stored as text to keep full precision.
func SQLite() Dialect {
	return sqlite{}
}

var sqliteTypes = map[properties.PropertyType]string{
	properties.Integer:  "INTEGER",
	properties.Float:    "REAL",
	properties.Boolean:  "INTEGER",
	properties.String:   "TEXT",
	properties.Text:     "TEXT",
	properties.Decimal:  "TEXT",
	properties.DateTime: "TEXT",
	properties.URI:      "TEXT",
	properties.UUID:     "TEXT",
	properties.Blob:     "BLOB",
}

func (sqlite) Name() string { return SQLiteName }

func (sqlite) ColumnType(pd *properties.PropertyDef) string {
	if pd.IsMultivalued() {
		return "TEXT"
	}
	return sqliteTypes[pd.Type()]
}

func (sqlite) IDColumnType() string                  { return "TEXT" }
func (sqlite) QuoteIdentifier(name string) string    { return quote(name) }
func (sqlite) Placeholder(int) string                { return "?" }
func (sqlite) TruncateStatement(table string) string { return "DELETE FROM " + quote(table) }

func (sqlite) Bind(pd *properties.PropertyDef, value any) (any, error) {
	return bind(pd, value, func(v any) any {
		switch t := v.(type) {
		case uuid.UUID:
			return t.String()
		case decimal.Decimal:
			return t.String()
		case time.Time:
			return t.Format(time.RFC3339Nano)
		case bool:
			if t {
				return int64(1)
			}
			return int64(0)
		}
		return v
	})
}

func (sqlite) BindID(id uuid.UUID) any {
	return id.String()
}

func (sqlite) Read(pd *properties.PropertyDef, raw any) (any, error) {
	return read(pd, raw)
}

func (sqlite) ReadID(raw any) (uuid.UUID, error) {
	return readID(raw)
}
