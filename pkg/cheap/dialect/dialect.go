package dialect

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/properties"
)

// Dialect describes the SQL flavour of a backend: the column types used for
// properties and identities, identifier quoting and parameter placeholders
type Dialect interface {
	PropertyAccessor

	Name() string
	ColumnType(pd *properties.PropertyDef) string
	IDColumnType() string
	QuoteIdentifier(name string) string
	// Placeholder returns the bind parameter marker for the n:th argument, starting at 1
	Placeholder(n int) string
	TruncateStatement(table string) string
}

// PropertyAccessor converts between property values and the representation
// bound to or scanned from the driver of a backend
type PropertyAccessor interface {
	Bind(pd *properties.PropertyDef, value any) (any, error)
	BindID(id uuid.UUID) any
	Read(pd *properties.PropertyDef, raw any) (any, error)
	ReadID(raw any) (uuid.UUID, error)
}

const (
	PostgresName string = "postgres"
	SQLiteName   string = "sqlite"
)

func ForName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case PostgresName, "postgresql", "pgx":
		return Postgres(), nil
	case SQLiteName, "sqlite3":
		return SQLite(), nil
	}
	return nil, errors.NewConfigurationError("unsupported database dialect %q", name)
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// bind validates value against pd and hands canonical scalars to convert.
// Multivalued properties are bound as a JSON array.
func bind(pd *properties.PropertyDef, value any, convert func(v any) any) (any, error) {
	v, err := pd.Validate(value)
	if err != nil {
		return nil, err
	}

	if v == nil {
		return nil, nil
	}

	if pd.IsMultivalued() {
		return encodeMulti(v.([]any))
	}

	return convert(v), nil
}

func read(pd *properties.PropertyDef, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	if pd.IsMultivalued() {
		values, err := decodeMulti(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to read property %q: %w", pd.Name(), err)
		}
		return pd.Validate(values)
	}

	v, err := pd.Type().Coerce(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read property %q: %w", pd.Name(), err)
	}
	return v, nil
}

func readID(raw any) (uuid.UUID, error) {
	v, err := properties.UUID.Coerce(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if v == nil {
		return uuid.Nil, fmt.Errorf("identity column is null")
	}
	return v.(uuid.UUID), nil
}
