package persistence

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/diwise/cheap/pkg/cheap/aspects"
	"github.com/diwise/cheap/pkg/cheap/catalog"
	"github.com/diwise/cheap/pkg/cheap/dialect"
	"github.com/diwise/cheap/pkg/cheap/entities"
	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/hierarchies"
	"github.com/diwise/cheap/pkg/cheap/mapping"
	"github.com/diwise/cheap/pkg/cheap/types"
)

var tracer = otel.Tracer("cheap/persistence")

const (
	TraceAttributeTable     string = "cheap.table"
	TraceAttributeCatalogID string = "cheap.catalog_id"

	DefaultEntityTable string = "entities"
)

// Conn is the statement execution capability of a *sql.DB, *sql.Conn or *sql.Tx
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Engine moves the content of aspect maps to and from relational tables
// described by AspectTableMappings
type Engine struct {
	dialect     dialect.Dialect
	entityTable string
}

type EngineDecoratorFunc func(e *Engine)

// EntityTable sets the name of the entity identity store
func EntityTable(name string) EngineDecoratorFunc {
	return func(e *Engine) {
		e.entityTable = name
	}
}

func NewEngine(d dialect.Dialect, decorators ...EngineDecoratorFunc) *Engine {
	e := &Engine{
		dialect:     d,
		entityTable: DefaultEntityTable,
	}

	for _, decorator := range decorators {
		decorator(e)
	}

	return e
}

func (e *Engine) Dialect() dialect.Dialect {
	return e.dialect
}

// CreateTable creates the table of m unless it already exists. Tables carrying
// entity ids also get the entity identity store.
func (e *Engine) CreateTable(ctx context.Context, conn Conn, m *mapping.AspectTableMapping) error {
	var err error

	ctx, span := tracer.Start(ctx, "create-table",
		trace.WithAttributes(attribute.String(TraceAttributeTable, m.Table())),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if m.HasEntityID() {
		if _, err = conn.ExecContext(ctx, e.CreateEntityTableStatement()); err != nil {
			err = errors.NewPersistenceError(err, "failed to create entity table %s", e.entityTable)
			return err
		}
	}

	if _, err = conn.ExecContext(ctx, e.CreateTableStatement(m)); err != nil {
		err = errors.NewPersistenceError(err, "failed to create table %s", m.Table())
		return err
	}

	logging.GetFromContext(ctx).Debug("table created", slog.String("table", m.Table()))

	return nil
}

// Save writes the catalog's aspect map for the aspect def of m. A catalog without
// such a map saves an empty set, which still runs the cleanup of the table.
func (e *Engine) Save(ctx context.Context, conn Conn, cat *catalog.Catalog, m *mapping.AspectTableMapping) error {
	am, ok := cat.AspectMap(m.AspectDef())
	if !ok {
		var err error
		am, err = hierarchies.NewAspectMap(cat, m.AspectDef())
		if err != nil {
			return err
		}
	}

	return e.SaveAspectMap(ctx, conn, cat, m, am)
}

// SaveAspectMap replaces the rows of catalog cat in the table of m with the content of am.
// The cleanup step is applied before any row is written so callers that need all or
// nothing must run it inside a transaction.
func (e *Engine) SaveAspectMap(ctx context.Context, conn Conn, cat types.Identity, m *mapping.AspectTableMapping, am *hierarchies.AspectMap) error {
	var err error

	if cat == nil || am == nil {
		return errors.NewConfigurationError("save of table %s requires a catalog and an aspect map", m.Table())
	}

	if am.AspectDef().Name() != m.AspectDef().Name() {
		return errors.NewSchemaMismatchError("aspect map %q cannot be saved to table %s of aspect %q", am.AspectDef().Name(), m.Table(), m.AspectDef().Name())
	}

	catalogID := cat.GlobalID().String()

	ctx, span := tracer.Start(ctx, "save",
		trace.WithAttributes(attribute.String(TraceAttributeTable, m.Table())),
		trace.WithAttributes(attribute.String(TraceAttributeCatalogID, catalogID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if stmt, ok := e.CleanupStatement(m); ok {
		args := []any{}
		if m.HasCatalogID() {
			args = append(args, e.dialect.BindID(cat.GlobalID()))
		}

		if _, err = conn.ExecContext(ctx, stmt, args...); err != nil {
			err = errors.NewPersistenceError(err, "failed to clean table %s", m.Table())
			return err
		}
	}

	insert := e.InsertStatement(m)
	ensureEntity := e.EnsureEntityStatement()
	columns := m.Columns()

	count := 0

	for _, entry := range am.Entries() {
		entityID := entry.Entity.GlobalID()

		if m.HasEntityID() {
			if _, err = conn.ExecContext(ctx, ensureEntity, e.dialect.BindID(entityID)); err != nil {
				err = errors.NewPersistenceError(err, "failed to register entity %s", entityID)
				return err
			}
		}

		args := make([]any, 0, len(columns)+2)
		if m.HasCatalogID() {
			args = append(args, e.dialect.BindID(cat.GlobalID()))
		}
		if m.HasEntityID() {
			args = append(args, e.dialect.BindID(entityID))
		}

		for _, c := range columns {
			var v any
			v, err = e.dialect.Bind(c.Property, entry.Aspect.UnsafeRead(c.Property.Name()))
			if err != nil {
				return err
			}
			args = append(args, v)
		}

		if _, err = conn.ExecContext(ctx, insert, args...); err != nil {
			err = errors.NewPersistenceError(err, "failed to save aspect of entity %s to table %s", entityID, m.Table())
			return err
		}

		count++
	}

	logging.GetFromContext(ctx).Debug("aspects saved",
		slog.String("table", m.Table()), slog.String("catalog_id", catalogID), slog.Int("count", count),
	)

	return nil
}

// Load reads the rows of the table of m into the catalog's aspect map for the
// aspect def of m, creating the map if needed. It returns the number of rows read.
func (e *Engine) Load(ctx context.Context, conn Conn, cat *catalog.Catalog, m *mapping.AspectTableMapping) (int, error) {
	am, err := cat.CreateAspectMap(m.AspectDef())
	if err != nil {
		return 0, err
	}

	return e.LoadAspectMap(ctx, conn, cat, m, am)
}

// LoadAspectMap reads the rows visible to catalog cat into am. Rows carrying an entity
// id reuse the entity already held by am for that id. A table without entity ids
// replaces the contents of am, every row getting a new entity.
func (e *Engine) LoadAspectMap(ctx context.Context, conn Conn, cat types.Identity, m *mapping.AspectTableMapping, am *hierarchies.AspectMap) (int, error) {
	var err error

	if cat == nil || am == nil {
		return 0, errors.NewConfigurationError("load of table %s requires a catalog and an aspect map", m.Table())
	}

	catalogID := cat.GlobalID().String()

	ctx, span := tracer.Start(ctx, "load",
		trace.WithAttributes(attribute.String(TraceAttributeTable, m.Table())),
		trace.WithAttributes(attribute.String(TraceAttributeCatalogID, catalogID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	args := []any{}
	if m.HasCatalogID() {
		args = append(args, e.dialect.BindID(cat.GlobalID()))
	}

	rows, err := conn.QueryContext(ctx, e.SelectStatement(m), args...)
	if err != nil {
		err = errors.NewPersistenceError(err, "failed to query table %s", m.Table())
		return 0, err
	}
	defer rows.Close()

	if !m.HasEntityID() {
		// rows cannot be matched to the aspects already held
		if err = am.Clear(); err != nil {
			return 0, err
		}
	}

	def := am.AspectDef()
	columns := m.Columns()

	width := len(m.ColumnNames())

	offset := 0
	if m.HasCatalogID() {
		offset++
	}

	count := 0

	for rows.Next() {
		values := make([]any, width)
		dest := make([]any, width)
		for i := range values {
			dest[i] = &values[i]
		}

		if err = rows.Scan(dest...); err != nil {
			err = errors.NewPersistenceError(err, "failed to scan row of table %s", m.Table())
			return count, err
		}

		var entity types.Identity
		propertyOffset := offset

		if m.HasEntityID() {
			entity, err = e.resolveEntity(am, values[offset])
			if err != nil {
				return count, err
			}
			propertyOffset++
		} else {
			entity = entities.New()
		}

		var a *aspects.Aspect
		a, err = aspects.New(entity, def)
		if err != nil {
			return count, err
		}

		for i, c := range columns {
			pd, ok := def.PropertyDef(c.Property.Name())
			if !ok {
				continue
			}

			var v any
			v, err = e.dialect.Read(pd, values[propertyOffset+i])
			if err != nil {
				err = errors.NewSchemaMismatchError("table %s column %s: %s", m.Table(), c.Column, err.Error())
				return count, err
			}
			a.UnsafeWrite(pd.Name(), v)
		}

		if err = am.Put(entity, a); err != nil {
			return count, err
		}

		count++
	}

	if err = rows.Err(); err != nil {
		err = errors.NewPersistenceError(err, "failed to read rows of table %s", m.Table())
		return count, err
	}

	logging.GetFromContext(ctx).Debug("aspects loaded",
		slog.String("table", m.Table()), slog.String("catalog_id", catalogID), slog.Int("count", count),
	)

	return count, nil
}

func (e *Engine) resolveEntity(am *hierarchies.AspectMap, raw any) (types.Identity, error) {
	id, err := e.dialect.ReadID(raw)
	if err != nil {
		return nil, errors.NewSchemaMismatchError("invalid entity id in table: %s", err.Error())
	}

	if existing, ok := am.Entity(id); ok {
		return existing, nil
	}

	return entities.NewWithID(id), nil
}

// Count returns the number of rows of the table of m visible to catalog cat
func (e *Engine) Count(ctx context.Context, conn Conn, cat types.Identity, m *mapping.AspectTableMapping) (int64, error) {
	args := []any{}
	if m.HasCatalogID() {
		args = append(args, e.dialect.BindID(cat.GlobalID()))
	}

	rows, err := conn.QueryContext(ctx, e.CountStatement(m), args...)
	if err != nil {
		return 0, errors.NewPersistenceError(err, "failed to count rows of table %s", m.Table())
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err = rows.Scan(&count); err != nil {
			return 0, errors.NewPersistenceError(err, "failed to count rows of table %s", m.Table())
		}
	}

	if err = rows.Err(); err != nil {
		return 0, errors.NewPersistenceError(err, "failed to count rows of table %s", m.Table())
	}

	return count, nil
}
