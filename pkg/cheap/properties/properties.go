package properties

import (
	"fmt"
	"reflect"

	"github.com/diwise/cheap/pkg/cheap/errors"
)

// PropertyDef is the schema of a single named, typed slot. Its name is the sole
// basis of equality, see Equal and Conflicts.
type PropertyDef struct {
	name string
	typ  PropertyType

	defaultValue any
	hasDefault   bool

	readable    bool
	writable    bool
	nullable    bool
	removable   bool
	multivalued bool
}

type PropertyDefDecoratorFunc func(pd *PropertyDef)

func ReadOnly() PropertyDefDecoratorFunc {
	return func(pd *PropertyDef) {
		pd.writable = false
	}
}

func WriteOnly() PropertyDefDecoratorFunc {
	return func(pd *PropertyDef) {
		pd.readable = false
	}
}

func NotNull() PropertyDefDecoratorFunc {
	return func(pd *PropertyDef) {
		pd.nullable = false
	}
}

// Fixed marks the property as impossible to remove from an aspect
func Fixed() PropertyDefDecoratorFunc {
	return func(pd *PropertyDef) {
		pd.removable = false
	}
}

func MultiValued() PropertyDefDecoratorFunc {
	return func(pd *PropertyDef) {
		pd.multivalued = true
	}
}

func Default(value any) PropertyDefDecoratorFunc {
	return func(pd *PropertyDef) {
		pd.defaultValue = value
		pd.hasDefault = true
	}
}

func NewPropertyDef(name string, typ PropertyType, decorators ...PropertyDefDecoratorFunc) (*PropertyDef, error) {
	if name == "" {
		return nil, errors.NewConfigurationError("property definitions must have a name")
	}

	if !typ.IsValid() {
		return nil, errors.NewConfigurationError("property %q has an invalid type %s", name, typ)
	}

	pd := &PropertyDef{
		name:      name,
		typ:       typ,
		readable:  true,
		writable:  true,
		nullable:  true,
		removable: true,
	}

	for _, decorator := range decorators {
		decorator(pd)
	}

	if pd.hasDefault {
		dv, err := pd.Validate(pd.defaultValue)
		if err != nil {
			return nil, errors.NewConfigurationError("invalid default for property %q: %s", name, err.Error())
		}
		pd.defaultValue = dv
	}

	return pd, nil
}

// MustNewPropertyDef panics on error and is intended for statically known schemas
func MustNewPropertyDef(name string, typ PropertyType, decorators ...PropertyDefDecoratorFunc) *PropertyDef {
	pd, err := NewPropertyDef(name, typ, decorators...)
	if err != nil {
		panic(err)
	}
	return pd
}

func (pd *PropertyDef) Name() string       { return pd.name }
func (pd *PropertyDef) Type() PropertyType { return pd.typ }
func (pd *PropertyDef) IsReadable() bool   { return pd.readable }
func (pd *PropertyDef) IsWritable() bool   { return pd.writable }
func (pd *PropertyDef) IsNullable() bool   { return pd.nullable }
func (pd *PropertyDef) IsRemovable() bool  { return pd.removable }
func (pd *PropertyDef) IsMultivalued() bool {
	return pd.multivalued
}

func (pd *PropertyDef) DefaultValue() (any, bool) {
	return pd.defaultValue, pd.hasDefault
}

func (pd *PropertyDef) Equal(other *PropertyDef) bool {
	if pd == nil || other == nil {
		return pd == other
	}
	return pd.name == other.name
}

// Conflicts reports whether other shares the name of pd but disagrees on type or flags
func (pd *PropertyDef) Conflicts(other *PropertyDef) bool {
	if !pd.Equal(other) {
		return false
	}

	return pd.typ != other.typ ||
		pd.nullable != other.nullable ||
		pd.multivalued != other.multivalued ||
		pd.readable != other.readable ||
		pd.writable != other.writable ||
		pd.removable != other.removable
}

// Validate checks nullability and arity and returns the value coerced to the
// canonical representation of the property type. Multivalued properties produce []any.
func (pd *PropertyDef) Validate(value any) (any, error) {
	if value == nil {
		if !pd.nullable {
			return nil, errors.NewSchemaMismatchError("property %q is not nullable", pd.name)
		}
		return nil, nil
	}

	if !pd.multivalued {
		v, err := pd.typ.Coerce(value)
		if err != nil {
			return nil, errors.NewSchemaMismatchError("property %q: %s", pd.name, err.Error())
		}
		return v, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, errors.NewSchemaMismatchError("property %q is multivalued and requires a slice, got %T", pd.name, value)
	}

	values := make([]any, 0, rv.Len())
	for i := range rv.Len() {
		elem := rv.Index(i).Interface()
		if elem == nil {
			return nil, errors.NewSchemaMismatchError("property %q does not allow nil elements", pd.name)
		}

		v, err := pd.typ.Coerce(elem)
		if err != nil {
			return nil, errors.NewSchemaMismatchError("property %q[%d]: %s", pd.name, i, err.Error())
		}
		values = append(values, v)
	}

	return values, nil
}

func (pd *PropertyDef) String() string {
	if pd.multivalued {
		return fmt.Sprintf("%s:[]%s", pd.name, pd.typ)
	}
	return fmt.Sprintf("%s:%s", pd.name, pd.typ)
}

// Property binds a raw value to its def
type Property struct {
	def   *PropertyDef
	value any
}

// New validates value against def before binding it
func New(def *PropertyDef, value any) (*Property, error) {
	v, err := def.Validate(value)
	if err != nil {
		return nil, err
	}
	return &Property{def: def, value: v}, nil
}

// NewUnchecked binds value without validation. It is meant for bulk loaders that
// have already converted the value.
func NewUnchecked(def *PropertyDef, value any) *Property {
	return &Property{def: def, value: value}
}

func (p *Property) Def() *PropertyDef { return p.def }

// Value returns the raw value without any access check
func (p *Property) Value() any {
	return p.value
}

func (p *Property) Read() (any, error) {
	if !p.def.readable {
		return nil, errors.NewAccessViolationError("property %q is not readable", p.def.name)
	}
	return p.value, nil
}

func (p *Property) Write(value any) error {
	if !p.def.writable {
		return errors.NewAccessViolationError("property %q is not writable", p.def.name)
	}

	v, err := p.def.Validate(value)
	if err != nil {
		return err
	}

	p.value = v
	return nil
}
