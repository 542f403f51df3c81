package aspects

import (
	"sync"

	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/properties"
	"github.com/diwise/cheap/pkg/cheap/types"
)

// Aspect holds the property values of one entity for a single AspectDef.
// It is safe for concurrent use.
type Aspect struct {
	def     *AspectDef
	entity  types.Identity
	catalog types.Identity

	mu     sync.RWMutex
	values map[string]*properties.Property
	// properties not declared by def, in the order they were added
	extra []*properties.PropertyDef
}

type AspectDecoratorFunc func(a *Aspect) error

// Catalog records the catalog the aspect belongs to
func Catalog(c types.Identity) AspectDecoratorFunc {
	return func(a *Aspect) error {
		a.catalog = c
		return nil
	}
}

// Value writes a property through the validated path during construction
func Value(name string, value any) AspectDecoratorFunc {
	return func(a *Aspect) error {
		return a.write(name, value)
	}
}

func New(entity types.Identity, def *AspectDef, decorators ...AspectDecoratorFunc) (*Aspect, error) {
	if def == nil {
		return nil, errors.NewConfigurationError("an aspect requires a definition")
	}

	a := &Aspect{
		def:    def,
		entity: entity,
		values: make(map[string]*properties.Property, def.Len()),
	}

	for _, decorator := range decorators {
		if err := decorator(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *Aspect) Def() *AspectDef        { return a.def }
func (a *Aspect) Entity() types.Identity { return a.entity }

func (a *Aspect) Catalog() types.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.catalog
}

// SetCatalog is used by hierarchies when an aspect is registered with them
func (a *Aspect) SetCatalog(c types.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.catalog = c
}

func (a *Aspect) propertyDef(name string) (*properties.PropertyDef, bool) {
	if pd, ok := a.def.PropertyDef(name); ok {
		return pd, true
	}
	for _, pd := range a.extra {
		if pd.Name() == name {
			return pd, true
		}
	}
	return nil, false
}

// PropertyDef resolves name against the aspect def and any added properties
func (a *Aspect) PropertyDef(name string) (*properties.PropertyDef, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.propertyDef(name)
}

// Get reads a property value, falling back to the declared default when the
// property has never been written
func (a *Aspect) Get(name string) (any, error) {
	if !a.def.IsReadable() {
		return nil, errors.NewAccessViolationError("aspect %q is not readable", a.def.Name())
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	pd, ok := a.propertyDef(name)
	if !ok {
		return nil, errors.NewNotFoundError("aspect %q has no property %q", a.def.Name(), name)
	}

	if !pd.IsReadable() {
		return nil, errors.NewAccessViolationError("property %q of aspect %q is not readable", name, a.def.Name())
	}

	if p, ok := a.values[name]; ok {
		return p.Value(), nil
	}

	dv, _ := pd.DefaultValue()
	return dv, nil
}

// Property returns the bound property, if any value has been written for name
func (a *Aspect) Property(name string) (*properties.Property, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.values[name]
	return p, ok
}

// Write validates value against the declared property def and stores it
func (a *Aspect) Write(name string, value any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.write(name, value)
}

func (a *Aspect) write(name string, value any) error {
	if !a.def.IsWritable() {
		return errors.NewAccessViolationError("aspect %q is not writable", a.def.Name())
	}

	pd, ok := a.propertyDef(name)
	if !ok {
		return errors.NewNotFoundError("aspect %q has no property %q", a.def.Name(), name)
	}

	if !pd.IsWritable() {
		return errors.NewAccessViolationError("property %q of aspect %q is not writable", name, a.def.Name())
	}

	p, err := properties.New(pd, value)
	if err != nil {
		return err
	}

	a.values[name] = p
	return nil
}

// Put stores a complete property. A property whose def conflicts with the def already
// bound under the same name is rejected, and undeclared properties are only accepted
// by extensible aspect defs.
func (a *Aspect) Put(p *properties.Property) error {
	if !a.def.IsWritable() {
		return errors.NewAccessViolationError("aspect %q is not writable", a.def.Name())
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	name := p.Def().Name()

	existing, ok := a.propertyDef(name)
	if ok {
		if existing.Conflicts(p.Def()) {
			return errors.NewSchemaMismatchError(
				"property %s conflicts with %s already bound in aspect %q", p.Def(), existing, a.def.Name(),
			)
		}
		if !existing.IsWritable() {
			return errors.NewAccessViolationError("property %q of aspect %q is not writable", name, a.def.Name())
		}
	} else if !a.def.CanAddProperties() {
		return errors.NewAccessViolationError("aspect %q does not accept new property %q", a.def.Name(), name)
	}

	v, err := p.Def().Validate(p.Value())
	if err != nil {
		return err
	}

	if !ok {
		a.extra = append(a.extra, p.Def())
		existing = p.Def()
	}

	a.values[name] = properties.NewUnchecked(existing, v)
	return nil
}

// UnsafeWrite stores value without any validation or access check. Loaders use it
// after converting column values themselves. Unknown names are ignored.
func (a *Aspect) UnsafeWrite(name string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pd, ok := a.propertyDef(name)
	if !ok {
		return
	}

	a.values[name] = properties.NewUnchecked(pd, value)
}

// UnsafeRead returns the stored value, or the default, without access checks
func (a *Aspect) UnsafeRead(name string) any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if p, ok := a.values[name]; ok {
		return p.Value()
	}

	if pd, ok := a.propertyDef(name); ok {
		dv, _ := pd.DefaultValue()
		return dv
	}

	return nil
}

func (a *Aspect) Remove(name string) error {
	if !a.def.CanRemoveProperties() {
		return errors.NewAccessViolationError("aspect %q does not allow property removal", a.def.Name())
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	pd, ok := a.propertyDef(name)
	if !ok {
		return errors.NewNotFoundError("aspect %q has no property %q", a.def.Name(), name)
	}

	if !pd.IsRemovable() {
		return errors.NewAccessViolationError("property %q of aspect %q is not removable", name, a.def.Name())
	}

	delete(a.values, name)

	for i, extra := range a.extra {
		if extra.Name() == name {
			a.extra = append(a.extra[:i], a.extra[i+1:]...)
			break
		}
	}

	return nil
}

// ForEachProperty calls callback for every property of the aspect, declared ones first
// in declaration order. Unwritten properties are reported with their default value.
func (a *Aspect) ForEachProperty(callback func(pd *properties.PropertyDef, value any)) {
	a.mu.RLock()
	defs := a.def.PropertyDefs()
	defs = append(defs, a.extra...)
	values := make([]any, len(defs))
	for i, pd := range defs {
		if p, ok := a.values[pd.Name()]; ok {
			values[i] = p.Value()
		} else {
			values[i], _ = pd.DefaultValue()
		}
	}
	a.mu.RUnlock()

	for i, pd := range defs {
		callback(pd, values[i])
	}
}
