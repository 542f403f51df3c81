package aspects

import (
	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/properties"
	"github.com/google/uuid"
)

// AspectDef is an immutable, named and ordered set of property definitions
type AspectDef struct {
	name     string
	globalID uuid.UUID

	propertyDefs []*properties.PropertyDef
	index        map[string]int

	readable            bool
	writable            bool
	canAddProperties    bool
	canRemoveProperties bool
}

type AspectDefDecoratorFunc func(ad *AspectDef)

func GlobalID(id uuid.UUID) AspectDefDecoratorFunc {
	return func(ad *AspectDef) {
		ad.globalID = id
	}
}

func Property(pd *properties.PropertyDef) AspectDefDecoratorFunc {
	return func(ad *AspectDef) {
		ad.propertyDefs = append(ad.propertyDefs, pd)
	}
}

func ReadOnly() AspectDefDecoratorFunc {
	return func(ad *AspectDef) {
		ad.writable = false
	}
}

// Extensible allows aspects of this def to carry properties the def does not declare
func Extensible() AspectDefDecoratorFunc {
	return func(ad *AspectDef) {
		ad.canAddProperties = true
	}
}

// Shrinkable allows removable properties to be removed from aspects of this def
func Shrinkable() AspectDefDecoratorFunc {
	return func(ad *AspectDef) {
		ad.canRemoveProperties = true
	}
}

func NewAspectDef(name string, decorators ...AspectDefDecoratorFunc) (*AspectDef, error) {
	if name == "" {
		return nil, errors.NewConfigurationError("aspect definitions must have a name")
	}

	ad := &AspectDef{
		name:     name,
		readable: true,
		writable: true,
	}

	for _, decorator := range decorators {
		decorator(ad)
	}

	if ad.globalID == uuid.Nil {
		ad.globalID = uuid.New()
	}

	ad.index = make(map[string]int, len(ad.propertyDefs))

	for i, pd := range ad.propertyDefs {
		if pd == nil {
			return nil, errors.NewConfigurationError("aspect %q has a nil property definition", name)
		}
		if _, exists := ad.index[pd.Name()]; exists {
			return nil, errors.NewConfigurationError("aspect %q declares property %q more than once", name, pd.Name())
		}
		ad.index[pd.Name()] = i
	}

	return ad, nil
}

func MustNewAspectDef(name string, decorators ...AspectDefDecoratorFunc) *AspectDef {
	ad, err := NewAspectDef(name, decorators...)
	if err != nil {
		panic(err)
	}
	return ad
}

func (ad *AspectDef) Name() string              { return ad.name }
func (ad *AspectDef) GlobalID() uuid.UUID       { return ad.globalID }
func (ad *AspectDef) IsReadable() bool          { return ad.readable }
func (ad *AspectDef) IsWritable() bool          { return ad.writable }
func (ad *AspectDef) CanAddProperties() bool    { return ad.canAddProperties }
func (ad *AspectDef) CanRemoveProperties() bool { return ad.canRemoveProperties }

// PropertyDefs returns a copy of the declared property definitions in declaration order
func (ad *AspectDef) PropertyDefs() []*properties.PropertyDef {
	defs := make([]*properties.PropertyDef, len(ad.propertyDefs))
	copy(defs, ad.propertyDefs)
	return defs
}

func (ad *AspectDef) PropertyDef(name string) (*properties.PropertyDef, bool) {
	idx, ok := ad.index[name]
	if !ok {
		return nil, false
	}
	return ad.propertyDefs[idx], true
}

func (ad *AspectDef) Len() int {
	return len(ad.propertyDefs)
}

// Equal compares names, which are unique within a catalog's aspectage
func (ad *AspectDef) Equal(other *AspectDef) bool {
	if ad == nil || other == nil {
		return ad == other
	}
	return ad.name == other.name
}

// Conflicts reports whether other has the same name but a different property layout
func (ad *AspectDef) Conflicts(other *AspectDef) bool {
	if !ad.Equal(other) || ad == other {
		return false
	}

	if len(ad.propertyDefs) != len(other.propertyDefs) {
		return true
	}

	for _, pd := range ad.propertyDefs {
		opd, ok := other.PropertyDef(pd.Name())
		if !ok || pd.Conflicts(opd) {
			return true
		}
	}

	return false
}
