package catalog

import (
	"slices"
	"sync"

	"github.com/diwise/cheap/pkg/cheap/aspects"
	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/hierarchies"
	"github.com/diwise/cheap/pkg/cheap/types"
	"github.com/google/uuid"
)

// CatalogDef declares the hierarchies and aspect definitions a catalog is made of
type CatalogDef struct {
	hierarchyDefs []*hierarchies.HierarchyDef
	aspectDefs    []*aspects.AspectDef
}

type CatalogDefDecoratorFunc func(cd *CatalogDef)

func HierarchyDef(hd *hierarchies.HierarchyDef) CatalogDefDecoratorFunc {
	return func(cd *CatalogDef) {
		cd.hierarchyDefs = append(cd.hierarchyDefs, hd)
	}
}

func AspectDef(ad *aspects.AspectDef) CatalogDefDecoratorFunc {
	return func(cd *CatalogDef) {
		cd.aspectDefs = append(cd.aspectDefs, ad)
	}
}

func NewCatalogDef(decorators ...CatalogDefDecoratorFunc) (*CatalogDef, error) {
	cd := &CatalogDef{}

	for _, decorator := range decorators {
		decorator(cd)
	}

	seen := map[string]bool{}
	for _, hd := range cd.hierarchyDefs {
		if seen[hd.Name()] {
			return nil, errors.NewConfigurationError("catalog definition declares hierarchy %q more than once", hd.Name())
		}
		seen[hd.Name()] = true
	}

	seen = map[string]bool{}
	for _, ad := range cd.aspectDefs {
		if seen[ad.Name()] {
			return nil, errors.NewConfigurationError("catalog definition declares aspect %q more than once", ad.Name())
		}
		seen[ad.Name()] = true
	}

	return cd, nil
}

func (cd *CatalogDef) HierarchyDefs() []*hierarchies.HierarchyDef {
	return slices.Clone(cd.hierarchyDefs)
}

func (cd *CatalogDef) AspectDefs() []*aspects.AspectDef {
	return slices.Clone(cd.aspectDefs)
}

// Declares reports whether a hierarchy with the given name and type is part of the definition.
// Aspect maps are implicitly declared by their aspect definition.
func (cd *CatalogDef) Declares(hd *hierarchies.HierarchyDef) bool {
	for _, declared := range cd.hierarchyDefs {
		if declared.Name() == hd.Name() && declared.Type() == hd.Type() {
			return true
		}
	}

	if hd.Type() == hierarchies.AspectMapType {
		for _, ad := range cd.aspectDefs {
			if ad.Name() == hd.Name() {
				return true
			}
		}
	}

	return false
}

// Catalog is a namespace owning a directory of hierarchies and a directory of
// aspect definitions, its aspectage
type Catalog struct {
	globalID uuid.UUID
	species  Species
	upstream types.Identity
	def      *CatalogDef
	strict   bool

	mu             sync.RWMutex
	hierarchyNames []string
	hierarchies    map[string]hierarchies.Hierarchy
	aspectDefNames []string
	aspectage      map[string]*aspects.AspectDef
}

type CatalogDecoratorFunc func(c *Catalog)

func GlobalID(id uuid.UUID) CatalogDecoratorFunc {
	return func(c *Catalog) {
		c.globalID = id
	}
}

func Upstream(upstream types.Identity) CatalogDecoratorFunc {
	return func(c *Catalog) {
		c.upstream = upstream
	}
}

// Definition attaches a catalog definition whose aspect defs seed the aspectage
func Definition(def *CatalogDef) CatalogDecoratorFunc {
	return func(c *Catalog) {
		c.def = def
	}
}

// Strict limits the catalog to the hierarchies declared in its definition
func Strict() CatalogDecoratorFunc {
	return func(c *Catalog) {
		c.strict = true
	}
}

func New(species Species, decorators ...CatalogDecoratorFunc) (*Catalog, error) {
	if !species.IsValid() {
		return nil, errors.NewConfigurationError("invalid catalog species %s", species)
	}

	c := &Catalog{
		species:     species,
		hierarchies: map[string]hierarchies.Hierarchy{},
		aspectage:   map[string]*aspects.AspectDef{},
	}

	for _, decorator := range decorators {
		decorator(c)
	}

	if c.globalID == uuid.Nil {
		c.globalID = uuid.New()
	}

	if types.IsNil(c.upstream) {
		c.upstream = nil
	}

	if species.RequiresUpstream() && c.upstream == nil {
		return nil, errors.NewConfigurationError("a %s catalog requires an upstream catalog", species)
	}

	if !species.RequiresUpstream() && c.upstream != nil {
		return nil, errors.NewConfigurationError("a %s catalog must not have an upstream catalog", species)
	}

	if c.strict && c.def == nil {
		return nil, errors.NewConfigurationError("a strict catalog requires a catalog definition")
	}

	if c.def != nil {
		for _, ad := range c.def.aspectDefs {
			if err := c.AddAspectDef(ad); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

func (c *Catalog) GlobalID() uuid.UUID      { return c.globalID }
func (c *Catalog) Species() Species         { return c.species }
func (c *Catalog) Upstream() types.Identity { return c.upstream }
func (c *Catalog) Def() *CatalogDef         { return c.def }
func (c *Catalog) IsStrict() bool           { return c.strict }

// AddAspectDef registers def in the aspectage. Registering the same def twice is a
// no-op while a different def under an existing name is a schema mismatch.
func (c *Catalog) AddAspectDef(def *aspects.AspectDef) error {
	if def == nil {
		return errors.NewConfigurationError("cannot add a nil aspect definition")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.addAspectDef(def)
}

func (c *Catalog) addAspectDef(def *aspects.AspectDef) error {
	if existing, ok := c.aspectage[def.Name()]; ok {
		if existing == def || !existing.Conflicts(def) {
			return nil
		}
		return errors.NewSchemaMismatchError("catalog already has a different aspect definition named %q", def.Name())
	}

	c.aspectage[def.Name()] = def
	c.aspectDefNames = append(c.aspectDefNames, def.Name())
	return nil
}

func (c *Catalog) AspectDef(name string) (*aspects.AspectDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ad, ok := c.aspectage[name]
	return ad, ok
}

func (c *Catalog) ForEachAspectDef(callback func(def *aspects.AspectDef)) {
	c.mu.RLock()
	defs := make([]*aspects.AspectDef, 0, len(c.aspectDefNames))
	for _, name := range c.aspectDefNames {
		defs = append(defs, c.aspectage[name])
	}
	c.mu.RUnlock()

	for _, def := range defs {
		callback(def)
	}
}

// AddHierarchy registers h in the hierarchy directory. It fails if h is owned by another
// catalog, if a strict catalog does not declare it, or if it would replace an aspect map.
func (c *Catalog) AddHierarchy(h hierarchies.Hierarchy) error {
	if h == nil {
		return errors.NewConfigurationError("cannot add a nil hierarchy")
	}

	def := h.Def()

	if owner := h.Catalog(); owner == nil || owner.GlobalID() != c.globalID {
		return errors.NewConfigurationError("hierarchy %q is not owned by catalog %s", def.Name(), c.globalID)
	}

	if c.strict && !c.def.Declares(def) {
		return errors.NewConfigurationError("hierarchy %q is not declared by strict catalog %s", def.Name(), c.globalID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.hierarchies[def.Name()]; ok {
		if existing == h {
			return nil
		}
		if existing.Def().Type() == hierarchies.AspectMapType {
			return errors.NewConfigurationError("aspect map %q cannot be replaced", def.Name())
		}
	} else {
		c.hierarchyNames = append(c.hierarchyNames, def.Name())
	}

	if am, ok := h.(*hierarchies.AspectMap); ok {
		if err := c.addAspectDef(am.AspectDef()); err != nil {
			return err
		}
	}

	c.hierarchies[def.Name()] = h
	return nil
}

func (c *Catalog) Hierarchy(name string) (hierarchies.Hierarchy, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.hierarchies[name]
	return h, ok
}

// RemoveHierarchy drops a hierarchy from the directory. Aspect maps hold the aspects
// of the catalog and can not be removed.
func (c *Catalog) RemoveHierarchy(name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.hierarchies[name]
	if !ok {
		return false, nil
	}

	if h.Def().Type() == hierarchies.AspectMapType {
		return false, errors.NewAccessViolationError("aspect map %q cannot be removed", name)
	}

	delete(c.hierarchies, name)
	c.hierarchyNames = slices.DeleteFunc(c.hierarchyNames, func(other string) bool { return other == name })
	return true, nil
}

func (c *Catalog) ForEachHierarchy(callback func(h hierarchies.Hierarchy)) {
	c.mu.RLock()
	hs := make([]hierarchies.Hierarchy, 0, len(c.hierarchyNames))
	for _, name := range c.hierarchyNames {
		hs = append(hs, c.hierarchies[name])
	}
	c.mu.RUnlock()

	for _, h := range hs {
		callback(h)
	}
}

// AspectMap returns the aspect map registered for def, if any
func (c *Catalog) AspectMap(def *aspects.AspectDef) (*hierarchies.AspectMap, bool) {
	h, ok := c.Hierarchy(def.Name())
	if !ok {
		return nil, false
	}

	am, ok := h.(*hierarchies.AspectMap)
	return am, ok
}

// CreateAspectMap returns the aspect map for def, creating and registering it when missing
func (c *Catalog) CreateAspectMap(def *aspects.AspectDef) (*hierarchies.AspectMap, error) {
	if am, ok := c.AspectMap(def); ok {
		if am.AspectDef().Conflicts(def) {
			return nil, errors.NewSchemaMismatchError("aspect map %q holds a different aspect definition", def.Name())
		}
		return am, nil
	}

	am, err := hierarchies.NewAspectMap(c, def)
	if err != nil {
		return nil, err
	}

	if err := c.AddHierarchy(am); err != nil {
		return nil, err
	}

	return am, nil
}

// LookupAspect resolves the aspect of entity for def from the catalog's aspect maps
func (c *Catalog) LookupAspect(entity types.Identity, def *aspects.AspectDef) (*aspects.Aspect, bool) {
	am, ok := c.AspectMap(def)
	if !ok {
		return nil, false
	}
	return am.Get(entity)
}
