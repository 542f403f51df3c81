package hierarchies

import (
	"slices"

	"github.com/diwise/cheap/pkg/cheap/aspects"
	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/types"
	"github.com/google/uuid"
)

type Entry struct {
	Entity types.Identity
	Aspect *aspects.Aspect
}

// AspectMap maps entities to their aspect of one fixed AspectDef. It is the
// hierarchy persistence reads from and writes to.
type AspectMap struct {
	base
	aspectDef *aspects.AspectDef

	order   []uuid.UUID
	entries map[uuid.UUID]Entry
}

// NewAspectMap creates an aspect map named after its aspect def
func NewAspectMap(catalog types.Identity, def *aspects.AspectDef, decorators ...HierarchyDefDecoratorFunc) (*AspectMap, error) {
	if def == nil {
		return nil, errors.NewConfigurationError("an aspect map requires an aspect definition")
	}

	hd, err := NewHierarchyDef(def.Name(), AspectMapType, decorators...)
	if err != nil {
		return nil, err
	}

	return &AspectMap{
		base:      base{def: hd, catalog: catalog},
		aspectDef: def,
		entries:   map[uuid.UUID]Entry{},
	}, nil
}

func (m *AspectMap) AspectDef() *aspects.AspectDef {
	return m.aspectDef
}

// Put binds a to e, replacing whatever e was bound to. An existing entry for the
// same global id keeps its position but takes the new entity and aspect.
func (m *AspectMap) Put(e types.Identity, a *aspects.Aspect) error {
	if types.IsNil(e) || a == nil {
		return errors.NewConfigurationError("aspect map %q requires both an entity and an aspect", m.def.Name())
	}

	if !a.Def().Equal(m.aspectDef) || a.Def().Conflicts(m.aspectDef) {
		return errors.NewSchemaMismatchError(
			"aspect of type %q cannot be stored in aspect map %q", a.Def().Name(), m.aspectDef.Name(),
		)
	}

	if owner := a.Entity(); owner != nil && !types.SameIdentity(owner, e) {
		return errors.NewSchemaMismatchError(
			"aspect belongs to entity %s and cannot be bound to %s", owner.GlobalID(), e.GlobalID(),
		)
	}

	return m.modify(func() (bool, error) {
		id := e.GlobalID()
		if _, exists := m.entries[id]; !exists {
			m.order = append(m.order, id)
		}
		m.entries[id] = Entry{Entity: e, Aspect: a}
		a.SetCatalog(m.catalog)
		return true, nil
	})
}

func (m *AspectMap) Get(e types.Identity) (*aspects.Aspect, bool) {
	if types.IsNil(e) {
		return nil, false
	}
	return m.GetByID(e.GlobalID())
}

func (m *AspectMap) GetByID(id uuid.UUID) (*aspects.Aspect, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	return entry.Aspect, ok
}

// Entity returns the entity object stored for id, which lets loaders keep
// entity identities stable across loads
func (m *AspectMap) Entity(id uuid.UUID) (types.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	return entry.Entity, ok
}

func (m *AspectMap) Contains(e types.Identity) bool {
	_, ok := m.Get(e)
	return ok
}

func (m *AspectMap) Remove(e types.Identity) (bool, error) {
	if types.IsNil(e) {
		return false, nil
	}

	removed := false

	err := m.modify(func() (bool, error) {
		id := e.GlobalID()
		if _, exists := m.entries[id]; !exists {
			return false, nil
		}
		delete(m.entries, id)
		m.order = slices.DeleteFunc(m.order, func(other uuid.UUID) bool { return other == id })
		removed = true
		return true, nil
	})

	return removed, err
}

func (m *AspectMap) Clear() error {
	return m.modify(func() (bool, error) {
		if len(m.order) == 0 {
			return false, nil
		}
		m.order = nil
		m.entries = map[uuid.UUID]Entry{}
		return true, nil
	})
}

func (m *AspectMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Entries returns a snapshot of the map in insertion order
func (m *AspectMap) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]Entry, 0, len(m.order))
	for _, id := range m.order {
		entries = append(entries, m.entries[id])
	}
	return entries
}

func (m *AspectMap) ForEach(callback func(e types.Identity, a *aspects.Aspect)) {
	for _, entry := range m.Entries() {
		callback(entry.Entity, entry.Aspect)
	}
}
