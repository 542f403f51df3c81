package hierarchies

import (
	"slices"

	"github.com/diwise/cheap/pkg/cheap/types"
)

// EntityDirectory maps unique names to entities and iterates in insertion order
type EntityDirectory struct {
	base
	names   []string
	entries map[string]types.Identity
}

func NewEntityDirectory(catalog types.Identity, def *HierarchyDef) (*EntityDirectory, error) {
	if err := checkDef(def, Directory); err != nil {
		return nil, err
	}

	return &EntityDirectory{
		base:    base{def: def, catalog: catalog},
		entries: map[string]types.Identity{},
	}, nil
}

// Put binds name to e. Rebinding an existing name keeps its position.
func (d *EntityDirectory) Put(name string, e types.Identity) error {
	return d.modify(func() (bool, error) {
		if _, exists := d.entries[name]; !exists {
			d.names = append(d.names, name)
		}
		d.entries[name] = e
		return true, nil
	})
}

func (d *EntityDirectory) Remove(name string) (bool, error) {
	removed := false

	err := d.modify(func() (bool, error) {
		if _, exists := d.entries[name]; !exists {
			return false, nil
		}
		delete(d.entries, name)
		d.names = slices.DeleteFunc(d.names, func(other string) bool { return other == name })
		removed = true
		return true, nil
	})

	return removed, err
}

func (d *EntityDirectory) Get(name string) (types.Identity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[name]
	return e, ok
}

func (d *EntityDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}

func (d *EntityDirectory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.names)
}

func (d *EntityDirectory) ForEach(callback func(name string, e types.Identity)) {
	d.mu.RLock()
	names := slices.Clone(d.names)
	entries := make([]types.Identity, len(names))
	for i, name := range names {
		entries[i] = d.entries[name]
	}
	d.mu.RUnlock()

	for i, name := range names {
		callback(name, entries[i])
	}
}
