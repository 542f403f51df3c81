package hierarchies

import (
	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/types"
)

// EntityList is an ordered sequence of entities, duplicates are allowed
type EntityList struct {
	base
	entities []types.Identity
}

func NewEntityList(catalog types.Identity, def *HierarchyDef) (*EntityList, error) {
	if err := checkDef(def, List); err != nil {
		return nil, err
	}

	return &EntityList{base: base{def: def, catalog: catalog}}, nil
}

func (l *EntityList) Add(e types.Identity) error {
	return l.modify(func() (bool, error) {
		l.entities = append(l.entities, e)
		return true, nil
	})
}

func (l *EntityList) Insert(index int, e types.Identity) error {
	return l.modify(func() (bool, error) {
		if index < 0 || index > len(l.entities) {
			return false, errors.NewNotFoundError("index %d out of range for list %q", index, l.def.Name())
		}
		l.entities = append(l.entities, nil)
		copy(l.entities[index+1:], l.entities[index:])
		l.entities[index] = e
		return true, nil
	})
}

func (l *EntityList) RemoveAt(index int) error {
	return l.modify(func() (bool, error) {
		if index < 0 || index >= len(l.entities) {
			return false, errors.NewNotFoundError("index %d out of range for list %q", index, l.def.Name())
		}
		l.entities = append(l.entities[:index], l.entities[index+1:]...)
		return true, nil
	})
}

// Remove drops the first occurrence of e and reports whether one was found
func (l *EntityList) Remove(e types.Identity) (bool, error) {
	removed := false

	err := l.modify(func() (bool, error) {
		for i, existing := range l.entities {
			if types.SameIdentity(existing, e) {
				l.entities = append(l.entities[:i], l.entities[i+1:]...)
				removed = true
				break
			}
		}
		return removed, nil
	})

	return removed, err
}

func (l *EntityList) Get(index int) (types.Identity, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.entities) {
		return nil, false
	}
	return l.entities[index], true
}

func (l *EntityList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entities)
}

func (l *EntityList) Entities() []types.Identity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entities := make([]types.Identity, len(l.entities))
	copy(entities, l.entities)
	return entities
}

func (l *EntityList) ForEach(callback func(index int, e types.Identity)) {
	for i, e := range l.Entities() {
		callback(i, e)
	}
}
