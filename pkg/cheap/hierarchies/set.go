package hierarchies

import (
	"slices"

	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/types"
	"github.com/google/uuid"
)

// EntitySet holds unique entities. Iteration follows insertion order.
type EntitySet struct {
	base
	order   []uuid.UUID
	members map[uuid.UUID]types.Identity
}

func NewEntitySet(catalog types.Identity, def *HierarchyDef) (*EntitySet, error) {
	if err := checkDef(def, Set); err != nil {
		return nil, err
	}

	return &EntitySet{
		base:    base{def: def, catalog: catalog},
		members: map[uuid.UUID]types.Identity{},
	}, nil
}

// Add reports false if an entity with the same global id already is a member
func (s *EntitySet) Add(e types.Identity) (bool, error) {
	if types.IsNil(e) {
		return false, errors.NewConfigurationError("set %q cannot hold a nil entity", s.def.Name())
	}

	added := false

	err := s.modify(func() (bool, error) {
		id := e.GlobalID()
		if _, exists := s.members[id]; exists {
			return false, nil
		}
		s.members[id] = e
		s.order = append(s.order, id)
		added = true
		return true, nil
	})

	return added, err
}

func (s *EntitySet) Remove(e types.Identity) (bool, error) {
	if types.IsNil(e) {
		return false, nil
	}

	removed := false

	err := s.modify(func() (bool, error) {
		id := e.GlobalID()
		if _, exists := s.members[id]; !exists {
			return false, nil
		}
		delete(s.members, id)
		s.order = slices.DeleteFunc(s.order, func(other uuid.UUID) bool { return other == id })
		removed = true
		return true, nil
	})

	return removed, err
}

func (s *EntitySet) Contains(e types.Identity) bool {
	if types.IsNil(e) {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[e.GlobalID()]
	return ok
}

func (s *EntitySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *EntitySet) Entities() []types.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := make([]types.Identity, 0, len(s.order))
	for _, id := range s.order {
		entities = append(entities, s.members[id])
	}
	return entities
}

func (s *EntitySet) ForEach(callback func(e types.Identity)) {
	for _, e := range s.Entities() {
		callback(e)
	}
}
