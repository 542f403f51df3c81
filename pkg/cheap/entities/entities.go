package entities

import (
	"sync"

	"github.com/diwise/cheap/pkg/cheap/types"
	"github.com/google/uuid"
)

// IdentityStrategy decides when the global id of an entity is produced
type IdentityStrategy interface {
	GlobalID() uuid.UUID
}

type eagerIdentity struct {
	id uuid.UUID
}

func (ei eagerIdentity) GlobalID() uuid.UUID {
	return ei.id
}

// lazyIdentity generates its id on the first call. Concurrent first callers
// all observe the single generated value.
type lazyIdentity struct {
	id func() uuid.UUID
}

func (li lazyIdentity) GlobalID() uuid.UUID {
	return li.id()
}

func Eager(id uuid.UUID) IdentityStrategy {
	return eagerIdentity{id: id}
}

func Lazy(generate func() uuid.UUID) IdentityStrategy {
	return lazyIdentity{id: sync.OnceValue(generate)}
}

// Entity is a globally addressable identity. Entities are equal iff their
// global ids are equal.
type Entity struct {
	identity IdentityStrategy
}

// New creates an entity with a random, eagerly assigned id
func New() *Entity {
	return &Entity{identity: Eager(uuid.New())}
}

func NewWithID(id uuid.UUID) *Entity {
	return &Entity{identity: Eager(id)}
}

// NewLazy creates an entity whose id is generated the first time it is asked for
func NewLazy() *Entity {
	return &Entity{identity: Lazy(uuid.New)}
}

func NewWithStrategy(strategy IdentityStrategy) *Entity {
	return &Entity{identity: strategy}
}

func (e *Entity) GlobalID() uuid.UUID {
	return e.identity.GlobalID()
}

func (e *Entity) Equal(other types.Identity) bool {
	return types.SameIdentity(e, other)
}

func (e *Entity) String() string {
	return e.GlobalID().String()
}
