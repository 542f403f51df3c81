package entities

import (
	"sync"

	"github.com/diwise/cheap/pkg/cheap/aspects"
	"github.com/diwise/cheap/pkg/cheap/types"
	"github.com/google/uuid"
)

// AspectProvider is the source of truth for aspects, typically a catalog whose
// aspect map hierarchies hold them
type AspectProvider interface {
	types.Identity
	LookupAspect(entity types.Identity, def *aspects.AspectDef) (*aspects.Aspect, bool)
}

// LocalEntity attaches an aspect cache to an entity. The aspects themselves are
// resolved from one or more providers, searched in the order they were given.
type LocalEntity struct {
	entity    types.Identity
	providers []AspectProvider

	cache func() AspectCache
}

type LocalEntityDecoratorFunc func(le *LocalEntity)

// WithCache injects the cache used by the local entity. The factory is invoked
// at most once, on the first aspect lookup.
func WithCache(factory func() AspectCache) LocalEntityDecoratorFunc {
	return func(le *LocalEntity) {
		le.cache = sync.OnceValue(factory)
	}
}

// NewLocal binds entity to a single catalog
func NewLocal(entity types.Identity, catalog AspectProvider, decorators ...LocalEntityDecoratorFunc) *LocalEntity {
	return newLocalEntity(entity, []AspectProvider{catalog}, decorators...)
}

// NewMultiCatalog binds entity to several catalogs. Lookups return the first hit
// in the order the catalogs are listed.
func NewMultiCatalog(entity types.Identity, catalogs []AspectProvider, decorators ...LocalEntityDecoratorFunc) *LocalEntity {
	return newLocalEntity(entity, catalogs, decorators...)
}

func newLocalEntity(entity types.Identity, providers []AspectProvider, decorators ...LocalEntityDecoratorFunc) *LocalEntity {
	le := &LocalEntity{
		entity:    entity,
		providers: make([]AspectProvider, 0, len(providers)),
	}

	for _, p := range providers {
		if p != nil {
			le.providers = append(le.providers, p)
		}
	}

	WithCache(defaultCache)(le)

	for _, decorator := range decorators {
		decorator(le)
	}

	return le
}

func defaultCache() AspectCache {
	c, err := NewAspectCache(DefaultCacheSize)
	if err != nil {
		return NoCache()
	}
	return c
}

func (le *LocalEntity) GlobalID() uuid.UUID {
	return le.entity.GlobalID()
}

func (le *LocalEntity) Entity() types.Identity {
	return le.entity
}

func (le *LocalEntity) Catalogs() []AspectProvider {
	providers := make([]AspectProvider, len(le.providers))
	copy(providers, le.providers)
	return providers
}

// Aspect resolves the aspect of this entity for def, consulting the cache first
func (le *LocalEntity) Aspect(def *aspects.AspectDef) (*aspects.Aspect, bool) {
	cache := le.cache()

	if a, ok := cache.Get(def.Name()); ok {
		return a, true
	}

	for _, provider := range le.providers {
		if a, ok := provider.LookupAspect(le.entity, def); ok {
			cache.Put(def.Name(), a)
			return a, true
		}
	}

	return nil, false
}

// Forget drops a cached aspect so that the next lookup goes to the catalogs
func (le *LocalEntity) Forget(def *aspects.AspectDef) {
	le.cache().Evict(def.Name())
}

func (le *LocalEntity) CachedAspects() int {
	return le.cache().Len()
}
