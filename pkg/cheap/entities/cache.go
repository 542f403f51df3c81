package entities

import (
	"weak"

	"github.com/diwise/cheap/pkg/cheap/aspects"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize int = 32

// AspectCache holds aspects resolved for one entity, keyed by aspect def name.
// Entries may disappear at any time, callers must always be able to resolve
// an aspect from its source of truth.
type AspectCache interface {
	Get(aspectDefName string) (*aspects.Aspect, bool)
	Put(aspectDefName string, a *aspects.Aspect)
	Evict(aspectDefName string)
	Len() int
}

// weakLRU is bounded by size and only holds weak references to its values,
// which lets the garbage collector reclaim aspects nobody else refers to
type weakLRU struct {
	entries *lru.Cache[string, weak.Pointer[aspects.Aspect]]
}

func NewAspectCache(size int) (AspectCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	entries, err := lru.New[string, weak.Pointer[aspects.Aspect]](size)
	if err != nil {
		return nil, err
	}

	return &weakLRU{entries: entries}, nil
}

func (c *weakLRU) Get(aspectDefName string) (*aspects.Aspect, bool) {
	wp, ok := c.entries.Get(aspectDefName)
	if !ok {
		return nil, false
	}

	a := wp.Value()
	if a == nil {
		c.entries.Remove(aspectDefName)
		return nil, false
	}

	return a, true
}

func (c *weakLRU) Put(aspectDefName string, a *aspects.Aspect) {
	if a == nil {
		return
	}
	c.entries.Add(aspectDefName, weak.Make(a))
}

func (c *weakLRU) Evict(aspectDefName string) {
	c.entries.Remove(aspectDefName)
}

func (c *weakLRU) Len() int {
	return c.entries.Len()
}

type noCache struct{}

// NoCache disables caching, every lookup goes to the catalogs
func NoCache() AspectCache {
	return noCache{}
}

func (noCache) Get(string) (*aspects.Aspect, bool) { return nil, false }
func (noCache) Put(string, *aspects.Aspect)        {}
func (noCache) Evict(string)                       {}
func (noCache) Len() int                           { return 0 }
