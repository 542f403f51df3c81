package hierarchies

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/types"
)

type Type int

const (
	List Type = iota + 1
	Set
	Directory
	Tree
	AspectMapType
)

var typeNames = map[Type]string{
	List:          "LIST",
	Set:           "SET",
	Directory:     "DIR",
	Tree:          "TREE",
	AspectMapType: "ASPECT_MAP",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return 0, errors.NewConfigurationError("unknown hierarchy type %q", name)
}

// HierarchyDef is the schema of a hierarchy, its name is unique within a catalog
type HierarchyDef struct {
	name       string
	typ        Type
	modifiable bool
}

type HierarchyDefDecoratorFunc func(hd *HierarchyDef)

func Immutable() HierarchyDefDecoratorFunc {
	return func(hd *HierarchyDef) {
		hd.modifiable = false
	}
}

func NewHierarchyDef(name string, typ Type, decorators ...HierarchyDefDecoratorFunc) (*HierarchyDef, error) {
	if name == "" {
		return nil, errors.NewConfigurationError("hierarchy definitions must have a name")
	}

	if _, ok := typeNames[typ]; !ok {
		return nil, errors.NewConfigurationError("hierarchy %q has an invalid type", name)
	}

	hd := &HierarchyDef{name: name, typ: typ, modifiable: true}

	for _, decorator := range decorators {
		decorator(hd)
	}

	return hd, nil
}

func MustNewHierarchyDef(name string, typ Type, decorators ...HierarchyDefDecoratorFunc) *HierarchyDef {
	hd, err := NewHierarchyDef(name, typ, decorators...)
	if err != nil {
		panic(err)
	}
	return hd
}

func (hd *HierarchyDef) Name() string       { return hd.name }
func (hd *HierarchyDef) Type() Type         { return hd.typ }
func (hd *HierarchyDef) IsModifiable() bool { return hd.modifiable }

// Hierarchy is the contract shared by every hierarchy variant
type Hierarchy interface {
	Def() *HierarchyDef
	Catalog() types.Identity
	Version() int64
}

type base struct {
	def     *HierarchyDef
	catalog types.Identity
	version atomic.Int64

	mu sync.RWMutex
}

func checkDef(def *HierarchyDef, expected Type) error {
	if def == nil {
		return errors.NewConfigurationError("a hierarchy requires a definition")
	}

	if def.Type() != expected {
		return errors.NewSchemaMismatchError(
			"hierarchy %q is declared as %s and cannot back a %s", def.Name(), def.Type(), expected,
		)
	}

	return nil
}

func (b *base) Def() *HierarchyDef      { return b.def }
func (b *base) Catalog() types.Identity { return b.catalog }
func (b *base) Version() int64          { return b.version.Load() }

// modify runs fn under the write lock and bumps the version when fn reports a change
func (b *base) modify(fn func() (bool, error)) error {
	if !b.def.IsModifiable() {
		return errors.NewAccessViolationError("hierarchy %q is not modifiable", b.def.Name())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	changed, err := fn()
	if err != nil {
		return err
	}

	if changed {
		b.version.Add(1)
	}

	return nil
}
