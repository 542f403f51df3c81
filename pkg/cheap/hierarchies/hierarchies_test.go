package hierarchies

import (
	"testing"

	"github.com/diwise/cheap/pkg/cheap/aspects"
	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/properties"
	"github.com/diwise/cheap/pkg/cheap/types"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

type identity uuid.UUID

func (i identity) GlobalID() uuid.UUID { return uuid.UUID(i) }

func newID() identity { return identity(uuid.New()) }

var catalog = newID()

func TestListAllowsDuplicatesAndKeepsOrder(t *testing.T) {
	is := is.New(t)

	l, err := NewEntityList(catalog, MustNewHierarchyDef("queue", List))
	is.NoErr(err)

	a, b := newID(), newID()
	is.NoErr(l.Add(a))
	is.NoErr(l.Add(b))
	is.NoErr(l.Add(a))
	is.NoErr(l.Insert(0, b))

	is.Equal(l.Len(), 4)
	order := []uuid.UUID{}
	l.ForEach(func(i int, e types.Identity) { order = append(order, e.GlobalID()) })
	is.Equal(order, []uuid.UUID{b.GlobalID(), a.GlobalID(), b.GlobalID(), a.GlobalID()})

	first, ok := l.Get(0)
	is.True(ok)
	is.Equal(first.GlobalID(), b.GlobalID())

	removed, err := l.Remove(a)
	is.NoErr(err)
	is.True(removed)
	is.Equal(l.Len(), 3)
	is.Equal(l.Version(), int64(5)) // every mutation bumps the version
}

func TestListRejectsOutOfRangeIndex(t *testing.T) {
	is := is.New(t)

	l, _ := NewEntityList(catalog, MustNewHierarchyDef("queue", List))

	is.True(errors.Is(l.Insert(3, newID()), errors.ErrNotFound))
	is.True(errors.Is(l.RemoveAt(0), errors.ErrNotFound))
}

func TestSetHasUniqueMembership(t *testing.T) {
	is := is.New(t)

	s, err := NewEntitySet(catalog, MustNewHierarchyDef("members", Set))
	is.NoErr(err)

	id := uuid.New()
	added, _ := s.Add(identity(id))
	is.True(added)
	added, _ = s.Add(identity(id))
	is.True(!added) // same global id is the same member

	other := newID()
	s.Add(other)

	is.Equal(s.Len(), 2)
	is.True(s.Contains(identity(id)))

	order := []uuid.UUID{}
	s.ForEach(func(e types.Identity) { order = append(order, e.GlobalID()) })
	is.Equal(order, []uuid.UUID{id, other.GlobalID()})

	removed, _ := s.Remove(identity(id))
	is.True(removed)
	is.True(!s.Contains(identity(id)))
}

func TestDirectoryKeepsInsertionOrder(t *testing.T) {
	is := is.New(t)

	d, err := NewEntityDirectory(catalog, MustNewHierarchyDef("people", Directory))
	is.NoErr(err)

	is.NoErr(d.Put("zed", newID()))
	is.NoErr(d.Put("amy", newID()))

	replacement := newID()
	is.NoErr(d.Put("zed", replacement))

	is.Equal(d.Names(), []string{"zed", "amy"}) // rebinding keeps the position

	e, ok := d.Get("zed")
	is.True(ok)
	is.Equal(e.GlobalID(), replacement.GlobalID())

	removed, _ := d.Remove("amy")
	is.True(removed)
	is.Equal(d.Len(), 1)
}

func TestImmutableHierarchyRejectsMutation(t *testing.T) {
	is := is.New(t)

	d, _ := NewEntityDirectory(catalog, MustNewHierarchyDef("frozen", Directory, Immutable()))

	err := d.Put("x", newID())
	is.True(errors.Is(err, errors.ErrAccessViolation))
}

func TestDefTypeMustMatchVariant(t *testing.T) {
	is := is.New(t)

	_, err := NewEntitySet(catalog, MustNewHierarchyDef("wrong", List))
	is.True(errors.Is(err, errors.ErrSchemaMismatch))
}

func TestTreeLeavesAreDerived(t *testing.T) {
	is := is.New(t)

	tree, err := NewEntityTree(catalog, MustNewHierarchyDef("org", Tree), nil)
	is.NoErr(err)

	is.True(tree.Root().IsLeaf()) // an empty root has no children

	boss, dev := newID(), newID()
	is.NoErr(tree.Put([]string{"engineering"}, boss))
	is.NoErr(tree.Put([]string{"engineering", "backend"}, dev))

	is.True(!tree.Root().IsLeaf())

	n, ok := tree.Get("engineering", "backend")
	is.True(ok)
	is.True(n.IsLeaf())
	is.Equal(n.Value().GlobalID(), dev.GlobalID())

	eng, _ := tree.Get("engineering")
	is.Equal(eng.Value().GlobalID(), boss.GlobalID()) // internal nodes may hold values
	is.Equal(eng.ChildNames(), []string{"backend"})

	removed, err := tree.Remove("engineering", "backend")
	is.NoErr(err)
	is.True(removed)
	is.True(eng.IsLeaf())

	paths := 0
	tree.Walk(func(path []string, n *Node) { paths++ })
	is.Equal(paths, 2)
}

func TestLeafOnlyNodesRejectChildren(t *testing.T) {
	is := is.New(t)

	tree, _ := NewEntityTree(catalog, MustNewHierarchyDef("org", Tree), nil)
	is.NoErr(tree.Add(nil, "terminal", NewLeaf(newID())))

	err := tree.Add([]string{"terminal"}, "child", NewNode(newID()))
	is.True(errors.Is(err, errors.ErrAccessViolation))

	_, err = tree.Remove()
	is.True(errors.Is(err, errors.ErrAccessViolation)) // the root stays
}

func TestAspectMapOverwritesOnSameID(t *testing.T) {
	is := is.New(t)

	def := aspects.MustNewAspectDef("customer",
		aspects.Property(properties.MustNewPropertyDef("name", properties.String)),
	)

	m, err := NewAspectMap(catalog, def)
	is.NoErr(err)
	is.Equal(m.Def().Name(), "customer")
	is.Equal(m.Def().Type(), AspectMapType)

	e := newID()
	first, _ := aspects.New(e, def, aspects.Value("name", "first"))
	second, _ := aspects.New(e, def, aspects.Value("name", "second"))

	is.NoErr(m.Put(e, first))
	is.NoErr(m.Put(e, second))

	is.Equal(m.Len(), 1)

	a, ok := m.Get(e)
	is.True(ok)
	is.Equal(a, second)
	is.Equal(a.Catalog().GlobalID(), catalog.GlobalID()) // the map assigns its catalog

	stored, ok := m.Entity(e.GlobalID())
	is.True(ok)
	is.Equal(stored.GlobalID(), e.GlobalID())
}

func TestAspectMapRejectsForeignAspects(t *testing.T) {
	is := is.New(t)

	def := aspects.MustNewAspectDef("customer")
	other := aspects.MustNewAspectDef("supplier")

	m, _ := NewAspectMap(catalog, def)

	e := newID()
	a, _ := aspects.New(e, other)
	is.True(errors.Is(m.Put(e, a), errors.ErrSchemaMismatch))

	b, _ := aspects.New(newID(), def)
	is.True(errors.Is(m.Put(e, b), errors.ErrSchemaMismatch)) // aspect owned by another entity
}

func TestAspectMapEntriesFollowInsertionOrder(t *testing.T) {
	is := is.New(t)

	def := aspects.MustNewAspectDef("customer")
	m, _ := NewAspectMap(catalog, def)

	ids := []uuid.UUID{}
	for range 5 {
		e := newID()
		a, _ := aspects.New(e, def)
		is.NoErr(m.Put(e, a))
		ids = append(ids, e.GlobalID())
	}

	seen := []uuid.UUID{}
	m.ForEach(func(e types.Identity, a *aspects.Aspect) { seen = append(seen, e.GlobalID()) })
	is.Equal(seen, ids)

	is.NoErr(m.Clear())
	is.Equal(m.Len(), 0)
}

func TestNilEntitiesAreRejected(t *testing.T) {
	is := is.New(t)

	var missing *identity

	s, _ := NewEntitySet(catalog, MustNewHierarchyDef("members", Set))
	_, err := s.Add(nil)
	is.True(errors.Is(err, errors.ErrConfiguration))
	_, err = s.Add(missing)
	is.True(errors.Is(err, errors.ErrConfiguration)) // a nil pointer is no entity either
	is.True(!s.Contains(missing))
	is.Equal(s.Len(), 0)

	def := aspects.MustNewAspectDef("customer")
	m, _ := NewAspectMap(catalog, def)
	_, ok := m.Get(nil)
	is.True(!ok)
	is.True(!m.Contains(missing))

	removed, err := m.Remove(nil)
	is.NoErr(err)
	is.True(!removed)

	tree, _ := NewEntityTree(catalog, MustNewHierarchyDef("org", Tree), nil)
	is.True(errors.Is(tree.Add(nil, "nobody", nil), errors.ErrConfiguration))
	is.Equal(tree.Root().Len(), 0)
}

func TestParseType(t *testing.T) {
	is := is.New(t)

	typ, err := ParseType("tree")
	is.NoErr(err)
	is.Equal(typ, Tree)

	_, err = ParseType("graph")
	is.True(errors.Is(err, errors.ErrConfiguration))
}
