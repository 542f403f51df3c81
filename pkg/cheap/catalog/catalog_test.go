package catalog

import (
	"testing"

	"github.com/diwise/cheap/pkg/cheap/aspects"
	"github.com/diwise/cheap/pkg/cheap/entities"
	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/hierarchies"
	"github.com/diwise/cheap/pkg/cheap/properties"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

func customerDef() *aspects.AspectDef {
	return aspects.MustNewAspectDef("customer",
		aspects.Property(properties.MustNewPropertyDef("name", properties.String)),
		aspects.Property(properties.MustNewPropertyDef("email", properties.String)),
	)
}

func TestSpeciesUpstreamRules(t *testing.T) {
	is := is.New(t)

	source, err := New(Source)
	is.NoErr(err)

	_, err = New(Mirror)
	is.True(errors.Is(err, errors.ErrConfiguration)) // a mirror needs an upstream

	_, err = New(Sink, Upstream(source))
	is.True(errors.Is(err, errors.ErrConfiguration)) // a sink owns its data

	mirror, err := New(Mirror, Upstream(source))
	is.NoErr(err)
	is.Equal(mirror.Upstream().GlobalID(), source.GlobalID())

	_, err = New(Species(42))
	is.True(errors.Is(err, errors.ErrConfiguration))
}

func TestNilPointerUpstreamIsNoUpstream(t *testing.T) {
	is := is.New(t)

	var missing *Catalog

	_, err := New(Mirror, Upstream(missing))
	is.True(errors.Is(err, errors.ErrConfiguration)) // a mirror needs a real upstream

	source, err := New(Source, Upstream(missing))
	is.NoErr(err)
	is.True(source.Upstream() == nil)
}

func TestParseSpecies(t *testing.T) {
	is := is.New(t)

	s, err := ParseSpecies("fork")
	is.NoErr(err)
	is.Equal(s, Fork)
	is.Equal(s.String(), "FORK")

	_, err = ParseSpecies("spoon")
	is.True(errors.Is(err, errors.ErrConfiguration))
}

func TestCatalogKeepsGivenGlobalID(t *testing.T) {
	is := is.New(t)

	id := uuid.New()
	c, err := New(Source, GlobalID(id))
	is.NoErr(err)
	is.Equal(c.GlobalID(), id)
}

func TestAddAspectDefDetectsConflicts(t *testing.T) {
	is := is.New(t)

	c, _ := New(Source)
	is.NoErr(c.AddAspectDef(customerDef()))
	is.NoErr(c.AddAspectDef(customerDef())) // an equivalent def is accepted

	different := aspects.MustNewAspectDef("customer",
		aspects.Property(properties.MustNewPropertyDef("name", properties.Integer)),
	)
	is.True(errors.Is(c.AddAspectDef(different), errors.ErrSchemaMismatch))

	_, ok := c.AspectDef("customer")
	is.True(ok)
}

func TestCreateAspectMapIsIdempotent(t *testing.T) {
	is := is.New(t)

	c, _ := New(Source)
	def := customerDef()

	first, err := c.CreateAspectMap(def)
	is.NoErr(err)
	second, err := c.CreateAspectMap(def)
	is.NoErr(err)
	is.Equal(first, second)

	_, ok := c.AspectDef("customer")
	is.True(ok) // creating the map registers its aspect def
}

func TestAspectMapsCannotBeRemovedOrReplaced(t *testing.T) {
	is := is.New(t)

	c, _ := New(Source)
	def := customerDef()
	_, err := c.CreateAspectMap(def)
	is.NoErr(err)

	_, err = c.RemoveHierarchy("customer")
	is.True(errors.Is(err, errors.ErrAccessViolation))

	replacement, _ := hierarchies.NewAspectMap(c, def)
	is.True(errors.Is(c.AddHierarchy(replacement), errors.ErrConfiguration))
}

func TestHierarchyMustBeOwnedByCatalog(t *testing.T) {
	is := is.New(t)

	c, _ := New(Source)
	other, _ := New(Source)

	l, _ := hierarchies.NewEntityList(other, hierarchies.MustNewHierarchyDef("queue", hierarchies.List))
	is.True(errors.Is(c.AddHierarchy(l), errors.ErrConfiguration))
}

func TestStrictCatalogOnlyAcceptsDeclaredHierarchies(t *testing.T) {
	is := is.New(t)

	def, err := NewCatalogDef(
		HierarchyDef(hierarchies.MustNewHierarchyDef("queue", hierarchies.List)),
		AspectDef(customerDef()),
	)
	is.NoErr(err)

	c, err := New(Source, Definition(def), Strict())
	is.NoErr(err)

	_, ok := c.AspectDef("customer")
	is.True(ok) // the definition seeds the aspectage

	queue, _ := hierarchies.NewEntityList(c, hierarchies.MustNewHierarchyDef("queue", hierarchies.List))
	is.NoErr(c.AddHierarchy(queue))

	stack, _ := hierarchies.NewEntityList(c, hierarchies.MustNewHierarchyDef("stack", hierarchies.List))
	is.True(errors.Is(c.AddHierarchy(stack), errors.ErrConfiguration))

	_, err = c.CreateAspectMap(customerDef())
	is.NoErr(err) // declared through the aspect def
}

func TestRemoveHierarchy(t *testing.T) {
	is := is.New(t)

	c, _ := New(Source)
	l, _ := hierarchies.NewEntityList(c, hierarchies.MustNewHierarchyDef("queue", hierarchies.List))
	is.NoErr(c.AddHierarchy(l))

	removed, err := c.RemoveHierarchy("queue")
	is.NoErr(err)
	is.True(removed)

	_, ok := c.Hierarchy("queue")
	is.True(!ok)

	count := 0
	c.ForEachHierarchy(func(hierarchies.Hierarchy) { count++ })
	is.Equal(count, 0)
}

func TestLocalEntityResolvesAspectsThroughCatalog(t *testing.T) {
	is := is.New(t)

	c, _ := New(Source)
	def := customerDef()
	am, _ := c.CreateAspectMap(def)

	e := entities.New()
	a, err := aspects.New(e, def, aspects.Value("name", "Ada"))
	is.NoErr(err)
	is.NoErr(am.Put(e, a))

	local := entities.NewLocal(e, c)

	found, ok := local.Aspect(def)
	is.True(ok)
	is.Equal(found, a)

	name, err := found.Get("name")
	is.NoErr(err)
	is.Equal(name, "Ada")
}
