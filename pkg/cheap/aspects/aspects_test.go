package aspects

import (
	"testing"

	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/properties"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

type identity uuid.UUID

func (i identity) GlobalID() uuid.UUID { return uuid.UUID(i) }

func TestNewAspectDefRejectsDuplicateProperties(t *testing.T) {
	is := is.New(t)

	_, err := NewAspectDef("customer",
		Property(properties.MustNewPropertyDef("name", properties.String)),
		Property(properties.MustNewPropertyDef("name", properties.Text)),
	)

	is.True(errors.Is(err, errors.ErrConfiguration))
}

func TestAspectDefKeepsDeclarationOrder(t *testing.T) {
	is := is.New(t)

	def := newCustomerDef(t)

	names := []string{}
	for _, pd := range def.PropertyDefs() {
		names = append(names, pd.Name())
	}

	is.Equal(names, []string{"name", "email", "age"})
	is.True(def.GlobalID() != uuid.Nil) // a global id should be generated

	pd, ok := def.PropertyDef("email")
	is.True(ok)
	is.Equal(pd.Type(), properties.String)
}

func TestWriteAndGet(t *testing.T) {
	is := is.New(t)

	a, err := New(identity(uuid.New()), newCustomerDef(t), Value("name", "Ada"))
	is.NoErr(err)

	is.NoErr(a.Write("age", 36))

	v, err := a.Get("age")
	is.NoErr(err)
	is.Equal(v, int64(36))

	v, err = a.Get("name")
	is.NoErr(err)
	is.Equal(v, "Ada")

	err = a.Write("age", "thirty six")
	is.True(errors.Is(err, errors.ErrSchemaMismatch)) // values must match the declared type

	_, err = a.Get("shoe_size")
	is.True(errors.Is(err, errors.ErrNotFound))
}

func TestDefaultsAreReturnedForUnwrittenProperties(t *testing.T) {
	is := is.New(t)

	def := MustNewAspectDef("settings",
		Property(properties.MustNewPropertyDef("theme", properties.String, properties.Default("dark"))),
	)

	a, err := New(identity(uuid.New()), def)
	is.NoErr(err)

	v, err := a.Get("theme")
	is.NoErr(err)
	is.Equal(v, "dark")
}

func TestAccessFlagsAreEnforced(t *testing.T) {
	is := is.New(t)

	ro := MustNewAspectDef("readonly", ReadOnly(),
		Property(properties.MustNewPropertyDef("name", properties.String)),
	)

	a, err := New(identity(uuid.New()), ro)
	is.NoErr(err)

	err = a.Write("name", "x")
	is.True(errors.Is(err, errors.ErrAccessViolation))

	a.UnsafeWrite("name", "bulk loaded")
	is.Equal(a.UnsafeRead("name"), "bulk loaded") // unsafe paths bypass the flags

	err = a.Remove("name")
	is.True(errors.Is(err, errors.ErrAccessViolation)) // def is not shrinkable
}

func TestRemoveHonoursPropertyFlags(t *testing.T) {
	is := is.New(t)

	def := MustNewAspectDef("tags", Shrinkable(),
		Property(properties.MustNewPropertyDef("label", properties.String)),
		Property(properties.MustNewPropertyDef("key", properties.String, properties.Fixed())),
	)

	a, err := New(identity(uuid.New()), def, Value("label", "l"), Value("key", "k"))
	is.NoErr(err)

	is.NoErr(a.Remove("label"))
	_, ok := a.Property("label")
	is.True(!ok)

	err = a.Remove("key")
	is.True(errors.Is(err, errors.ErrAccessViolation))
}

func TestPutDetectsConflictingDefinitions(t *testing.T) {
	is := is.New(t)

	a, err := New(identity(uuid.New()), newCustomerDef(t))
	is.NoErr(err)

	conflicting := properties.MustNewPropertyDef("age", properties.String)
	err = a.Put(properties.NewUnchecked(conflicting, "old"))
	is.True(errors.Is(err, errors.ErrSchemaMismatch))

	compatible := properties.MustNewPropertyDef("age", properties.Integer)
	is.NoErr(a.Put(properties.NewUnchecked(compatible, 40)))

	v, err := a.Get("age")
	is.NoErr(err)
	is.Equal(v, int64(40))
}

func TestPutNewPropertyRequiresExtensibleDef(t *testing.T) {
	is := is.New(t)

	nickname := properties.MustNewPropertyDef("nickname", properties.String)

	closed, _ := New(identity(uuid.New()), newCustomerDef(t))
	err := closed.Put(properties.NewUnchecked(nickname, "A"))
	is.True(errors.Is(err, errors.ErrAccessViolation))

	open, _ := New(identity(uuid.New()), MustNewAspectDef("open", Extensible()))
	is.NoErr(open.Put(properties.NewUnchecked(nickname, "A")))

	seen := []string{}
	open.ForEachProperty(func(pd *properties.PropertyDef, value any) {
		seen = append(seen, pd.Name())
	})
	is.Equal(seen, []string{"nickname"})
}

func newCustomerDef(t *testing.T) *AspectDef {
	def, err := NewAspectDef("customer",
		Property(properties.MustNewPropertyDef("name", properties.String, properties.NotNull())),
		Property(properties.MustNewPropertyDef("email", properties.String)),
		Property(properties.MustNewPropertyDef("age", properties.Integer)),
	)
	if err != nil {
		t.Fatalf("failed to create aspect def: %s", err.Error())
	}
	return def
}
