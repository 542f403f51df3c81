package properties

import (
	"testing"
	"time"

	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/google/uuid"
	"github.com/matryer/is"
	"github.com/shopspring/decimal"
)

func TestNewPropertyDefDefaults(t *testing.T) {
	is := is.New(t)

	pd, err := NewPropertyDef("name", String)
	is.NoErr(err)

	is.Equal(pd.Name(), "name")
	is.Equal(pd.Type(), String)
	is.True(pd.IsReadable())
	is.True(pd.IsWritable())
	is.True(pd.IsNullable())
	is.True(pd.IsRemovable())
	is.True(!pd.IsMultivalued())
}

func TestNewPropertyDefRequiresName(t *testing.T) {
	is := is.New(t)

	_, err := NewPropertyDef("", String)
	is.True(errors.Is(err, errors.ErrConfiguration))
}

func TestInvalidDefaultIsRejected(t *testing.T) {
	is := is.New(t)

	_, err := NewPropertyDef("age", Integer, Default("not a number"))
	is.True(errors.Is(err, errors.ErrConfiguration))

	pd, err := NewPropertyDef("age", Integer, Default(42))
	is.NoErr(err)

	dv, ok := pd.DefaultValue()
	is.True(ok)
	is.Equal(dv, int64(42)) // default should be coerced to the canonical type
}

func TestEqualityIsByName(t *testing.T) {
	is := is.New(t)

	a := MustNewPropertyDef("value", Integer)
	b := MustNewPropertyDef("value", String, NotNull())
	c := MustNewPropertyDef("other", Integer)

	is.True(a.Equal(b))
	is.True(!a.Equal(c))
	is.True(a.Conflicts(b))
	is.True(!a.Conflicts(MustNewPropertyDef("value", Integer)))
	is.True(!a.Conflicts(c)) // different names never conflict
}

func TestValidateNullability(t *testing.T) {
	is := is.New(t)

	pd := MustNewPropertyDef("email", String, NotNull())

	_, err := pd.Validate(nil)
	is.True(errors.Is(err, errors.ErrSchemaMismatch))

	v, err := MustNewPropertyDef("email", String).Validate(nil)
	is.NoErr(err)
	is.Equal(v, nil)
}

func TestValidateMultivalued(t *testing.T) {
	is := is.New(t)

	pd := MustNewPropertyDef("scores", Integer, MultiValued())

	v, err := pd.Validate([]int{1, 2, 3})
	is.NoErr(err)
	is.Equal(v, []any{int64(1), int64(2), int64(3)})

	_, err = pd.Validate(7)
	is.True(errors.Is(err, errors.ErrSchemaMismatch)) // scalar for multivalued property

	_, err = pd.Validate([]any{1, "x"})
	is.True(errors.Is(err, errors.ErrSchemaMismatch))
}

func TestCoerceFromDriverRepresentations(t *testing.T) {
	is := is.New(t)

	id := uuid.New()

	v, err := UUID.Coerce(id.String())
	is.NoErr(err)
	is.Equal(v, id) // string encoded uuids are parsed back

	v, err = UUID.Coerce([]byte(id.String()))
	is.NoErr(err)
	is.Equal(v, id)

	v, err = Integer.Coerce([]byte("17"))
	is.NoErr(err)
	is.Equal(v, int64(17))

	v, err = Integer.Coerce(float64(3))
	is.NoErr(err)
	is.Equal(v, int64(3))

	_, err = Integer.Coerce(3.5)
	is.True(err != nil)

	v, err = Boolean.Coerce(int64(1))
	is.NoErr(err)
	is.Equal(v, true)

	v, err = Decimal.Coerce("12.50")
	is.NoErr(err)
	is.True(v.(decimal.Decimal).Equal(decimal.RequireFromString("12.5")))

	v, err = DateTime.Coerce("2024-03-01T10:00:00Z")
	is.NoErr(err)
	is.True(v.(time.Time).Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	_, err = URI.Coerce("not/absolute")
	is.True(err != nil)

	v, err = Blob.Coerce("aGVsbG8=")
	is.NoErr(err)
	is.Equal(v, []byte("hello"))
}

func TestParsePropertyType(t *testing.T) {
	is := is.New(t)

	pt, err := ParsePropertyType("datetime")
	is.NoErr(err)
	is.Equal(pt, DateTime)
	is.Equal(pt.String(), "DateTime")

	_, err = ParsePropertyType("complex")
	is.True(errors.Is(err, errors.ErrConfiguration))
}

func TestPropertyAccess(t *testing.T) {
	is := is.New(t)

	ro := MustNewPropertyDef("id", UUID, ReadOnly())
	p, err := New(ro, uuid.New())
	is.NoErr(err)

	err = p.Write(uuid.New())
	is.True(errors.Is(err, errors.ErrAccessViolation))

	wo := MustNewPropertyDef("secret", String, WriteOnly())
	p = NewUnchecked(wo, "hush")

	_, err = p.Read()
	is.True(errors.Is(err, errors.ErrAccessViolation))
	is.Equal(p.Value(), "hush") // raw access bypasses the flags
}
