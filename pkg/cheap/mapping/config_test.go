package mapping

import (
	"bytes"
	"strings"
	"testing"

	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/properties"
	"github.com/matryer/is"
)

func TestLoadConfig(t *testing.T) {
	is, config := setupConfigTest(t)

	is.Equal(len(config.Aspects), 2)  // should have two aspects
	is.Equal(len(config.Mappings), 2) // should have two table mappings
}

func TestLoadAspects(t *testing.T) {
	is, config := setupConfigTest(t)
	customer := config.Aspects[0]

	is.Equal(customer.Name, "customer")
	is.Equal(len(customer.Properties), 3)
	is.True(customer.Properties[0].NotNull)
	is.Equal(customer.Properties[2].Type, "decimal")
}

func TestBuildModel(t *testing.T) {
	is, config := setupConfigTest(t)

	model, err := config.Build()
	is.NoErr(err)

	def, ok := model.AspectDef("customer")
	is.True(ok)
	is.Equal(def.Len(), 3)

	credit, _ := def.PropertyDef("credit")
	is.Equal(credit.Type(), properties.Decimal)
	_, hasDefault := credit.DefaultValue()
	is.True(hasDefault)

	customers, ok := model.Mapping("customers")
	is.True(ok)
	is.Equal(customers.ColumnNames(), []string{"entity_id", "customer_name", "email_address"})

	tags, ok := model.Mapping("tags")
	is.True(ok)
	is.Equal(tags.Shape().Cleanup, CleanupDeleteByCatalog)

	label, _ := tags.AspectDef().PropertyDef("labels")
	is.True(label.IsMultivalued())
}

func TestBuildRejectsUnknownAspect(t *testing.T) {
	is := is.New(t)

	config, err := LoadConfiguration(strings.NewReader(`
mappings:
  - aspect: ghost
    table: ghosts
`))
	is.NoErr(err)

	_, err = config.Build()
	is.True(errors.Is(err, errors.ErrConfiguration))
}

func TestBuildRejectsInvalidPropertyType(t *testing.T) {
	is := is.New(t)

	config, _ := LoadConfiguration(strings.NewReader(`
aspects:
  - name: thing
    properties:
      - name: weight
        type: kilograms
`))

	_, err := config.Build()
	is.True(errors.Is(err, errors.ErrConfiguration))
}

func TestBuildRejectsCatalogOnlyPrimaryKey(t *testing.T) {
	is := is.New(t)

	config, _ := LoadConfiguration(strings.NewReader(`
aspects:
  - name: thing
    properties:
      - name: weight
        type: float
mappings:
  - aspect: thing
    table: things
    catalogId: true
    primaryKey: [catalog_id]
`))

	_, err := config.Build()
	is.True(errors.Is(err, errors.ErrConfiguration))
}

func TestMalformedYamlIsConfigurationError(t *testing.T) {
	is := is.New(t)

	_, err := LoadConfiguration(strings.NewReader("aspects:\n\t- name: broken\n"))
	is.True(errors.Is(err, errors.ErrConfiguration))
}

func setupConfigTest(t *testing.T) (*is.I, *Config) {
	is := is.New(t)
	cfgData := bytes.NewBuffer([]byte(configFile))
	config, err := LoadConfiguration(cfgData)
	is.NoErr(err)

	return is, config
}

var configFile string = `
aspects:
  - name: customer
    properties:
      - name: name
        type: string
        notNull: true
      - name: email
        type: string
      - name: credit
        type: decimal
        default: "0.00"
  - name: tagging
    extensible: true
    properties:
      - name: labels
        type: string
        multivalued: true
mappings:
  - aspect: customer
    table: customers
    entityId: true
    columns:
      - property: name
        column: customer_name
      - property: email
        column: email_address
  - aspect: tagging
    table: tags
    catalogId: true
`
