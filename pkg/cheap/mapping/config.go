package mapping

import (
	"io"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v2"

	"github.com/diwise/cheap/pkg/cheap/aspects"
	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/properties"
)

type PropertyConfig struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Default     any    `yaml:"default"`
	NotNull     bool   `yaml:"notNull"`
	ReadOnly    bool   `yaml:"readOnly"`
	WriteOnly   bool   `yaml:"writeOnly"`
	Fixed       bool   `yaml:"fixed"`
	MultiValued bool   `yaml:"multivalued"`
}

func (pc PropertyConfig) Validate() error {
	return validation.ValidateStruct(&pc,
		validation.Field(&pc.Name, validation.Required),
		validation.Field(&pc.Type, validation.Required, validation.By(func(value any) error {
			_, err := properties.ParsePropertyType(value.(string))
			return err
		})),
	)
}

type AspectConfig struct {
	Name       string           `yaml:"name"`
	GlobalID   string           `yaml:"globalId"`
	ReadOnly   bool             `yaml:"readOnly"`
	Extensible bool             `yaml:"extensible"`
	Shrinkable bool             `yaml:"shrinkable"`
	Properties []PropertyConfig `yaml:"properties"`
}

func (ac AspectConfig) Validate() error {
	return validation.ValidateStruct(&ac,
		validation.Field(&ac.Name, validation.Required),
		validation.Field(&ac.GlobalID, validation.By(func(value any) error {
			if s := value.(string); s != "" {
				_, err := uuid.Parse(s)
				return err
			}
			return nil
		})),
		validation.Field(&ac.Properties),
	)
}

type ColumnConfig struct {
	Property string `yaml:"property"`
	Column   string `yaml:"column"`
}

func (cc ColumnConfig) Validate() error {
	return validation.ValidateStruct(&cc,
		validation.Field(&cc.Property, validation.Required),
		validation.Field(&cc.Column, validation.Required, validation.Match(identifier)),
	)
}

type TableConfig struct {
	Aspect     string         `yaml:"aspect"`
	Table      string         `yaml:"table"`
	CatalogID  bool           `yaml:"catalogId"`
	EntityID   bool           `yaml:"entityId"`
	Columns    []ColumnConfig `yaml:"columns"`
	PrimaryKey []string       `yaml:"primaryKey"`
}

func (tc TableConfig) Validate() error {
	return validation.ValidateStruct(&tc,
		validation.Field(&tc.Aspect, validation.Required),
		validation.Field(&tc.Table, validation.Required, validation.Match(identifier)),
		validation.Field(&tc.Columns),
	)
}

type Config struct {
	Aspects  []AspectConfig `yaml:"aspects"`
	Mappings []TableConfig  `yaml:"mappings"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Aspects),
		validation.Field(&c.Mappings),
	)
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to parse mapping configuration: %s", err.Error())
	}

	return cfg, nil
}

// Model is the immutable result of building a mapping configuration
type Model struct {
	aspectDefs []*aspects.AspectDef
	mappings   []*AspectTableMapping
}

func (m *Model) AspectDefs() []*aspects.AspectDef {
	return append([]*aspects.AspectDef{}, m.aspectDefs...)
}

func (m *Model) AspectDef(name string) (*aspects.AspectDef, bool) {
	for _, ad := range m.aspectDefs {
		if ad.Name() == name {
			return ad, true
		}
	}
	return nil, false
}

func (m *Model) Mappings() []*AspectTableMapping {
	return append([]*AspectTableMapping{}, m.mappings...)
}

// Mapping returns the mapping of the named table
func (m *Model) Mapping(table string) (*AspectTableMapping, bool) {
	for _, tm := range m.mappings {
		if tm.Table() == table {
			return tm, true
		}
	}
	return nil, false
}

// Build validates the configuration and turns it into aspect definitions and table mappings
func (c *Config) Build() (*Model, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.NewConfigurationError("invalid mapping configuration: %s", err.Error())
	}

	model := &Model{}

	for _, ac := range c.Aspects {
		if _, exists := model.AspectDef(ac.Name); exists {
			return nil, errors.NewConfigurationError("aspect %q is defined more than once", ac.Name)
		}

		def, err := ac.build()
		if err != nil {
			return nil, err
		}
		model.aspectDefs = append(model.aspectDefs, def)
	}

	for _, tc := range c.Mappings {
		def, ok := model.AspectDef(tc.Aspect)
		if !ok {
			return nil, errors.NewConfigurationError("table %q maps unknown aspect %q", tc.Table, tc.Aspect)
		}

		if _, exists := model.Mapping(tc.Table); exists {
			return nil, errors.NewConfigurationError("table %q is mapped more than once", tc.Table)
		}

		decorators := []MappingDecoratorFunc{}
		if tc.CatalogID {
			decorators = append(decorators, WithCatalogID())
		}
		if tc.EntityID {
			decorators = append(decorators, WithEntityID())
		}
		for _, cc := range tc.Columns {
			decorators = append(decorators, Column(cc.Property, cc.Column))
		}
		if tc.PrimaryKey != nil {
			decorators = append(decorators, PrimaryKey(tc.PrimaryKey...))
		}

		tm, err := New(def, tc.Table, decorators...)
		if err != nil {
			return nil, err
		}
		model.mappings = append(model.mappings, tm)
	}

	return model, nil
}

func (ac AspectConfig) build() (*aspects.AspectDef, error) {
	decorators := []aspects.AspectDefDecoratorFunc{}

	if ac.GlobalID != "" {
		decorators = append(decorators, aspects.GlobalID(uuid.MustParse(ac.GlobalID)))
	}
	if ac.ReadOnly {
		decorators = append(decorators, aspects.ReadOnly())
	}
	if ac.Extensible {
		decorators = append(decorators, aspects.Extensible())
	}
	if ac.Shrinkable {
		decorators = append(decorators, aspects.Shrinkable())
	}

	for _, pc := range ac.Properties {
		pd, err := pc.build()
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, aspects.Property(pd))
	}

	return aspects.NewAspectDef(ac.Name, decorators...)
}

func (pc PropertyConfig) build() (*properties.PropertyDef, error) {
	typ, err := properties.ParsePropertyType(pc.Type)
	if err != nil {
		return nil, errors.NewConfigurationError("property %q: %s", pc.Name, err.Error())
	}

	decorators := []properties.PropertyDefDecoratorFunc{}
	if pc.NotNull {
		decorators = append(decorators, properties.NotNull())
	}
	if pc.ReadOnly {
		decorators = append(decorators, properties.ReadOnly())
	}
	if pc.WriteOnly {
		decorators = append(decorators, properties.WriteOnly())
	}
	if pc.Fixed {
		decorators = append(decorators, properties.Fixed())
	}
	if pc.MultiValued {
		decorators = append(decorators, properties.MultiValued())
	}
	if pc.Default != nil {
		decorators = append(decorators, properties.Default(pc.Default))
	}

	return properties.NewPropertyDef(pc.Name, typ, decorators...)
}
