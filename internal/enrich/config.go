package enrich

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config tunes the cascade per field. Without a config every source may
// fill every checklist field; with one, a field is only offered to the
// sources named in its chain, in cascade order.
type Config struct {
	Fields map[string]FieldConfig `yaml:"fields"`
}

// FieldConfig restricts which sources may fill one checklist field.
type FieldConfig struct {
	Sources []string `yaml:"sources"`
}

// LoadConfig reads cascade tuning from a YAML file.
//
// The file has a top-level "cascade" key:
//
//	cascade:
//	  fields:
//	    high_school_name:
//	      sources: [wikipedia, websearch]
//	    hometown_city:
//	      sources: [wikipedia, websearch, ai]
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read config %s", path)
	}

	var wrapper struct {
		Cascade Config `yaml:"cascade"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "enrich: parse config")
	}
	return &wrapper.Cascade, nil
}

// Allows reports whether source may fill fieldKey. A field with no
// configured chain is open to every source.
func (c *Config) Allows(source, fieldKey string) bool {
	if c == nil {
		return true
	}
	fc, ok := c.Fields[fieldKey]
	if !ok || len(fc.Sources) == 0 {
		return true
	}
	for _, s := range fc.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// filterFields keeps the missing fields that source is allowed to fill.
func (c *Config) filterFields(source string, missing []string) []string {
	if c == nil || len(c.Fields) == 0 {
		return missing
	}
	var out []string
	for _, key := range missing {
		if c.Allows(source, key) {
			out = append(out, key)
		}
	}
	return out
}
