package record

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tinywasm/record/errs"
)

// SchemaFile is the YAML document read by LoadSchemas:
//
//	entities:
//	  - name: Project
//	    belongs_to: [owner]
//	    has_many: [issues]
//	    targets: {owner: User}
//	    columns:
//	      - {name: title, type: text, not_null: true}
type SchemaFile struct {
	Entities []Schema `yaml:"entities"`
}

// LoadSchemas decodes entity schemas from YAML.
func LoadSchemas(r io.Reader) ([]Schema, error) {
	var f SchemaFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errs.Wrap(errs.ComponentSchema, errs.KindConfiguration, err, "decode schema file")
	}
	return f.Entities, nil
}
