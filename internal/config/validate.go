// CUE schema validation code
package config

import (
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// Schema returns the CUE source configurations are checked against.
func Schema() string { return schemaSource }

// ValidateSchema checks a YAML document against the #Config definition.
// Unknown keys are rejected because the definition is closed.
func ValidateSchema(name string, yamlBytes []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return invalid("compile schema: %v", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Config"))

	file, err := cueyaml.Extract(name, yamlBytes)
	if err != nil {
		return invalid("%s: %v", name, err)
	}
	configVal := ctx.BuildFile(file)
	if err := configVal.Err(); err != nil {
		return invalid("%s: %v", name, err)
	}

	final := def.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return invalid("%s: schema validation failed: %v", name, err)
	}
	return nil
}
