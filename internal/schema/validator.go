// Package schema validates vendor transcript documents against embedded
// JSON Schema documents before any transformation runs. Validation is
// all-or-nothing: an invalid document is rejected, never partially converted.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Names of the embedded vendor schemas.
const (
	AWS          = "aws_schema.json"
	GenesysCloud = "genesys_cloud_schema.json"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var compiled = mustCompile()

// ValidationError reports a document that failed its vendor schema.
type ValidationError struct {
	Schema string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document does not match schema %s: %v", e.Schema, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func mustCompile() map[string]*jsonschema.Schema {
	out := make(map[string]*jsonschema.Schema, 2)
	for _, name := range []string{AWS, GenesysCloud} {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			panic(fmt.Sprintf("schema: missing embedded schema %s: %v", name, err))
		}
		sch, err := jsonschema.CompileString(name, string(raw))
		if err != nil {
			panic(fmt.Sprintf("schema: compile %s: %v", name, err))
		}
		out[name] = sch
	}
	return out
}

// Validate checks a raw JSON document against the named vendor schema.
// Malformed JSON and schema violations both surface as *ValidationError.
func Validate(name string, document []byte) error {
	sch, ok := compiled[name]
	if !ok {
		return &ValidationError{Schema: name, Err: fmt.Errorf("unknown schema")}
	}

	dec := json.NewDecoder(bytes.NewReader(document))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return &ValidationError{Schema: name, Err: fmt.Errorf("not valid JSON: %w", err)}
	}

	if err := sch.Validate(instance); err != nil {
		return &ValidationError{Schema: name, Err: err}
	}
	return nil
}
