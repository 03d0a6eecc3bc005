package folio

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const documentSchemaURL = "https://github.com/phroun/folio/schema/document.json"

// documentSchema describes a serialized component tree.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "slots"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "state": {"type": ["object", "null"]},
    "slots": {"type": "array", "items": {"$ref": "#/definitions/slot"}}
  },
  "definitions": {
    "slot": {
      "type": "object",
      "required": ["schema", "content"],
      "properties": {
        "schema": {
          "type": "array",
          "items": {"enum": ["text", "inline", "block"]}
        },
        "content": {
          "type": "array",
          "items": {
            "anyOf": [
              {"type": "string"},
              {"$ref": "#"}
            ]
          }
        },
        "formats": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "required": ["name", "start", "end"],
            "properties": {
              "name": {"type": "string"},
              "start": {"type": "integer", "minimum": 0},
              "end": {"type": "integer", "minimum": 0}
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func documentValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(documentSchemaURL, strings.NewReader(documentSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(documentSchemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks data against the document schema.
func ValidateDocument(data []byte) error {
	schema, err := documentValidator()
	if err != nil {
		return fmt.Errorf("document schema: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// LoadDocument validates a serialized component tree and rebuilds it with
// the definitions in reg.
func LoadDocument(reg *Registry, data []byte) (*Component, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var lit ComponentLiteral
	if err := json.Unmarshal(data, &lit); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	root, err := reg.FromLiteral(lit)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return root, nil
}

// MarshalDocument serializes a component tree.
func MarshalDocument(root *Component) ([]byte, error) {
	return json.MarshalIndent(root.Literal(), "", "  ")
}
