package generator

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const responseSchemaURL = "schema://exercise-batch.json"

// responseSchema checks the envelope of a model response. Type-specific
// rules live in checkStructure.
const responseSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["exercises"],
  "properties": {
    "exercises": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type", "question", "solution"],
        "properties": {
          "type": {"enum": ["FILL_IN_BLANK", "MATCHING", "ORDERING", "TRUE_FALSE", "CALCULATION", "SHORT_ANSWER"]},
          "question": {"type": "string", "minLength": 1},
          "content": {"type": "object"},
          "solution": {"type": "object"}
        }
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func getCompiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(responseSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(responseSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(responseSchemaURL)
	})
	return compiledSchema, compileErr
}

// validateSchema checks a decoded JSON document against the response schema.
func validateSchema(parsed any) error {
	compiled, err := getCompiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
