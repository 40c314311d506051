package macrofile

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"inputmacro/internal/macro"
)

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "inputmacro recording",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["type", "timestampMs"],
    "properties": {
      "type": {
        "oneOf": [
          {"type": "string", "enum": ["MouseMove", "MouseDown", "MouseUp", "MouseWheel", "KeyDown", "KeyUp"]},
          {"type": "integer", "minimum": 0, "maximum": 5}
        ]
      },
      "timestampMs": {"type": "integer", "minimum": 0},
      "x": {"type": "integer"},
      "y": {"type": "integer"},
      "button": {
        "oneOf": [
          {"type": "string", "enum": ["None", "Left", "Right", "Middle", "X1", "X2"]},
          {"type": "integer", "minimum": 0, "maximum": 5}
        ]
      },
      "wheelDelta": {"type": "integer"},
      "keyCode": {"type": "integer", "minimum": 0, "maximum": 65535},
      "isDown": {"type": "boolean"}
    },
    "allOf": [
      {
        "if": {"properties": {"type": {"enum": ["MouseMove", "MouseDown", "MouseUp", "MouseWheel", 0, 1, 2, 3]}}, "required": ["type"]},
        "then": {"required": ["x", "y"]}
      },
      {
        "if": {"properties": {"type": {"enum": ["KeyDown", "KeyUp", 4, 5]}}, "required": ["type"]},
        "then": {"required": ["keyCode", "isDown"]}
      }
    ]
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return schema, schemaErr
}

// validateDocument checks the raw document against the recording schema.
func validateDocument(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile macro schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &macro.FormatError{Index: -1, Reason: err.Error()}
	}
	if result.Valid() {
		return nil
	}

	errs := result.Errors()
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		// "if/then" and "oneOf" wrappers repeat the detailed errors.
		switch e.Type() {
		case "condition_then", "condition_else", "number_all_of", "number_one_of":
			continue
		}
		msgs = append(msgs, e.String())
	}
	if len(msgs) == 0 {
		for _, e := range errs {
			msgs = append(msgs, e.String())
		}
	}
	return &macro.FormatError{Index: -1, Reason: strings.Join(msgs, "; ")}
}
