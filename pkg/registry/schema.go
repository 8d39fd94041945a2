package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// definitionSchema constrains the raw JSON shape of a workflow definition
// before it is decoded into models. Semantic checks (unique ids, edge
// endpoints, cycles) happen later at graph build time.
const definitionSchema = `{
	"type": "object",
	"required": ["name", "nodes", "edges"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"status": {"type": "string", "enum": ["draft", "published", "unpublished"]},
		"variables": {"type": "object"},
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "type"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"type": {"type": "string", "enum": ["start", "end", "task", "decision", "custom"]},
					"label": {"type": "string"},
					"config": {"type": "object"},
					"position_x": {"type": "number"},
					"position_y": {"type": "number"}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "source", "target"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"source": {"type": "string", "minLength": 1},
					"target": {"type": "string", "minLength": 1},
					"label": {"type": "string"}
				}
			}
		}
	}
}`

// ValidateDefinition checks a raw workflow definition document against the
// definition schema.
func ValidateDefinition(definition []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(definitionSchema)
	documentLoader := gojsonschema.NewBytesLoader(definition)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate workflow definition: %w", err)
	}

	if !result.Valid() {
		var messages []string
		for _, resultError := range result.Errors() {
			messages = append(messages, resultError.String())
		}

		return fmt.Errorf("invalid workflow definition: %s", strings.Join(messages, "; "))
	}

	return nil
}
