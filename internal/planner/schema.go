// internal/planner/schema.go
package planner

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

var actionValueType = reflect.TypeOf(schemas.ActionValue{})

// PlanSchema returns the JSON Schema of a test plan: an array of actions.
func PlanSchema() *jsonschema.Schema {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.Anonymous = true
	r.AllowAdditionalProperties = false
	r.Mapper = func(t reflect.Type) *jsonschema.Schema {
		if t == actionValueType {
			return &jsonschema.Schema{
				OneOf: []*jsonschema.Schema{{Type: "string"}, {Type: "number"}},
			}
		}
		return nil
	}

	s := r.Reflect(&schemas.Plan{})
	s.Title = "aiqa test plan"
	s.Description = "Ordered browser actions generated from a natural-language requirement."
	return s
}

// PlanSchemaJSON renders PlanSchema as indented JSON.
func PlanSchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(PlanSchema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal plan schema: %w", err)
	}
	return data, nil
}
