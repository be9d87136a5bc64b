package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateToolDefinitions checks that every tool's parameter schema is
// itself a structurally valid JSON Schema document, rejecting malformed
// tool definitions before they reach model selection.
func ValidateToolDefinitions(tools []ToolDefinition) error {
	for _, t := range tools {
		if len(t.Function.Parameters) == 0 {
			continue
		}
		if err := validateSchemaDocument(t.Function.Name, t.Function.Parameters); err != nil {
			return err
		}
	}
	return nil
}

func validateSchemaDocument(name string, schema ToolParameterSchema) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("tool %q: encode parameters: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("tool %q: parse parameters schema: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	resourceID := "tool:" + name
	if err := c.AddResource(resourceID, doc); err != nil {
		return fmt.Errorf("tool %q: invalid parameters schema: %w", name, err)
	}
	if _, err := c.Compile(resourceID); err != nil {
		return fmt.Errorf("tool %q: invalid parameters schema: %w", name, err)
	}
	return nil
}
