package tools

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects T into an object schema usable as a tool input schema.
func GenerateSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	var required []string
	if len(schema.Required) > 0 {
		required = append(required, schema.Required...)
	}
	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
		Required:   required,
	}
}
