package loader

import (
	"fmt"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/schema"
)

// The shape schemas only check field types. Required fields and cross-slide
// rules are left to domain.Validate so a typo reports a precise field.
var (
	optionShape = schema.Schema{
		"optionLabel":        schema.Optional(schema.String()),
		"optionValue":        schema.Optional(schema.String()),
		"primary":            schema.Optional(schema.Bool()),
		"afterSubmitActions": schema.Optional(schema.Slice(schema.Map())),
	}

	slideShape = schema.Schema{
		"id":                 schema.Optional(schema.String()),
		"kind":               schema.Optional(schema.String()),
		"title":              schema.Optional(schema.String()),
		"description":        schema.Optional(schema.String()),
		"options":            schema.Optional(schema.Slice(object("option", optionShape))),
		"afterSubmitActions": schema.Optional(schema.Slice(schema.Map())),
	}

	documentShape = schema.Schema{
		"title":           schema.Optional(schema.String()),
		"analyticsKey":    schema.Optional(schema.String()),
		"segmentWriteKey": schema.Optional(schema.String()),
		"slides":          schema.Optional(schema.Slice(object("slide", slideShape))),
	}
)

// object validates a nested JSON object against s.
func object(name string, s schema.Schema) schema.Type {
	return schema.Custom(name, func(v any) error {
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("expected %s object, got %T", name, v)
		}
		return schema.Validate(s, m)
	})
}

// checkShape rejects documents whose fields have the wrong JSON types.
func checkShape(raw map[string]any) error {
	if err := schema.Validate(documentShape, raw); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidPresentation, err)
	}
	return nil
}
