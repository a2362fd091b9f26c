package http

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
)

// Types only. Business rules such as positive quantities are enforced by the
// order command itself so the error names the same fields either way.
const schemaPlaceOrder = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "customer_id": { "type": "string" },
    "notes": { "type": "string" },
    "lines": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "product_id": { "type": "string" },
          "name": { "type": "string" },
          "unit_price": { "type": ["number", "string", "null"] },
          "quantity": { "type": "integer" }
        }
      }
    }
  }
}`

const schemaStatusUpdate = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": { "type": "string" }
  }
}`

var (
	placeOrderLoader   = gojsonschema.NewStringLoader(schemaPlaceOrder)
	statusUpdateLoader = gojsonschema.NewStringLoader(schemaStatusUpdate)
)

// validateJSONSchema checks body against schema and reports the offending
// fields as a validation error.
func validateJSONSchema(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &entity.ValidationError{Msg: "invalid request body"}
	}
	if result.Valid() {
		return nil
	}

	var (
		fields []string
		msgs   []string
	)
	for _, e := range result.Errors() {
		fields = append(fields, fieldPath(e.Field()))
		msgs = append(msgs, e.String())
	}
	return &entity.ValidationError{Fields: fields, Msg: fmt.Sprintf("request does not conform to schema: %s", strings.Join(msgs, "; "))}
}

// fieldPath turns "lines.0.quantity" into "lines[0].quantity".
func fieldPath(field string) string {
	parts := strings.Split(field, ".")
	var sb strings.Builder
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			sb.WriteString("[" + p + "]")
			continue
		}
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(p)
	}
	return sb.String()
}
