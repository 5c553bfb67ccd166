// Package schema validates loosely typed payloads (decoded JSON or YAML maps)
// before they are turned into typed values.
//
// A Schema maps field names to Types. Fields wrapped in Optional may be
// absent; every other field is required:
//
//	s := schema.Schema{
//	    "slideId":    schema.NonEmptyString(),
//	    "properties": schema.Optional(schema.Map()),
//	}
//
//	if err := schema.Validate(s, raw); err != nil {
//	    for _, fe := range schema.FieldErrors(err) {
//	        // ...
//	    }
//	}
//
// The package has no dependencies beyond the standard library so the domain
// package can use it without pulling adapters in.
package schema
