package llm

import (
	"reflect"
	"strings"
)

// SchemaFor derives a JSON schema object from the Go type of v. Pointer,
// slice, map and interface fields are optional unless tagged
// `required:"true"`; every other field is required. A `description` struct
// tag is copied into the field schema.
func SchemaFor(v any) map[string]any {
	return typeToJSONSchema(reflect.TypeOf(v))
}

func typeToJSONSchema(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		props := map[string]any{}
		var requiredFields []string

		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}

			jsonName := jsonFieldName(f)
			if jsonName == "" {
				continue
			}

			fieldSchema := typeToJSONSchema(f.Type)
			if desc := f.Tag.Get("description"); desc != "" {
				fieldSchema["description"] = desc
			}
			props[jsonName] = fieldSchema

			if isRequired(f) {
				requiredFields = append(requiredFields, jsonName)
			}
		}

		objSchema := map[string]any{
			"type":       "object",
			"properties": props,
		}
		if len(requiredFields) > 0 {
			objSchema["required"] = requiredFields
		}
		return objSchema

	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int64, reflect.Int32:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Slice, reflect.Array:
		return map[string]any{
			"type":  "array",
			"items": typeToJSONSchema(t.Elem()),
		}
	case reflect.Map:
		return map[string]any{
			"type":                 "object",
			"additionalProperties": typeToJSONSchema(t.Elem()),
		}
	case reflect.Interface:
		return map[string]any{"type": "object"}
	default:
		return map[string]any{"type": "string"}
	}
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func isRequired(f reflect.StructField) bool {
	if f.Tag.Get("required") == "true" {
		return true
	}
	switch f.Type.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return false
	}
	return true
}
