// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

func generateSchemaFromType(v any) json.RawMessage {
	t := reflect.TypeOf(v)
	if t == nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	b, _ := json.Marshal(schemaForType(t))
	return b
}

func schemaForType(t reflect.Type) map[string]any {
	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": schemaForType(t.Elem())}
	case reflect.Ptr:
		return schemaForType(t.Elem())
	case reflect.Struct:
		return schemaForStruct(t)
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return map[string]any{"type": "object", "additionalProperties": schemaForType(t.Elem())}
		}
		return map[string]any{"type": "object"}
	default:
		return map[string]any{"type": "string"}
	}
}

func schemaForStruct(t reflect.Type) map[string]any {
	properties := make(map[string]any)
	required := []string{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, ok := jsonFieldName(field)
		if !ok {
			continue
		}

		prop := schemaForType(field.Type)
		if applySchemaTag(prop, field.Tag.Get("jsonschema")) {
			required = append(required, name)
		}
		properties[name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func jsonFieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return f.Name, true
}

// applySchemaTag copies jsonschema tag keys onto prop and reports whether
// the field is required.
func applySchemaTag(prop map[string]any, tag string) bool {
	if tag == "" {
		return false
	}
	required := false
	for _, part := range strings.Split(tag, ",") {
		key, val, _ := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch key {
		case "description":
			prop["description"] = val
		case "required":
			required = true
		case "enum":
			var vals []any
			for _, ev := range strings.Split(val, "|") {
				vals = append(vals, strings.TrimSpace(ev))
			}
			prop["enum"] = vals
		case "minimum", "maximum":
			if n, err := strconv.ParseFloat(val, 64); err == nil {
				prop[key] = n
			}
		}
	}
	return required
}
