//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package schema generates JSON schemas from Go types for tool declarations.
package schema

import (
	"reflect"
	"strings"

	"github.com/agentloop/agentloop-go/tool"
)

// Generate generates a basic JSON schema from a reflect.Type.
func Generate(t reflect.Type) *tool.Schema {
	if t == nil {
		return nil
	}
	switch t.Kind() {
	case reflect.Struct:
		return structSchema(t)
	case reflect.Ptr:
		return Generate(t.Elem())
	default:
		return fieldSchema(t)
	}
}

func structSchema(t reflect.Type) *tool.Schema {
	properties := map[string]*tool.Schema{}
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := parseJSONTag(field)
		if skip {
			continue
		}
		fs := fieldSchema(field.Type)
		if desc := field.Tag.Get("description"); desc != "" {
			fs.Description = desc
		}
		properties[name] = fs

		if field.Type.Kind() != reflect.Ptr && !omitEmpty {
			required = append(required, name)
		}
	}

	s := &tool.Schema{Type: "object", Properties: properties}
	if len(required) > 0 {
		s.Required = required
	}
	return s
}

func fieldSchema(t reflect.Type) *tool.Schema {
	switch t.Kind() {
	case reflect.String:
		return &tool.Schema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &tool.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &tool.Schema{Type: "number"}
	case reflect.Bool:
		return &tool.Schema{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &tool.Schema{Type: "array", Items: fieldSchema(t.Elem())}
	case reflect.Map:
		return &tool.Schema{Type: "object", AdditionalProperties: fieldSchema(t.Elem())}
	case reflect.Ptr:
		return fieldSchema(t.Elem())
	case reflect.Struct:
		return structSchema(t)
	default:
		return &tool.Schema{Type: "string"}
	}
}

func parseJSONTag(field reflect.StructField) (name string, omitEmpty, skip bool) {
	name = field.Name
	jsonTag := field.Tag.Get("json")
	if jsonTag == "-" {
		return "", false, true
	}
	if jsonTag == "" {
		return name, false, false
	}
	if commaIdx := strings.Index(jsonTag, ","); commaIdx != -1 {
		if jsonTag[:commaIdx] != "" {
			name = jsonTag[:commaIdx]
		}
		omitEmpty = strings.Contains(jsonTag[commaIdx:], "omitempty")
	} else {
		name = jsonTag
	}
	return name, omitEmpty, false
}
