// Package openapi describes the configuration document read by the loader
// (options at the top level plus a list of profiles) as an OpenAPI 3
// document.
package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	jsconfig "github.com/goliatone/go-jsconfig"
)

const refPrefix = "#/components/schemas/"

// Generate builds the document. Components are Patch, Profile and Document.
func Generate(opts ...GeneratorOption) (map[string]any, error) {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	patch, err := schemaForPatch()
	if err != nil {
		return nil, err
	}
	components := map[string]any{
		"Patch":    patch,
		"Profile":  profileSchema(),
		"Document": documentSchema(),
	}

	infoSection := map[string]any{
		"title":   cfg.info.Title,
		"version": cfg.info.Version,
	}
	if cfg.info.Description != "" {
		infoSection["description"] = cfg.info.Description
	}

	document := map[string]any{
		"openapi": cfg.openAPIVersion,
		"info":    infoSection,
		"paths": map[string]any{
			cfg.path: map[string]any{
				strings.ToLower(cfg.method): map[string]any{
					"operationId": cfg.operationID,
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							cfg.contentType: map[string]any{
								"schema": ref("Document"),
							},
						},
					},
					"responses": map[string]any{
						"204": map[string]any{"description": "Applied"},
						"422": map[string]any{"description": "Invalid option value"},
					},
				},
			},
		},
		"components": map[string]any{"schemas": components},
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": refPrefix + name}
}

func schemaForPatch() (map[string]any, error) {
	t := reflect.TypeOf(jsconfig.Patch{})
	enums := jsconfig.PatchEnums()
	properties := make(map[string]any, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" {
			continue
		}
		schema, err := schemaForType(field.Type)
		if err != nil {
			return nil, fmt.Errorf("openapi: field %s: %w", field.Name, err)
		}
		if values, ok := enums[name]; ok {
			schema["enum"] = values
		}
		switch name {
		case "parse_primitive_floating_point_types", "parse_primitive_integer_types":
			schema["description"] = "kinds joined by '|': " + strings.Join(jsconfig.ParseAsNames(), ", ")
		case "max_depth":
			schema["minimum"] = 0
		case "exclude_types":
			schema["description"] = "type names resolved by the configured type finder"
		case "exclude_property_references":
			schema["description"] = "Type.Property entries"
		}
		properties[name] = schema
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}, nil
}

func schemaForType(t reflect.Type) (map[string]any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Slice:
		items, err := schemaForType(t.Elem())
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}

func profileSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"name", "priority"},
		"properties": map[string]any{
			"name":     map[string]any{"type": "string", "minLength": 1},
			"label":    map[string]any{"type": "string"},
			"priority": map[string]any{"type": "integer", "description": "higher wins; priorities must be unique"},
			"metadata": map[string]any{"type": "object", "additionalProperties": true},
			"patch":    ref("Patch"),
		},
	}
}

func documentSchema() map[string]any {
	return map[string]any{
		"allOf": []any{
			ref("Patch"),
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"profiles": map[string]any{
						"type":  "array",
						"items": ref("Profile"),
					},
				},
			},
		},
	}
}

func validateDocument(document map[string]any) error {
	if version, _ := document["openapi"].(string); version == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	infoSection, _ := document["info"].(map[string]any)
	if title, _ := infoSection["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := infoSection["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	components, _ := document["components"].(map[string]any)
	schemas, _ := components["schemas"].(map[string]any)

	var missing []string
	collectRefs(document, func(target string) {
		name := strings.TrimPrefix(target, refPrefix)
		if _, ok := schemas[name]; !ok {
			missing = append(missing, target)
		}
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("openapi: unresolved references %s", strings.Join(missing, ", "))
	}
	return nil
}

func collectRefs(node any, visit func(string)) {
	switch typed := node.(type) {
	case map[string]any:
		for key, value := range typed {
			if key == "$ref" {
				if target, ok := value.(string); ok {
					visit(target)
				}
				continue
			}
			collectRefs(value, visit)
		}
	case []any:
		for _, item := range typed {
			collectRefs(item, visit)
		}
	}
}
