package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Supplemental attribute keys.
const (
	AttrLegacyCode = "legacy_code"
	AttrSeason     = "season"
	AttrBrand      = "brand"
)

// Attribute is one supplemental attribute with its candidate catalog
// field names in fixed preference order.
type Attribute struct {
	Key        string   `json:"key"`
	Candidates []string `json:"candidates"`
}

// Mapping is the full supplemental-attribute mapping. For each
// attribute the first candidate present in the schema snapshot wins; if
// none match, the attribute is silently omitted from the creation
// payload.
type Mapping struct {
	Attributes []Attribute `json:"attributes"`
}

// DefaultMapping covers the customizations seen on the target catalogs.
func DefaultMapping() Mapping {
	return Mapping{Attributes: []Attribute{
		{Key: AttrLegacyCode, Candidates: []string{"old_default_code", "x_old_code", "x_legacy_code"}},
		{Key: AttrSeason, Candidates: []string{"x_season", "x_season_code", "season_id"}},
		{Key: AttrBrand, Candidates: []string{"x_brand", "x_brand_name", "brand_id"}},
	}}
}

// Apply writes each non-empty supplemental value under the first
// candidate field name the schema exposes.
func (m Mapping) Apply(attrs map[string]any, fields map[string]struct{}, values map[string]string) {
	for _, a := range m.Attributes {
		v := values[a.Key]
		if v == "" {
			continue
		}
		for _, name := range a.Candidates {
			if _, ok := fields[name]; ok {
				attrs[name] = v
				break
			}
		}
	}
}

// buildMappingSchema returns the JSON-Schema the overrides file must
// satisfy, as a generic map.
func buildMappingSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"attributes"},
		"properties": map[string]any{
			"attributes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"key", "candidates"},
					"properties": map[string]any{
						"key": map[string]any{
							"type": "string",
							"enum": []string{AttrLegacyCode, AttrSeason, AttrBrand},
						},
						"candidates": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items":    map[string]any{"type": "string", "minLength": 1},
						},
					},
				},
			},
		},
	}
}

// LoadMapping reads a mapping overrides file, validates it against the
// schema, and returns it. An empty path returns the default mapping.
func LoadMapping(path string) (Mapping, error) {
	if path == "" {
		return DefaultMapping(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("read mapping: %w", err)
	}
	if err := validateJSONAgainstSchema(buildMappingSchema(), data); err != nil {
		return Mapping{}, fmt.Errorf("mapping %s: %w", path, err)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return Mapping{}, fmt.Errorf("decode mapping: %w", err)
	}
	return m, nil
}

// validateJSONAgainstSchema validates "data" against "schemaMap".
func validateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
