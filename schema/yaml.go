/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSchema mirrors the on-disk schema document. Transforms and default
// functions are code-level concerns and have no YAML representation.
type yamlSchema struct {
	Models map[string]yamlModel `yaml:"models"`
}

type yamlModel struct {
	ModelName string               `yaml:"modelName"`
	Fields    map[string]yamlField `yaml:"fields"`
}

type yamlField struct {
	Type       string         `yaml:"type"`
	Required   bool           `yaml:"required"`
	Unique     bool           `yaml:"unique"`
	Default    any            `yaml:"default"`
	FieldName  string         `yaml:"fieldName"`
	References *yamlReference `yaml:"references"`
}

type yamlReference struct {
	Model string `yaml:"model"`
	Field string `yaml:"field"`
}

// ParseYAML parses a declarative schema document. Example:
//
//	models:
//	  user:
//	    fields:
//	      email:
//	        type: string
//	        required: true
//	        unique: true
//	  session:
//	    modelName: user_sessions
//	    fields:
//	      userId:
//	        type: string
//	        fieldName: user_id
//	        references: {model: user, field: id}
func ParseYAML(data []byte) (Schema, error) {
	var doc yamlSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	if len(doc.Models) == 0 {
		return nil, fmt.Errorf("schema document declares no models")
	}

	s := make(Schema, len(doc.Models))
	for modelKey, ym := range doc.Models {
		fields := make(map[string]Field, len(ym.Fields))
		for fieldKey, yf := range ym.Fields {
			if fieldKey == IDField || fieldKey == "_id" {
				return nil, fmt.Errorf("model %q declares %q: the id field is implicit and must not appear in a schema", modelKey, fieldKey)
			}
			ft := FieldType(yf.Type)
			if !ft.Valid() {
				return nil, fmt.Errorf("model %q field %q has unknown type %q", modelKey, fieldKey, yf.Type)
			}
			f := Field{
				Type:      ft,
				Required:  yf.Required,
				Unique:    yf.Unique,
				Default:   yf.Default,
				FieldName: yf.FieldName,
			}
			if yf.References != nil {
				f.References = &Reference{Model: yf.References.Model, Field: yf.References.Field}
			}
			fields[fieldKey] = f
		}
		s[modelKey] = Model{ModelName: ym.ModelName, Fields: fields}
	}
	return s, nil
}

// LoadYAML reads and parses a schema document from r.
func LoadYAML(r io.Reader) (Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema document: %w", err)
	}
	return ParseYAML(data)
}

// LoadYAMLFile reads and parses a schema document from the given path.
func LoadYAMLFile(path string) (Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}
