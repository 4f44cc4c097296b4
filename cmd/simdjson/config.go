package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// yamlLoader reads a YAML configuration file and resolves flags from it the
// way kong.JSON does: keys are flag names, with '-' or '_' separators.
func yamlLoader(r io.Reader) (kong.Resolver, error) {
	var values map[string]any
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode yaml config: %w", err)
	}
	if values == nil {
		values = map[string]any{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("convert yaml config: %w", err)
	}
	return kong.JSON(bytes.NewReader(raw))
}
