package funcmap

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadDescriptors reads a JSON or YAML document mapping each source to its
// function descriptors, as produced by a parser:
//
//	{"app.js": [{"name": "<top-level>", "startLine": 0, ...}]}
func LoadDescriptors(data []byte) (map[string][]FunctionDesc, error) {
	descs := make(map[string][]FunctionDesc)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &descs); err != nil {
			return nil, fmt.Errorf("failed to parse descriptors: %w", err)
		}
		return descs, nil
	}
	if err := yaml.Unmarshal(data, &descs); err != nil {
		return nil, fmt.Errorf("failed to parse descriptors: %w", err)
	}
	for source, list := range descs {
		for _, d := range list {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("source %s: %w", source, err)
			}
		}
	}
	return descs, nil
}
