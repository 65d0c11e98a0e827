// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package glossary

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type file struct {
	Categories []Category `yaml:"categories"`
}

// Load reads a YAML glossary file. The result is not validated.
func Load(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load glossary: %w", err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load glossary %s: %w", path, err)
	}
	return g, nil
}

// Parse decodes a YAML glossary document.
func Parse(data []byte) (*Glossary, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse glossary: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, ErrEmptyGlossary
	}
	return New(f.Categories), nil
}

// MarshalYAML encodes the glossary in the format Parse reads.
func (g *Glossary) MarshalYAML() (any, error) {
	return file{Categories: g.Categories()}, nil
}
