package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source yields the full profile set for one tree.
type Source interface {
	Profiles(ctx context.Context) ([]Profile, error)
}

// document is the on-disk envelope. A bare top-level array is accepted too.
type document struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// FileSource reads profiles from a JSON or YAML file.
type FileSource struct {
	Path string
}

// Profiles implements [Source].
func (s FileSource) Profiles(ctx context.Context) ([]Profile, error) {
	return ReadFile(s.Path)
}

// ReadFile loads profiles from path. The format follows the extension:
// .yaml/.yml for YAML, anything else for JSON.
func ReadFile(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return DecodeJSON(data)
	}
}

// DecodeJSON parses either {"profiles": [...]} or a bare array.
func DecodeJSON(data []byte) ([]Profile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var ps []Profile
		if err := json.Unmarshal(trimmed, &ps); err != nil {
			return nil, fmt.Errorf("decode profiles: %w", err)
		}
		return ps, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return doc.Profiles, nil
}

// DecodeYAML parses either a profiles: mapping or a bare sequence.
func DecodeYAML(data []byte) ([]Profile, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var ps []Profile
		if err := root.Decode(&ps); err != nil {
			return nil, fmt.Errorf("decode profiles: %w", err)
		}
		return ps, nil
	}
	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return doc.Profiles, nil
}

// WriteFile stores profiles under a "profiles" key, as YAML for
// .yaml/.yml paths and indented JSON otherwise.
func WriteFile(path string, ps []Profile) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(document{Profiles: ps})
	default:
		data, err = json.MarshalIndent(document{Profiles: ps}, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
