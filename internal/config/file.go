package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectConfigPath returns ./.minijira/config.yaml.
func ProjectConfigPath() string {
	return filepath.Join(DirName, "config.yaml")
}

// SetFileValue writes key=value into the config file at path, creating the
// file and its directory when missing. Dotted keys (auth.secret) become
// nested mappings. Booleans, integers and durations keep their YAML type;
// comments in the existing file are not preserved.
func SetFileValue(path, key, value string) error {
	doc := make(map[string]interface{})
	// #nosec G304 - path is the project config file
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if doc == nil {
			doc = make(map[string]interface{})
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	parts := strings.Split(key, ".")
	node := doc
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = typedValue(value)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, out, 0o600)
}

// typedValue keeps booleans and integers unquoted in the written file.
func typedValue(s string) interface{} {
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
