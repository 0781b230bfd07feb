// Package fileparse flattens onboarding configuration files into a flat map of
// dotted keys to string values. Dispatch is by file extension; the YAML path is
// a deliberately small indentation-based flattener, not a full YAML parser.
package fileparse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat reports a file extension with no registered parser.
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
	// ErrInvalidFormat reports content that could not be parsed.
	ErrInvalidFormat = errors.New("invalid configuration file")
)

// Parse flattens the file content into dotted-key -> value entries, choosing
// the parser from the file extension (case-insensitive).
func Parse(content []byte, fileName string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".properties":
		return parseProperties(content), nil
	case ".yaml", ".yml":
		return parseYAML(content)
	case ".json":
		return parseJSON(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileName)
	}
}

// parseProperties handles the line-oriented Java properties format: blank
// lines and '#'/'!' comments are skipped, the rest splits on the first '='.
func parseProperties(content []byte) map[string]string {
	result := make(map[string]string)
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			continue
		}
		result[key] = strings.TrimSpace(line[idx+1:])
	}
	return result
}

// parseYAML flattens nested keys by tracking leading-space indentation in
// 2-space steps. Lists, multi-line scalars and anchors are out of scope and
// list items are rejected outright rather than silently dropped.
func parseYAML(content []byte) (map[string]string, error) {
	result := make(map[string]string)
	var stack []string

	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == "-" || strings.HasPrefix(trimmed, "- ") {
			return nil, fmt.Errorf("%w: YAML lists are not supported", ErrInvalidFormat)
		}

		idx := strings.Index(trimmed, ":")
		if idx < 0 {
			return nil, fmt.Errorf("%w: expected 'key: value', got %q", ErrInvalidFormat, trimmed)
		}
		key := strings.TrimSpace(trimmed[:idx])
		value := strings.TrimSpace(trimmed[idx+1:])

		depth := (len(line) - len(strings.TrimLeft(line, " "))) / 2
		if depth < len(stack) {
			stack = stack[:depth]
		}
		stack = append(stack, key)

		if value != "" {
			result[strings.Join(stack, ".")] = unquote(value)
			// A scalar line is a leaf, not a parent.
			stack = stack[:len(stack)-1]
		}
	}
	return result, nil
}

// parseJSON flattens a JSON object tree by joining nested keys with '.'.
// Arrays and nulls have no flat string form and are dropped; numbers keep
// their literal spelling.
func parseJSON(content []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var tree map[string]interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	result := make(map[string]string)
	flattenJSON("", tree, result)
	return result, nil
}

func flattenJSON(prefix string, node map[string]interface{}, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]interface{}:
			flattenJSON(full, v, out)
		case []interface{}, nil:
			// skipped
		case string:
			out[full] = v
		case bool:
			out[full] = fmt.Sprintf("%t", v)
		case json.Number:
			out[full] = v.String()
		default:
			out[full] = fmt.Sprintf("%v", v)
		}
	}
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
