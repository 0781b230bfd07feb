package configsvc

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go_configserver/internal/model"
)

// renderYAML turns the flat property list into a nested YAML document:
// dot-separated keys become nested mappings, values stay double-quoted
// strings. A comment header carries the sync provenance.
func renderYAML(app, domain string, sync *model.ConfigSync, configs []model.AppConfig) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Configuration for %s in domain %s\n", app, domain)
	fmt.Fprintf(&b, "# Version: %d\n", sync.VersionNumber)
	fmt.Fprintf(&b, "# Last updated: %s\n", sync.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "# Updated by: %s\n\n", sync.UpdatedBy)

	if len(configs) == 0 {
		return b.String(), nil
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, config := range configs {
		insertPath(root, strings.Split(config.PropertyKey, "."), config.PropertyValue)
	}

	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("failed to render yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to render yaml: %w", err)
	}
	return b.String(), nil
}

// insertPath walks the mapping tree creating intermediate maps as needed.
// Configs arrive sorted by key, so sibling order in the document is stable.
// When a scalar already occupies a segment that another key needs as a parent
// (or vice versa), the first writer wins and the conflicting key is dropped.
func insertPath(node *yaml.Node, path []string, value string) {
	head := path[0]
	child := findChild(node, head)

	if len(path) == 1 {
		if child != nil {
			return
		}
		node.Content = append(node.Content,
			keyNode(head),
			&yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: value},
		)
		return
	}

	if child == nil {
		child = &yaml.Node{Kind: yaml.MappingNode}
		node.Content = append(node.Content, keyNode(head), child)
	}
	if child.Kind != yaml.MappingNode {
		return
	}
	insertPath(child, path[1:], value)
}

// findChild returns the value node mapped to key, or nil.
func findChild(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: key}
}
