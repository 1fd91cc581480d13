package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

// BuiltinSites returns the sites that ship with tablecrawl.
func BuiltinSites() (*File, error) {
	f, err := parseFile(builtinYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in sites: %w", err)
	}
	return f, nil
}

func parseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Sites == nil {
		f.Sites = make(map[string]SiteConfig)
	}
	return &f, nil
}
