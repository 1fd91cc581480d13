// Package config provides the run configuration and site definitions for
// tablecrawl. Run settings come from CLI flags; site definitions come from
// the built-in set and an optional YAML file.
package config
