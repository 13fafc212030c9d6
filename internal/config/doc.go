// Package config defines packaging settings used by the studio tools and
// provides helpers to load, validate and save them in YAML format.
//
// Every field has a default, so a missing settings file is not an error.
package config
