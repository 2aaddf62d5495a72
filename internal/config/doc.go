// Package config loads settings from built-in defaults, an optional YAML
// file and TAREAS_-prefixed environment variables, then validates them.
package config
