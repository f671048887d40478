// Package config loads the service configuration from defaults, an
// optional YAML file, and JORGE_-prefixed environment variables, in that
// precedence order. The typed coordinator tuning is derived from the YAML
// shape via Config.Coordinator.
package config
