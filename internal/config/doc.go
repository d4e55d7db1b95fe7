// Package config loads the server configuration from an optional YAML
// file and the environment. The Morgen API key is read from the
// environment only and is required at startup.
package config
