// Package config implements the configuration store for the temperature logger.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// TEMPLOG_* environment overrides. The merged result is validated before use.
// Buffer capacity, bootstrap size and the client reconnect delay are kept as
// independent settings.
package config
