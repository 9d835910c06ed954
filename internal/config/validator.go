// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// loader.go calls validateStruct immediately after unmarshalling the
// merged Koanf tree.  Any tag mismatch aborts startup, ensuring the
// binary never runs with missing configuration.  Custom rules (e.g., a
// redis-addr shape check) register here as the surface grows.

package config

import "github.com/go-playground/validator/v10"

var v = validator.New()

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}

// Validate runs the shared validator against any tagged struct.  Handler
// input structs reuse the same instance so custom rules apply uniformly.
func Validate(s any) error {
	return v.Struct(s)
}
