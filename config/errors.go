package config

import "errors"

// Sentinel errors for configuration handling.
var (
	// ErrInvalidConfig indicates a malformed configuration file or value.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrWrongType indicates a key holds a value of a different type than
	// the accessor expects.
	ErrWrongType = errors.New("config: wrong value type")

	// ErrMissingEnv indicates a ${VAR} reference to an unset environment
	// variable.
	ErrMissingEnv = errors.New("config: missing required environment variables")
)
