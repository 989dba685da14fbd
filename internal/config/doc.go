// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// After parsing, TAPSYNC_* environment variables override individual fields.
package config
