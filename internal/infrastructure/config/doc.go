// Package config loads and validates the engine configuration.
//
// Configuration is layered: hardcoded defaults, then a YAML file, then
// environment variable overrides for the values that differ between
// deployments (broker credentials, file paths, tokens).
//
// # Usage
//
//	cfg, err := config.Load("./configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The returned Config is fully validated; callers never need to re-check
// required fields.
package config
