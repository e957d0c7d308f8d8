// Package config loads and validates handsense configuration.
//
// Configuration is read from a YAML file, overlaid on hardcoded defaults,
// and finally overridden by HANDSENSE_* environment variables. A failed
// validation aborts startup; there is no partial configuration state.
package config
