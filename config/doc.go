// Package config holds the settings that shape query interpretation and
// ranking: languages, scoring coefficients, vagueness and confidence
// thresholds, result caps, tie-break order and the AI timeout.
//
// A Config is built with NewConfig and functional options, or read from YAML
// with Load. Validate reports every problem at once; Repair returns a fixed
// copy and the list of changes and is only applied when the caller asks.
package config
