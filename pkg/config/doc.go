// Package config loads the "-config PATH" global-flag overlay (spec §6): a
// small YAML file pinning the machine/docker binary overrides, ssh
// template, driver, cache policy, storage path, and verbosity that would
// otherwise have to be repeated on every CLI invocation. Values in the file
// are defaults; any flag explicitly passed on the command line overrides
// them (see cmd/shipwright's flag-merge order).
package config
