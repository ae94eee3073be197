package config

import (
	"os"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"gopkg.in/yaml.v3"
)

// Config is the overlay for the CLI's global flags (spec §6). Every field
// is optional; a zero value means "not set by the file".
type Config struct {
	Machine      string `yaml:"machine"`
	Docker       string `yaml:"docker"`
	Token        string `yaml:"token"`
	Cluster      string `yaml:"cluster"`
	Driver       string `yaml:"driver"`
	Cache        string `yaml:"cache"`
	SSH          string `yaml:"ssh"`
	Storage      string `yaml:"storage"`
	Verbose      string `yaml:"verbose"`
	CacheMachine string `yaml:"cache_machine"`
}

// Load reads and parses the YAML overlay at path. A missing file is not an
// error: the CLI falls back to flag defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, clustererr.WrapConfig(err, "read config file %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, clustererr.WrapConfig(err, "parse config file %s", path)
	}
	return &cfg, nil
}

// Merge returns flagValue unless it is empty, in which case fileValue (the
// config-file default) is used. This is the one-line rule behind every
// global flag's precedence: explicit CLI flags always win over the file.
func Merge(flagValue, fileValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return fileValue
}
