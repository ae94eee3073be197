package yamlmodel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/shipwright/pkg/clustererr"
)

// siMultipliers are the SI (powers-of-1000) suffixes, case-insensitive.
var siMultipliers = map[string]int64{
	"k": 1_000,
	"m": 1_000_000,
	"g": 1_000_000_000,
	"t": 1_000_000_000_000,
}

// iecMultipliers are the IEC (powers-of-1024) suffixes, with an optional "b"
// tail ("Ki" and "KiB" are equivalent), case-insensitive.
var iecMultipliers = map[string]int64{
	"ki": 1024,
	"mi": 1024 * 1024,
	"gi": 1024 * 1024 * 1024,
	"ti": 1024 * 1024 * 1024 * 1024,
}

// parseSize parses a human-readable size ("2GiB", "40G", "512") into a raw
// byte count. Bare numbers are returned unchanged (the caller applies the
// field's default unit: MiB for memory, MB for disk, per spec §4.1).
func parseSize(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case string:
		return parseSizeString(t)
	default:
		return 0, clustererr.ConfigError("invalid size value %v", v)
	}
}

func parseSizeString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	lower = strings.TrimSuffix(lower, "b")

	for suffix, mult := range iecMultipliers {
		if strings.HasSuffix(lower, suffix) {
			numPart := strings.TrimSuffix(lower, suffix)
			n, err := strconv.ParseFloat(strings.TrimSpace(numPart), 64)
			if err != nil {
				return 0, clustererr.ConfigError("invalid size %q", s)
			}
			return int64(n * float64(mult)), nil
		}
	}
	for suffix, mult := range siMultipliers {
		if strings.HasSuffix(lower, suffix) {
			numPart := strings.TrimSuffix(lower, suffix)
			n, err := strconv.ParseFloat(strings.TrimSpace(numPart), 64)
			if err != nil {
				return 0, clustererr.ConfigError("invalid size %q", s)
			}
			return int64(n * float64(mult)), nil
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, clustererr.ConfigError("invalid size %q", s)
	}
	return int64(n), nil
}

// parseMemoryMiB parses a memory field, defaulting bare numbers to MiB, and
// returns the value translated into MiB (the driver-option unit).
func parseMemoryMiB(v interface{}) (int64, error) {
	if s, ok := v.(string); ok && !hasSizeSuffix(s) {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, clustererr.ConfigError("invalid memory %q", s)
		}
		return int64(n), nil
	}
	if isPlainNumber(v) {
		bytes, _ := parseSize(v)
		return bytes, nil
	}
	bytes, err := parseSize(v)
	if err != nil {
		return 0, err
	}
	return bytes / (1024 * 1024), nil
}

// parseDiskMB parses a disk-size field, defaulting bare numbers to MB, and
// returns the value translated into MB (the driver-option unit).
func parseDiskMB(v interface{}) (int64, error) {
	if isPlainNumber(v) {
		n, _ := parseSize(v)
		return n, nil
	}
	if s, ok := v.(string); ok && !hasSizeSuffix(s) {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, clustererr.ConfigError("invalid disk size %q", s)
		}
		return int64(n), nil
	}
	bytes, err := parseSize(v)
	if err != nil {
		return 0, err
	}
	return bytes / 1_000_000, nil
}

func isPlainNumber(v interface{}) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	default:
		return false
	}
}

func hasSizeSuffix(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	lower = strings.TrimSuffix(lower, "b")
	for suffix := range iecMultipliers {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	for suffix := range siMultipliers {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// parseBool accepts yes/no/on/off/true/false/1/0, case-insensitive.
func parseBool(v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "on", "true", "1":
			return true, nil
		case "no", "off", "false", "0":
			return false, nil
		default:
			return false, clustererr.ConfigError("invalid boolean %q", t)
		}
	default:
		return false, clustererr.ConfigError("invalid boolean value %v", v)
	}
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, clustererr.ConfigError("invalid integer %q", t)
		}
		return n, nil
	default:
		return 0, clustererr.ConfigError("invalid integer value %v", v)
	}
}

func toStringMap(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = fmt.Sprintf("%v", val)
	}
	return out
}
