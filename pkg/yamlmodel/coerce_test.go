package yamlmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMemoryMiB(t *testing.T) {
	tests := []struct {
		name     string
		in       interface{}
		expected int64
	}{
		{"bare int is already MiB", 2048, 2048},
		{"bare numeric string is already MiB", "512", 512},
		{"IEC GiB converts to MiB", "2GiB", 2048},
		{"IEC suffix without B tail", "2Gi", 2048},
		{"IEC MiB passes through", "512MiB", 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMemoryMiB(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDiskMB(t *testing.T) {
	tests := []struct {
		name     string
		in       interface{}
		expected int64
	}{
		{"bare int is already MB", 40000, 40000},
		{"bare numeric string is already MB", "20000", 20000},
		{"SI G suffix converts to MB", "40G", 40000},
		{"SI T suffix converts to MB", "1T", 1_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDiskMB(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseSizeStringInvalid(t *testing.T) {
	_, err := parseSizeString("not-a-size")
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		name     string
		in       interface{}
		expected bool
	}{
		{"bool true", true, true},
		{"string yes", "yes", true},
		{"string ON", "ON", true},
		{"string 1", "1", true},
		{"string no", "no", false},
		{"string off", "off", false},
		{"int zero", 0, false},
		{"int nonzero", 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBool(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseBoolInvalid(t *testing.T) {
	_, err := parseBool("maybe")
	assert.Error(t, err)
}

func TestToStringMap(t *testing.T) {
	in := map[string]interface{}{"a": "1", "b": 2}
	out := toStringMap(in)
	assert.Equal(t, "1", out["a"])
	assert.Equal(t, "2", out["b"])
}

func TestToStringMapNonMap(t *testing.T) {
	assert.Nil(t, toStringMap("not a map"))
}
