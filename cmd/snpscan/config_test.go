package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		key, value string
		want       any
	}{
		{"fetch.timeout", "45s", "45s"},
		{"fetch.timeout", "1m30s", "1m30s"},
		{"fetch.retries", "3", 3},
		{"fetch.rate", "2.5", 2.5},
		{"scan.workers", "8", 8},
		{"report.pdf_path", "/data/reports/out.pdf", "/data/reports/out.pdf"},
	}
	for _, tt := range tests {
		got, err := parseConfigValue(tt.key, tt.value)
		require.NoError(t, err, "%s=%s", tt.key, tt.value)
		assert.Equal(t, tt.want, got, "%s=%s", tt.key, tt.value)
	}
}

func TestParseConfigValue_Rejects(t *testing.T) {
	bad := []struct{ key, value string }{
		{"fetch.timeout", "soon"},
		{"fetch.timeout", "-5s"},
		{"fetch.retries", "two"},
		{"fetch.retries", "-1"},
		{"fetch.rate", "0"},
		{"scan.workers", "1.5"},
		{"telemetry.enabled", "true"},
	}
	for _, tt := range bad {
		_, err := parseConfigValue(tt.key, tt.value)
		assert.Error(t, err, "%s=%s", tt.key, tt.value)
	}
}
