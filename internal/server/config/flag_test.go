package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		start       *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-g", ":7000", "-m", "postgres", "-d", "db", "-s", "secret",
				"-t", "60", "-l", "debug", "-b", "bucket", "-e", "http://endpoint",
			},
			start: &Config{},
			expected: &Config{
				HTTPAddr:       "127.0.0.1:9090",
				GRPCAddr:       ":7000",
				StorageDriver:  "postgres",
				DatabaseDSN:    "db",
				SecretKey:      "secret",
				TokenValidity:  time.Hour,
				LogLevel:       "debug",
				S3Bucket:       "bucket",
				S3BaseEndpoint: "http://endpoint",
			},
		},
		{
			name:     "unset -t keeps sub-minute validity",
			args:     []string{"cmd", "-c", "cfg.json", "-a", ":1"},
			start:    &Config{TokenValidity: 30 * time.Second},
			expected: &Config{HTTPAddr: ":1", TokenValidity: 30 * time.Second},
		},
		{
			name:        "bad int",
			args:        []string{"cmd", "-t", "abc"},
			start:       &Config{},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := tt.start

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
