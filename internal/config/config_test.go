package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.RunAddress)
	assert.Empty(t, cfg.DatabaseURI)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse([]string{
		"-a", ":9090",
		"-d", "postgres://localhost/gatepass",
		"-c", "https://a.example,https://b.example",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.RunAddress)
	assert.Equal(t, "postgres://localhost/gatepass", cfg.DatabaseURI)
	assert.Equal(t, "https://a.example,https://b.example", cfg.CORSOrigins)
}

func TestEnvWinsOverFlags(t *testing.T) {
	t.Setenv("RUN_ADDRESS", ":7070")
	t.Setenv("DATABASE_URI", "postgres://env/gatepass")

	cfg, err := Parse([]string{"-a", ":9090", "-d", "postgres://flag/gatepass"})
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.RunAddress)
	assert.Equal(t, "postgres://env/gatepass", cfg.DatabaseURI)
}

func TestParseRejectsUnknownFlag(t *testing.T) {
	_, err := Parse([]string{"-unknown"})
	require.Error(t, err)
}
