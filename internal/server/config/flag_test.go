package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags_OverridesDefaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin",
		"-a", ":9999",
		"-d", "postgres://example/dropnote",
		"-r", "redis:6380",
		"-u", "https://drop.example.com",
		"-s", "flag-secret",
		"-t", "30",
		"-x", "45",
		"-m", "24",
		"-k", "salty",
		"-g", "gif-key",
		"-e", "https://gif.example/v2",
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "postgres://example/dropnote", cfg.DatabaseDSN)
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.Equal(t, "https://drop.example.com", cfg.AppBaseURL)
	assert.Equal(t, "flag-secret", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.TokenValidityDuration)
	assert.Equal(t, 45*time.Minute, cfg.ExtendLimit)
	assert.Equal(t, 24*time.Hour, cfg.MaxMessageHorizon)
	assert.Equal(t, "salty", cfg.KDFSalt)
	assert.Equal(t, "gif-key", cfg.GifAPIKey)
	assert.Equal(t, "https://gif.example/v2", cfg.GifBaseEndpoint)
}

func Test_parseFlags_KeepsDefaultsWithoutFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":3005", cfg.EndpointAddr)
	assert.Equal(t, 100*time.Minute, cfg.TokenValidityDuration)
}
