package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ENVIRONMENT", "STORE_BACKEND", "REALTIME_BACKEND", "KAFKA_BROKERS", "NOTIFIER_WORKERS", "HTTP_ADDR", "SEED_FILE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, "redis", cfg.RealtimeBackend)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 8, cfg.NotifierWorkers)
	assert.False(t, cfg.Production())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("REALTIME_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("NOTIFIER_WORKERS", "3")
	t.Setenv("SEED_FILE", "dev/seed.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "kafka", cfg.RealtimeBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.NotifierWorkers)
	assert.Equal(t, "dev/seed.json", cfg.SeedFile)
	assert.True(t, cfg.Production())
}

func TestValidate(t *testing.T) {
	base := Config{StoreBackend: "postgres", RealtimeBackend: "redis", KafkaBrokers: []string{"k:9092"}, NotifierWorkers: 1}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"store backend", func(c *Config) { c.StoreBackend = "mysql" }},
		{"realtime backend", func(c *Config) { c.RealtimeBackend = "nats" }},
		{"kafka without brokers", func(c *Config) { c.RealtimeBackend = "kafka"; c.KafkaBrokers = nil }},
		{"workers", func(c *Config) { c.NotifierWorkers = 0 }},
		{"seed without memory backend", func(c *Config) { c.SeedFile = "dev/seed.json" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
