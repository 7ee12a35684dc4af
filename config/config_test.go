package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Session: SessionConfig{
			WsIdleTimeout:  5 * time.Second,
			ReapInterval:   time.Minute,
			ReapBatchLimit: 100,
			ShardCount:     10,
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsZeroIdleTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Session.WsIdleTimeout = 0

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroReapInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Session.ReapInterval = 0

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroBatchLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Session.ReapBatchLimit = 0

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroShards(t *testing.T) {
	cfg := validConfig()
	cfg.Session.ShardCount = 0

	assert.Error(t, cfg.Validate())
}

// The guard must be provably expired by the time a connection becomes
// reap-eligible; the factor pair encodes that and the derived windows must
// keep the relationship.
func TestGuardAndReapWindows(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, 15*time.Second, cfg.Session.GuardTTL())
	assert.Equal(t, 20*time.Second, cfg.Session.ReapMaxAge())
	assert.Greater(t, cfg.Session.ReapMaxAge(), cfg.Session.GuardTTL())
}

func TestLoadConfigDefaultsValidate(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Session.WsIdleTimeout)
	assert.NoError(t, cfg.Validate())
}
