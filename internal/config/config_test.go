package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, time.Second, cfg.Engine.PollInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.MinInterval)
	assert.True(t, cfg.Engine.LoadListsAtStartup)
	assert.Equal(t, 4, cfg.Refresh.Concurrency)
	require.NoError(t, Validate(cfg))
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "postgres"

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestSitesConfig(t *testing.T) {
	sc := SitesConfig{}
	assert.True(t, sc.IsSiteEnabled("Netflix"), "empty list enables everything")

	sc.EnabledSites = []string{"Netflix"}
	assert.True(t, sc.IsSiteEnabled("Netflix"))
	assert.False(t, sc.IsSiteEnabled("YouTube"))

	sc.PollIntervals = map[string]string{"Netflix": "250ms", "YouTube": "soon"}
	d, ok := sc.PollInterval("Netflix")
	assert.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, d)

	_, ok = sc.PollInterval("YouTube")
	assert.False(t, ok)

	_, ok = sc.PollInterval("IMDb")
	assert.False(t, ok)
}
