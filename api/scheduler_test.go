package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reconcile-engine/api"
	"github.com/warp/reconcile-engine/config"
)

func TestNewReloadScheduler_InvalidSchedule(t *testing.T) {
	h := newTestHandler(t, config.SourcesConfig{})

	_, err := api.NewReloadScheduler(h, "every tuesday-ish", nil)
	assert.Error(t, err)
}

func TestReloadScheduler_RunNowPublishes(t *testing.T) {
	// GIVEN: A scheduler over configured files
	h := newTestHandler(t, writeSources(t))
	rs, err := api.NewReloadScheduler(h, "@every 1h", nil)
	require.NoError(t, err)

	// WHEN: A reload is triggered by hand
	rs.RunNow()

	// THEN: A reload cycle is current
	c, ok := h.Store.Current()
	require.True(t, ok)
	assert.Equal(t, "reload", c.Origin)
}

func TestReloadScheduler_FailedReloadKeepsPrevious(t *testing.T) {
	// GIVEN: A published cycle and no configured files
	h := newTestHandler(t, config.SourcesConfig{})
	router := api.NewRouter(h, nil)
	loaded := loadScenario(t, router, "single-technician")

	rs, err := api.NewReloadScheduler(h, "@every 1h", nil)
	require.NoError(t, err)

	// WHEN: The reload fails
	rs.RunNow()

	// THEN: The earlier cycle is still current
	c, ok := h.Store.Current()
	require.True(t, ok)
	assert.Equal(t, loaded.CycleID, c.ID)
}

func TestReloadScheduler_StartStop(t *testing.T) {
	h := newTestHandler(t, config.SourcesConfig{})
	rs, err := api.NewReloadScheduler(h, "@every 1h", nil)
	require.NoError(t, err)

	rs.Start()
	rs.Start()
	rs.Stop()
	rs.Stop()
}
