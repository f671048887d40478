package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/config"
)

// NewServer registers collectors on the default Prometheus registry, so it
// can only run once per process.
func TestNewServer_Defaults(t *testing.T) {
	cfg := config.Default()

	srv, err := NewServer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, srv)

	assert.NotNil(t, srv.service)
	assert.NotNil(t, srv.api)
	assert.NotNil(t, srv.metricsSrv)
	assert.Nil(t, srv.redisStore)
}
