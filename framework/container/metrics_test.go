package container_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-spf/framework/annotations"
	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/reflection"
)

func TestMetrics_CountsResolutionsBySourceAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := container.NewMetrics(reg)
	require.NoError(t, err)

	pool := reflection.NewPool()
	require.NoError(t, pool.Register(loggerSpec, widgetSpec))
	engine, err := annotations.NewEngine(pool)
	require.NoError(t, err)
	c := container.New(pool, engine, container.WithMetrics(m))

	c.MustGet("app.Widget")
	c.MustGet("app.Widget")
	_, err = c.Get("app.Missing")
	require.Error(t, err)

	// managed/ok and none/error
	n, err := testutil.GatherAndCount(reg, "spf_container_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := container.NewMetrics(reg)
	require.NoError(t, err)

	_, err = container.NewMetrics(reg)
	assert.Error(t, err)
}
