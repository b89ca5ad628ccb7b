package bootstrap

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaron8/dashboard-feed/dashboard"
	"github.com/yaron8/dashboard-feed/generator/config"
	"github.com/yaron8/dashboard-feed/generator/feed"
	"github.com/yaron8/dashboard-feed/generator/sink"
)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Port = 0
	cfg.Feed.MetricsInterval = 10 * time.Millisecond
	cfg.Feed.ConnectivityInterval = 15 * time.Millisecond
	cfg.Feed.Seed = 7
	return cfg
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNewBootstrap_UnknownProfile(t *testing.T) {
	cfg := testConfig()
	cfg.Feed.Profile = "sideways"

	_, err := NewBootstrap(cfg, discard())
	assert.ErrorIs(t, err, feed.ErrUnknownProfile)
}

func TestNewBootstrap_RegistersRequestCounterWithListener(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 9001
	reg := prometheus.NewRegistry()

	_, err := NewBootstrap(cfg, discard(), WithRegistry(reg))
	require.NoError(t, err)

	// registering the same counter again must collide
	dup := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"method", "endpoint", "status"})
	assert.Error(t, reg.Register(dup))
}

// tests that the config-built mirrors and extra sinks see the same stream
func TestRun_PublishesThroughMirrorsAndExtraSinks(t *testing.T) {
	reg := prometheus.NewRegistry()
	updates := sink.NewChannelSink(64)

	b, err := NewBootstrap(testConfig(), discard(), WithRegistry(reg), WithSink(updates))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() {
		runErr <- b.Run(ctx)
	}()

	var first dashboard.Snapshot
	select {
	case first = <-updates.C():
	case <-time.After(3 * time.Second):
		require.FailNow(t, "no snapshot received")
	}
	assert.Equal(t, uint64(0), first.Seq)
	assert.True(t, b.Scheduler().Running())

	// the prometheus mirror publishes before the extra sink, so its gauges
	// already carry the initial state
	count, err := testutil.GatherAndCount(reg, "dashboard_active_users", "dashboard_snapshots_published_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Eventually(t, func() bool { return b.Latest().Seq >= 3 }, 3*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		require.FailNow(t, "Run did not return after cancel")
	}
	assert.False(t, b.Scheduler().Running())
	assert.ErrorIs(t, b.Scheduler().SetConnected(context.Background(), false), feed.ErrNotRunning)
}
