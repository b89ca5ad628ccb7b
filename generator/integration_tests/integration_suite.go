package integration_tests

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"github.com/yaron8/dashboard-feed/dashboard"
	"github.com/yaron8/dashboard-feed/generator/bootstrap"
	"github.com/yaron8/dashboard-feed/generator/config"
	"github.com/yaron8/dashboard-feed/generator/sink"
)

const (
	metricsInterval      = 20 * time.Millisecond
	connectivityInterval = 30 * time.Millisecond
	waitTimeout          = 3 * time.Second
	updatesBuffer        = 256
)

type IntegrationTestSuite struct {
	suite.Suite
	config    *config.Config
	registry  *prometheus.Registry
	updates   *sink.ChannelSink
	bootstrap *bootstrap.Bootstrap
	ctx       context.Context
	cancel    context.CancelFunc
	runErr    chan error
	initial   dashboard.Snapshot
}

// SetupTest starts a fresh feed for every test
func (s *IntegrationTestSuite) SetupTest() {
	s.config = config.NewConfig()
	s.config.Port = 0
	s.config.Feed.MetricsInterval = metricsInterval
	s.config.Feed.ConnectivityInterval = connectivityInterval
	s.config.Feed.Seed = 1234
	s.configure(s.config)

	s.registry = prometheus.NewRegistry()
	s.updates = sink.NewChannelSink(updatesBuffer)

	var err error
	s.bootstrap, err = bootstrap.NewBootstrap(s.config, slog.New(slog.DiscardHandler),
		bootstrap.WithRegistry(s.registry),
		bootstrap.WithSink(s.updates),
	)
	s.Require().NoError(err, "Failed to create bootstrap")

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.runErr = make(chan error, 1)
	go func() {
		s.runErr <- s.bootstrap.Run(s.ctx)
	}()

	// the initial snapshot is published from inside the loop, so once it
	// arrives the scheduler accepts commands
	s.initial = s.next()
	s.Require().True(s.bootstrap.Scheduler().Running())
}

// TearDownTest stops the feed and waits for Run to return
func (s *IntegrationTestSuite) TearDownTest() {
	s.cancel()

	select {
	case err := <-s.runErr:
		s.Require().NoError(err)
	case <-time.After(waitTimeout):
		s.Require().Fail("bootstrap did not stop in time")
	}
}

// configure lets env-gated tests tweak the config before the feed starts
func (s *IntegrationTestSuite) configure(cfg *config.Config) {
	if host := redisHost(); host != "" {
		cfg.Redis.Enabled = true
		cfg.Redis.Host = host
		cfg.Redis.Key = "dashboard:it:snapshot"
		cfg.Redis.Channel = "dashboard:it:updates"
	}
}

// redisHost enables the live redis test, e.g. DASHFEED_IT_REDIS_HOST=localhost
func redisHost() string {
	return os.Getenv("DASHFEED_IT_REDIS_HOST")
}
