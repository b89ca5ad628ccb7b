package integration_tests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yaron8/dashboard-feed/dashboard"
)

// TestIntegrationSuite runs the integration test suite
func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) next() dashboard.Snapshot {
	select {
	case snap := <-s.updates.C():
		return snap
	case <-time.After(waitTimeout):
		s.Require().Fail("no snapshot received")
		return dashboard.Snapshot{}
	}
}

// TestInitialSnapshot checks the first publish carries the seed state
func (s *IntegrationTestSuite) TestInitialSnapshot() {
	snap := s.initial

	assert.Equal(s.T(), uint64(0), snap.Seq)
	assert.Equal(s.T(), dashboard.DefaultMetrics(), snap.Metrics)
	assert.Equal(s.T(), dashboard.DefaultDevices(), snap.Devices)
	assert.True(s.T(), snap.Connected)
	assert.Equal(s.T(), s.bootstrap.Scheduler().Latest().RunID, snap.RunID)
}

// TestCommandsRightAfterSetup checks a fresh feed accepts commands without waiting
func (s *IntegrationTestSuite) TestCommandsRightAfterSetup() {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	want := dashboard.Metrics{ActiveUsers: 1500, Revenue: 60000, Conversions: 300, AvgResponseTime: 150}
	s.Require().NoError(s.bootstrap.Scheduler().ReplaceMetrics(ctx, want))

	sawReplace := false
	for i := 0; i < updatesBuffer && !sawReplace; i++ {
		sawReplace = s.next().Metrics == want
	}
	s.Require().True(sawReplace, "replaced metrics were never published")
}

// TestInvariantsAcrossTicks follows the feed for a number of ticks
func (s *IntegrationTestSuite) TestInvariantsAcrossTicks() {
	var last uint64
	for i := 0; i < 20; i++ {
		snap := s.next()

		s.Require().Len(snap.TimeSeries, dashboard.SeriesLength)
		s.Require().GreaterOrEqual(snap.Metrics.ActiveUsers, 800)
		s.Require().GreaterOrEqual(snap.Metrics.Revenue, 30000)
		s.Require().GreaterOrEqual(snap.Metrics.Conversions, 200)
		s.Require().GreaterOrEqual(snap.Metrics.AvgResponseTime, 100)
		for _, d := range snap.Devices {
			s.Require().GreaterOrEqual(d.Value, 10)
		}
		s.Require().True(snap.Connected, "connectivity ticks never disconnect")
		s.Require().GreaterOrEqual(snap.Seq, last)
		last = snap.Seq
	}

	assert.Positive(s.T(), last)
	assert.Zero(s.T(), s.updates.Dropped())
}

// TestPrometheusMirror checks the gauges follow the published snapshots
func (s *IntegrationTestSuite) TestPrometheusMirror() {
	s.Require().Eventually(func() bool {
		return s.bootstrap.Latest().Seq >= 2
	}, waitTimeout, 5*time.Millisecond)

	count, err := testutil.GatherAndCount(s.registry, "dashboard_active_users", "dashboard_device_share")
	s.Require().NoError(err)
	assert.Equal(s.T(), 1+3, count)
}

// TestDisconnectThroughScheduler checks the only path that can clear connectivity
func (s *IntegrationTestSuite) TestDisconnectThroughScheduler() {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	s.Require().NoError(s.bootstrap.Scheduler().SetConnected(ctx, false))

	sawDisconnect := false
	for i := 0; i < updatesBuffer && !sawDisconnect; i++ {
		sawDisconnect = !s.next().Connected
	}
	s.Require().True(sawDisconnect, "disconnect was never published")

	// with the default 0.9 probability a reconnect shows up quickly
	s.Require().Eventually(func() bool {
		return s.bootstrap.Latest().Connected
	}, waitTimeout, 5*time.Millisecond)
}

// TestRedisMirror reads the snapshot back from a live redis
func (s *IntegrationTestSuite) TestRedisMirror() {
	if redisHost() == "" {
		s.T().Skip("DASHFEED_IT_REDIS_HOST not set")
	}

	client := redis.NewClient(&redis.Options{Addr: s.config.RedisAddr(), Protocol: 2})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	pubsub := client.Subscribe(ctx, s.config.Redis.Channel)
	defer pubsub.Close()

	msg, err := pubsub.ReceiveMessage(ctx)
	s.Require().NoError(err, "Failed to receive published snapshot")

	var published dashboard.Snapshot
	s.Require().NoError(json.Unmarshal([]byte(msg.Payload), &published))
	assert.Equal(s.T(), s.bootstrap.Scheduler().Latest().RunID, published.RunID)

	stored, err := client.Get(ctx, s.config.Redis.Key).Bytes()
	s.Require().NoError(err)

	var snap dashboard.Snapshot
	s.Require().NoError(json.Unmarshal(stored, &snap))
	assert.Len(s.T(), snap.TimeSeries, dashboard.SeriesLength)
}
