package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yaron8/dashboard-feed/dashboard"
)

const (
	DefaultMetricsInterval      = 3 * time.Second
	DefaultConnectivityInterval = 5 * time.Second
)

var ErrNotRunning = errors.New("scheduler is not running")

// Sink receives every snapshot the scheduler produces.
type Sink interface {
	Publish(ctx context.Context, snap dashboard.Snapshot) error
}

type SchedulerConfig struct {
	MetricsInterval      time.Duration
	ConnectivityInterval time.Duration
	Logger               *slog.Logger
}

type command struct {
	apply func(*Feed)
	done  chan struct{}
}

// Scheduler drives a Feed from one goroutine. Both tickers and all commands
// are handled by the same select loop, so the feed always has one writer.
type Scheduler struct {
	feed                 *Feed
	sinks                []Sink
	metricsInterval      time.Duration
	connectivityInterval time.Duration
	logger               *slog.Logger

	lifecycle sync.Mutex // orders waitGroup.Add against cancel
	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	running   atomic.Bool
	commands  chan command
	latest    atomic.Pointer[dashboard.Snapshot]
}

func NewScheduler(feed *Feed, cfg SchedulerConfig, sinks ...Sink) (*Scheduler, error) {
	if cfg.MetricsInterval <= 0 {
		return nil, fmt.Errorf("metrics interval must be positive, got %v", cfg.MetricsInterval)
	}
	if cfg.ConnectivityInterval <= 0 {
		return nil, fmt.Errorf("connectivity interval must be positive, got %v", cfg.ConnectivityInterval)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		feed:                 feed,
		sinks:                sinks,
		metricsInterval:      cfg.MetricsInterval,
		connectivityInterval: cfg.ConnectivityInterval,
		logger:               logger,
		ctx:                  ctx,
		cancel:               cancel,
		commands:             make(chan command),
	}
	snap := feed.Snapshot()
	s.latest.Store(&snap)
	return s, nil
}

// Start publishes the initial state and begins ticking. Calling it more than
// once has no effect.
func (s *Scheduler) Start() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.ctx.Err() != nil || s.running.Load() {
		return
	}
	s.waitGroup.Add(1)
	s.running.Store(true)

	s.logger.Info("Scheduler starting",
		"run_id", s.feed.RunID(),
		"metrics_interval", s.metricsInterval,
		"connectivity_interval", s.connectivityInterval,
		"sinks", len(s.sinks))

	go func() {
		defer s.waitGroup.Done()
		s.publish()

		metricsTicker := time.NewTicker(s.metricsInterval)
		defer metricsTicker.Stop()
		connectivityTicker := time.NewTicker(s.connectivityInterval)
		defer connectivityTicker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-metricsTicker.C:
				s.feed.TickMetrics()
				s.feed.TickTimeSeries()
				s.feed.TickDevices()
				s.publish()
			case <-connectivityTicker.C:
				s.feed.TickConnectivity()
				s.publish()
			case cmd := <-s.commands:
				cmd.apply(s.feed)
				s.publish()
				close(cmd.done)
			}
		}
	}()
}

// Stop halts both tickers and waits for the loop to exit. Safe to call
// before Start and more than once.
func (s *Scheduler) Stop() {
	s.lifecycle.Lock()
	s.cancel()
	s.lifecycle.Unlock()

	s.waitGroup.Wait()
	if s.running.Swap(false) {
		s.logger.Info("Scheduler stopped", "run_id", s.feed.RunID())
	}
}

// Running reports whether the loop has been started and not yet stopped.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Latest returns the most recently published snapshot.
func (s *Scheduler) Latest() dashboard.Snapshot {
	return s.latest.Load().Clone()
}

// SetConnected marks the feed connected or disconnected from outside the loop.
func (s *Scheduler) SetConnected(ctx context.Context, connected bool) error {
	return s.do(ctx, func(f *Feed) { f.SetConnected(connected) })
}

// ReplaceMetrics overwrites the scalar metrics from outside the loop.
func (s *Scheduler) ReplaceMetrics(ctx context.Context, m dashboard.Metrics) error {
	return s.do(ctx, func(f *Feed) { f.ReplaceMetrics(m) })
}

func (s *Scheduler) do(ctx context.Context, apply func(*Feed)) error {
	if !s.running.Load() {
		return ErrNotRunning
	}

	cmd := command{apply: apply, done: make(chan struct{})}
	select {
	case s.commands <- cmd:
	case <-s.ctx.Done():
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	// once the loop has taken the command it applies and publishes it before
	// selecting again
	<-cmd.done
	return nil
}

func (s *Scheduler) publish() {
	snap := s.feed.Snapshot()
	s.latest.Store(&snap)

	for _, sink := range s.sinks {
		if err := sink.Publish(s.ctx, snap.Clone()); err != nil {
			s.logger.Error("Error publishing snapshot", "run_id", snap.RunID, "seq", snap.Seq, "error", err)
		}
	}
}
