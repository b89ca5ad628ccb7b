package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/yaron8/dashboard-feed/dashboard"
	"github.com/yaron8/dashboard-feed/generator/config"
	"github.com/yaron8/dashboard-feed/generator/feed"
	"github.com/yaron8/dashboard-feed/generator/service"
	"github.com/yaron8/dashboard-feed/generator/sink"
)

const shutdownTimeout = 5 * time.Second

type Bootstrap struct {
	config      *config.Config
	logger      *slog.Logger
	feed        *feed.Feed
	scheduler   *feed.Scheduler
	apiServer   *service.APIServer
	redisClient *redis.Client
}

type Option func(*options)

type options struct {
	extraSinks []feed.Sink
	registry   *prometheus.Registry
}

// WithSink adds a sink next to the ones built from config.
func WithSink(s feed.Sink) Option {
	return func(o *options) { o.extraSinks = append(o.extraSinks, s) }
}

// WithRegistry uses reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

func NewBootstrap(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Bootstrap, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(collectors.NewGoCollector())
	}

	profile, err := feed.ProfileByName(cfg.Feed.Profile)
	if err != nil {
		return nil, err
	}

	feedOpts := []feed.Option{
		feed.WithProfile(profile),
		feed.WithConnectProbability(cfg.Feed.ConnectProbability),
		feed.WithLogger(logger),
	}
	if cfg.Feed.Seed != 0 {
		feedOpts = append(feedOpts, feed.WithSeed(cfg.Feed.Seed))
	}
	f, err := feed.NewFeed(feedOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed: %w", err)
	}

	promSink, err := sink.NewPromSink(o.registry)
	if err != nil {
		return nil, err
	}
	mirrors := sink.Multi{sink.NewLogSink(logger, slog.LevelDebug), promSink}

	b := &Bootstrap{
		config: cfg,
		logger: logger,
		feed:   f,
	}

	if cfg.Redis.Enabled {
		b.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: "", // no password set
			DB:       0,  // use default DB
			Protocol: 2,
		})
		mirrors = append(mirrors, sink.NewRedisSink(b.redisClient, cfg.Redis.Key, cfg.Redis.Channel, cfg.Redis.TTL))
		logger.Info("Redis sink enabled", "addr", cfg.RedisAddr(), "key", cfg.Redis.Key, "channel", cfg.Redis.Channel)
	}
	// config-built mirrors report their failures as one joined error per snapshot
	sinks := append([]feed.Sink{mirrors}, o.extraSinks...)

	b.scheduler, err = feed.NewScheduler(f, feed.SchedulerConfig{
		MetricsInterval:      cfg.Feed.MetricsInterval,
		ConnectivityInterval: cfg.Feed.ConnectivityInterval,
		Logger:               logger,
	}, sinks...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if cfg.Port > 0 {
		b.apiServer, err = service.NewAPIServer(cfg, o.registry, logger)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (b *Bootstrap) Scheduler() *feed.Scheduler {
	return b.scheduler
}

// Latest returns the most recent snapshot the scheduler published.
func (b *Bootstrap) Latest() dashboard.Snapshot {
	return b.scheduler.Latest()
}

// Run starts the feed and the ops listener and blocks until ctx is done or
// the listener fails. Both timers are stopped before it returns.
func (b *Bootstrap) Run(ctx context.Context) error {
	b.logger.Info("Dashboard feed starting", "run_id", b.feed.RunID(), "profile", b.config.Feed.Profile)

	b.scheduler.Start()

	serverErr := make(chan error, 1)
	if b.apiServer != nil {
		go func() {
			serverErr <- b.apiServer.Start()
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
	}

	// stop publishing before the sinks' clients go away
	b.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if b.apiServer != nil {
		if err := b.apiServer.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error shutting down APIServer", "error", err)
		}
	}
	if b.redisClient != nil {
		if err := b.redisClient.Close(); err != nil {
			b.logger.Error("Error closing redis client", "error", err)
		}
	}

	b.logger.Info("Dashboard feed stopped", "run_id", b.feed.RunID())
	return runErr
}
