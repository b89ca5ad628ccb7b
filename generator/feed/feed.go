package feed

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/yaron8/dashboard-feed/dashboard"
)

const DefaultConnectProbability = 0.9

// Feed owns the synthetic dashboard state. Tick methods mutate it in place
// and must be called from a single goroutine; the Scheduler is that goroutine
// at runtime.
type Feed struct {
	profile            Profile
	connectProbability float64
	rng                *rand.Rand
	now                func() time.Time
	logger             *slog.Logger
	runID              string

	seq        uint64
	metrics    dashboard.Metrics
	series     []dashboard.TimeSeriesPoint
	devices    []dashboard.Device
	connected  bool
	lastUpdate time.Time
}

type Option func(*Feed)

func WithRand(r *rand.Rand) Option {
	return func(f *Feed) { f.rng = r }
}

// WithSeed makes the feed deterministic for a given seed.
func WithSeed(seed uint64) Option {
	return func(f *Feed) { f.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

func WithProfile(p Profile) Option {
	return func(f *Feed) { f.profile = p }
}

func WithConnectProbability(p float64) Option {
	return func(f *Feed) { f.connectProbability = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) { f.logger = l }
}

func WithRunID(id string) Option {
	return func(f *Feed) { f.runID = id }
}

// WithState overrides the seed state. Slices are copied.
func WithState(m dashboard.Metrics, series []dashboard.TimeSeriesPoint, devices []dashboard.Device) Option {
	return func(f *Feed) {
		f.metrics = m
		f.series = append([]dashboard.TimeSeriesPoint(nil), series...)
		f.devices = append([]dashboard.Device(nil), devices...)
	}
}

func NewFeed(opts ...Option) (*Feed, error) {
	f := &Feed{
		profile:            DashboardProfile(),
		connectProbability: DefaultConnectProbability,
		now:                time.Now,
		logger:             slog.New(slog.DiscardHandler),
		metrics:            dashboard.DefaultMetrics(),
		series:             dashboard.DefaultTimeSeries(),
		devices:            dashboard.DefaultDevices(),
		connected:          true,
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.profile.Validate(); err != nil {
		return nil, err
	}
	if f.connectProbability < 0 || f.connectProbability > 1 {
		return nil, fmt.Errorf("connect probability %v outside [0, 1]", f.connectProbability)
	}
	if len(f.series) != dashboard.SeriesLength {
		return nil, fmt.Errorf("time series must hold %d points, got %d", dashboard.SeriesLength, len(f.series))
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if f.runID == "" {
		f.runID = uuid.NewString()
	}
	f.lastUpdate = f.now()

	f.logger.Debug("feed created", "run_id", f.runID, "profile", f.profile.Name,
		"connect_probability", f.connectProbability)

	return f, nil
}

func (f *Feed) RunID() string {
	return f.runID
}

// TickMetrics steps every scalar metric and stamps the update time.
func (f *Feed) TickMetrics() {
	p := f.profile
	f.metrics = dashboard.Metrics{
		ActiveUsers:     p.ActiveUsers.Step(f.rng, f.metrics.ActiveUsers),
		Revenue:         p.Revenue.Step(f.rng, f.metrics.Revenue),
		Conversions:     p.Conversions.Step(f.rng, f.metrics.Conversions),
		AvgResponseTime: p.AvgResponseTime.Step(f.rng, f.metrics.AvgResponseTime),
	}
	f.seq++
	f.lastUpdate = f.now()
}

// TickTimeSeries derives a new point from the current last point, then
// slides the window by one.
func (f *Feed) TickTimeSeries() {
	p := f.profile
	last := f.series[len(f.series)-1]
	next := dashboard.TimeSeriesPoint{
		Time:     dashboard.FormatClock(f.now()),
		Users:    p.SeriesUsers.Step(f.rng, last.Users),
		Revenue:  p.SeriesRevenue.Step(f.rng, last.Revenue),
		Requests: p.SeriesRequests.Step(f.rng, last.Requests),
	}

	// copy into a fresh slice so snapshots taken earlier keep their view
	window := make([]dashboard.TimeSeriesPoint, 0, dashboard.SeriesLength)
	window = append(window, f.series[1:]...)
	f.series = append(window, next)
}

func (f *Feed) TickDevices() {
	devices := make([]dashboard.Device, len(f.devices))
	for i, d := range f.devices {
		d.Value = f.profile.Device.Step(f.rng, d.Value)
		devices[i] = d
	}
	f.devices = devices
}

// TickConnectivity sets connected with the configured probability and
// otherwise leaves the status alone. It never reports a disconnect.
func (f *Feed) TickConnectivity() {
	if f.rng.Float64() < f.connectProbability {
		f.connected = true
	}
}

// SetConnected is the only way to mark the feed disconnected.
func (f *Feed) SetConnected(connected bool) {
	if f.connected != connected {
		f.logger.Info("connectivity changed", "run_id", f.runID, "connected", connected)
	}
	f.connected = connected
}

// ReplaceMetrics overwrites the scalars, clamping each one to its floor.
func (f *Feed) ReplaceMetrics(m dashboard.Metrics) {
	p := f.profile
	f.metrics = dashboard.Metrics{
		ActiveUsers:     p.ActiveUsers.Clamp(m.ActiveUsers),
		Revenue:         p.Revenue.Clamp(m.Revenue),
		Conversions:     p.Conversions.Clamp(m.Conversions),
		AvgResponseTime: p.AvgResponseTime.Clamp(m.AvgResponseTime),
	}
}

func (f *Feed) Connected() bool {
	return f.connected
}

func (f *Feed) LastUpdate() time.Time {
	return f.lastUpdate
}

// Snapshot returns a copy of the current state that shares no memory with the feed.
func (f *Feed) Snapshot() dashboard.Snapshot {
	return dashboard.Snapshot{
		RunID:      f.runID,
		Seq:        f.seq,
		Metrics:    f.metrics,
		TimeSeries: append([]dashboard.TimeSeriesPoint(nil), f.series...),
		Devices:    append([]dashboard.Device(nil), f.devices...),
		Connected:  f.connected,
		LastUpdate: f.lastUpdate,
	}
}
