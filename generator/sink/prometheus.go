package sink

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/yaron8/dashboard-feed/dashboard"
)

// PromSink mirrors each snapshot into gauges so the feed can be scraped.
type PromSink struct {
	activeUsers     prometheus.Gauge
	revenue         prometheus.Gauge
	conversions     prometheus.Gauge
	avgResponseTime prometheus.Gauge
	seriesLast      *prometheus.GaugeVec
	deviceShare     *prometheus.GaugeVec
	connected       prometheus.Gauge
	lastUpdate      prometheus.Gauge
	snapshots       prometheus.Counter
}

func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	ps := &PromSink{
		activeUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_active_users",
			Help: "Current synthetic active users",
		}),
		revenue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_revenue",
			Help: "Current synthetic revenue",
		}),
		conversions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_conversions",
			Help: "Current synthetic conversions",
		}),
		avgResponseTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_avg_response_time_ms",
			Help: "Current synthetic average response time in milliseconds",
		}),
		seriesLast: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashboard_series_last",
				Help: "Newest point of each time series",
			},
			[]string{"series"},
		),
		deviceShare: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashboard_device_share",
				Help: "Nominal share per device category",
			},
			[]string{"device"},
		),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_connected",
			Help: "1 when the feed reports connected",
		}),
		lastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_last_update_timestamp_seconds",
			Help: "Unix time of the last metrics tick",
		}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_snapshots_published_total",
			Help: "Total number of snapshots published",
		}),
	}

	collectors := []prometheus.Collector{
		ps.activeUsers, ps.revenue, ps.conversions, ps.avgResponseTime,
		ps.seriesLast, ps.deviceShare, ps.connected, ps.lastUpdate, ps.snapshots,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return ps, nil
}

func (ps *PromSink) Publish(_ context.Context, snap dashboard.Snapshot) error {
	ps.activeUsers.Set(float64(snap.Metrics.ActiveUsers))
	ps.revenue.Set(float64(snap.Metrics.Revenue))
	ps.conversions.Set(float64(snap.Metrics.Conversions))
	ps.avgResponseTime.Set(float64(snap.Metrics.AvgResponseTime))

	if n := len(snap.TimeSeries); n > 0 {
		last := snap.TimeSeries[n-1]
		ps.seriesLast.WithLabelValues("users").Set(float64(last.Users))
		ps.seriesLast.WithLabelValues("revenue").Set(float64(last.Revenue))
		ps.seriesLast.WithLabelValues("requests").Set(float64(last.Requests))
	}

	for _, d := range snap.Devices {
		ps.deviceShare.WithLabelValues(d.Name).Set(float64(d.Value))
	}

	if snap.Connected {
		ps.connected.Set(1)
	} else {
		ps.connected.Set(0)
	}
	ps.lastUpdate.Set(float64(snap.LastUpdate.Unix()))
	ps.snapshots.Inc()

	return nil
}
