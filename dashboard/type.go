package dashboard

import (
	"fmt"
	"time"
)

// SeriesLength is the fixed number of points kept in the time series window.
const SeriesLength = 6

type Metrics struct {
	ActiveUsers     int `json:"activeUsers"`
	Revenue         int `json:"revenue"`
	Conversions     int `json:"conversions"`
	AvgResponseTime int `json:"avgResponseTime"`
}

type TimeSeriesPoint struct {
	Time     string `json:"time"`
	Users    int    `json:"users"`
	Revenue  int    `json:"revenue"`
	Requests int    `json:"requests"`
}

// Device is one slice of the device share breakdown. Value is a nominal
// percentage; the set is never renormalized to sum to 100.
type Device struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// Snapshot is a read-only copy of the feed state handed to the presentation layer.
type Snapshot struct {
	RunID      string            `json:"runId"`
	Seq        uint64            `json:"seq"`
	Metrics    Metrics           `json:"metrics"`
	TimeSeries []TimeSeriesPoint `json:"timeseries"`
	Devices    []Device          `json:"devices"`
	Connected  bool              `json:"connected"`
	LastUpdate time.Time         `json:"timestamp"`
}

// Clone returns a deep copy so callers can hold on to it across ticks.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.TimeSeries = append([]TimeSeriesPoint(nil), s.TimeSeries...)
	out.Devices = append([]Device(nil), s.Devices...)
	return out
}

func DefaultMetrics() Metrics {
	return Metrics{
		ActiveUsers:     1247,
		Revenue:         45280,
		Conversions:     342,
		AvgResponseTime: 145,
	}
}

func DefaultTimeSeries() []TimeSeriesPoint {
	return []TimeSeriesPoint{
		{Time: "00:00", Users: 120, Revenue: 2400, Requests: 450},
		{Time: "04:00", Users: 89, Revenue: 1800, Requests: 320},
		{Time: "08:00", Users: 340, Revenue: 6800, Requests: 890},
		{Time: "12:00", Users: 520, Revenue: 10400, Requests: 1250},
		{Time: "16:00", Users: 410, Revenue: 8200, Requests: 980},
		{Time: "20:00", Users: 280, Revenue: 5600, Requests: 720},
	}
}

func DefaultDevices() []Device {
	return []Device{
		{Name: "Desktop", Value: 45, Color: "#3b82f6"},
		{Name: "Mobile", Value: 35, Color: "#10b981"},
		{Name: "Tablet", Value: 20, Color: "#f59e0b"},
	}
}

// FormatClock renders t as H:MM, hour unpadded and minutes zero-padded.
func FormatClock(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}
