package feed

import (
	"errors"
	"fmt"
)

const (
	ProfileDashboard = "dashboard"
	ProfileTrending  = "trending"
)

var ErrUnknownProfile = errors.New("unknown profile")

// Profile holds the walk used for every value the feed mutates.
type Profile struct {
	Name string

	ActiveUsers     Walk
	Revenue         Walk
	Conversions     Walk
	AvgResponseTime Walk

	SeriesUsers    Walk
	SeriesRevenue  Walk
	SeriesRequests Walk

	Device Walk
}

// DashboardProfile is the default: symmetric deltas around the previous value.
func DashboardProfile() Profile {
	return Profile{
		Name:            ProfileDashboard,
		ActiveUsers:     Symmetric(20, 800),
		Revenue:         Symmetric(1000, 30000),
		Conversions:     Symmetric(5, 200),
		AvgResponseTime: Symmetric(10, 100),
		SeriesUsers:     Symmetric(50, 50),
		SeriesRevenue:   Symmetric(1000, 1000),
		SeriesRequests:  Symmetric(100, 200),
		Device:          Symmetric(3, 10),
	}
}

// TrendingProfile keeps the dashboard floors but skews every delta upward,
// so values climb over time.
func TrendingProfile() Profile {
	return Profile{
		Name:            ProfileTrending,
		ActiveUsers:     Drift(20, 800),
		Revenue:         Drift(1000, 30000),
		Conversions:     Drift(5, 200),
		AvgResponseTime: Drift(10, 100),
		SeriesUsers:     Drift(50, 50),
		SeriesRevenue:   Drift(1000, 1000),
		SeriesRequests:  Drift(100, 200),
		Device:          Drift(3, 10),
	}
}

func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", ProfileDashboard:
		return DashboardProfile(), nil
	case ProfileTrending:
		return TrendingProfile(), nil
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

func (p Profile) Validate() error {
	// checked in field order so the first bad walk is always the one reported
	walks := []struct {
		name string
		walk Walk
	}{
		{"active_users", p.ActiveUsers},
		{"revenue", p.Revenue},
		{"conversions", p.Conversions},
		{"avg_response_time", p.AvgResponseTime},
		{"series_users", p.SeriesUsers},
		{"series_revenue", p.SeriesRevenue},
		{"series_requests", p.SeriesRequests},
		{"device", p.Device},
	}
	for _, w := range walks {
		if err := w.walk.validate(); err != nil {
			return fmt.Errorf("profile %s: %s: %w", p.Name, w.name, err)
		}
	}
	return nil
}
