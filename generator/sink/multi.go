package sink

import (
	"context"
	"errors"

	"github.com/yaron8/dashboard-feed/dashboard"
	"github.com/yaron8/dashboard-feed/generator/feed"
)

var (
	_ feed.Sink = (*RedisSink)(nil)
	_ feed.Sink = (*PromSink)(nil)
	_ feed.Sink = (*ChannelSink)(nil)
	_ feed.Sink = (*LogSink)(nil)
	_ feed.Sink = Multi(nil)
)

// Multi publishes to every sink in order and joins their errors.
type Multi []feed.Sink

func (m Multi) Publish(ctx context.Context, snap dashboard.Snapshot) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
