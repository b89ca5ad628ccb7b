package sink

import (
	"context"
	"sync/atomic"

	"github.com/yaron8/dashboard-feed/dashboard"
)

// ChannelSink hands snapshots to an in-process consumer. Publish never
// blocks; when the buffer is full the snapshot is dropped and counted.
type ChannelSink struct {
	ch      chan dashboard.Snapshot
	dropped atomic.Uint64
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan dashboard.Snapshot, buffer)}
}

func (cs *ChannelSink) C() <-chan dashboard.Snapshot {
	return cs.ch
}

func (cs *ChannelSink) Dropped() uint64 {
	return cs.dropped.Load()
}

func (cs *ChannelSink) Publish(_ context.Context, snap dashboard.Snapshot) error {
	select {
	case cs.ch <- snap:
	default:
		cs.dropped.Add(1)
	}
	return nil
}
