package progress

import (
	"testing"

	"github.com/cuemby/stride/pkg/job"
)

func TestAggregatorCounts(t *testing.T) {
	a := NewAggregator(3)
	a.JobStarted()
	a.JobStarted()
	a.JobFinished(job.ResultBestKnown)
	a.JobFinished(job.ResultTimeout)

	snap := a.Snapshot()
	if snap.Total != 3 || snap.Finished != 2 || snap.Running != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.BestKnown != 1 || snap.Timeout != 1 {
		t.Fatalf("unexpected classification counts: %+v", snap)
	}
}

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(Event{Type: EventJobFinished, IID: 1582, Result: job.ResultBestKnown})

	select {
	case ev := <-sub:
		if ev.IID != 1582 {
			t.Fatalf("got iid %v, want 1582", ev.IID)
		}
	default:
		t.Fatal("expected a buffered event to be available")
	}
}

func TestBrokerDropsWhenSubscriberBufferFull(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for i := 0; i < 1000; i++ {
		b.Publish(Event{Type: EventJobFinished})
	}
	// Must not block or panic even though the subscriber never drains.
}
