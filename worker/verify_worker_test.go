package worker

import (
	"testing"
	"time"
)

func TestProgressHubDeliversToSubscribers(t *testing.T) {
	hub := NewProgressHub()

	updates, cancel := hub.Subscribe(7)
	defer cancel()

	hub.Publish(Progress{JobID: 7, Processed: 3, Total: 10, Status: "processing"})

	select {
	case p := <-updates:
		if p.Processed != 3 || p.Total != 10 || p.Status != "processing" {
			t.Fatalf("unexpected update: %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}

func TestProgressHubIgnoresOtherJobs(t *testing.T) {
	hub := NewProgressHub()

	updates, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(Progress{JobID: 2, Processed: 1, Total: 1, Status: "completed"})

	select {
	case p := <-updates:
		t.Fatalf("received update for another job: %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProgressHubCancelStopsDelivery(t *testing.T) {
	hub := NewProgressHub()

	updates, cancel := hub.Subscribe(4)
	cancel()

	hub.Publish(Progress{JobID: 4, Processed: 1, Total: 2, Status: "processing"})

	select {
	case p := <-updates:
		t.Fatalf("received update after cancel: %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProgressHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewProgressHub()

	_, cancel := hub.Subscribe(9)
	defer cancel()

	done := make(chan struct{})
	go func() {
		// More publishes than the subscriber buffer holds; none may block.
		for i := 0; i < 100; i++ {
			hub.Publish(Progress{JobID: 9, Processed: i, Total: 100, Status: "processing"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
