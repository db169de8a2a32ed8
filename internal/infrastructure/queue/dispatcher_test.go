package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

type recordingService struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	done   chan struct{}
	want   int
}

func newRecordingService(want int) *recordingService {
	return &recordingService{done: make(chan struct{}), want: want}
}

func (s *recordingService) Process(_ context.Context, e domain.AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	if len(s.events) == s.want {
		close(s.done)
	}
	return nil
}

func TestDispatcher_PreservesPerKeyOrder(t *testing.T) {
	svc := newRecordingService(20)
	d := NewDispatcher(4, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 20; i++ {
		d.Record(domain.AuthEvent{
			Kind:        domain.AuthEventLoginFailure,
			PrincipalID: "p-1",
			Timestamp:   time.Unix(int64(i), 0),
		})
	}

	select {
	case <-svc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for i, e := range svc.events {
		if e.Timestamp.Unix() != int64(i) {
			t.Fatalf("event %d out of order: %v", i, e.Timestamp.Unix())
		}
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	svc := newRecordingService(-1)
	d := NewDispatcher(1, svc, zerolog.Nop())

	// Workers not started: the single queue fills up and the rest is dropped.
	for i := 0; i < channelBuffer+10; i++ {
		d.Record(domain.AuthEvent{Kind: domain.AuthEventAccessDenied, RemoteIP: "10.0.0.1"})
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("expected full queue of %d, got %d", channelBuffer, got)
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, newRecordingService(-1), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	first := d.shardIndex("a@x.com")
	for i := 0; i < 10; i++ {
		if d.shardIndex("a@x.com") != first {
			t.Fatal("shard index changed between calls")
		}
	}
}
