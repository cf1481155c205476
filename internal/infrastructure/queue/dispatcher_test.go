package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetup-social/meetup-api/internal/core/ports"
)

type recordingService struct {
	mu      sync.Mutex
	applied []ports.FollowUp
	failFor string
	gate    chan struct{}
}

func (s *recordingService) Apply(_ context.Context, job ports.FollowUp) error {
	if s.gate != nil {
		<-s.gate
	}
	if job.TargetID == s.failFor {
		return errors.New("write conflict")
	}
	s.mu.Lock()
	s.applied = append(s.applied, job)
	s.mu.Unlock()
	return nil
}

func (s *recordingService) snapshot() []ports.FollowUp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.FollowUp(nil), s.applied...)
}

func TestDispatcher_PreservesPerTargetOrder(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(4, svc, zerolog.Nop())
	d.Start()

	for i := 1; i <= 50; i++ {
		d.Enqueue(ports.FollowUp{Kind: ports.FollowUpUserPoints, TargetID: "user-1", Delta: i})
		d.Enqueue(ports.FollowUp{Kind: ports.FollowUpCommentsCount, TargetID: "post-1", Delta: i})
	}
	require.NoError(t, d.Stop(context.Background()))

	var users, posts []int
	for _, job := range svc.snapshot() {
		switch job.TargetID {
		case "user-1":
			users = append(users, job.Delta)
		case "post-1":
			posts = append(posts, job.Delta)
		}
	}
	require.Len(t, users, 50)
	require.Len(t, posts, 50)
	for i := range users {
		assert.Equal(t, i+1, users[i])
		assert.Equal(t, i+1, posts[i])
	}
}

func TestDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	svc := &recordingService{failFor: "gone"}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start()

	d.Enqueue(ports.FollowUp{Kind: ports.FollowUpCommentsCount, TargetID: "gone", Delta: 1})
	d.Enqueue(ports.FollowUp{Kind: ports.FollowUpCommentsCount, TargetID: "post-2", Delta: 1})
	require.NoError(t, d.Stop(context.Background()))

	applied := svc.snapshot()
	require.Len(t, applied, 1)
	assert.Equal(t, "post-2", applied[0].TargetID)
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	svc := &recordingService{gate: make(chan struct{})}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer*2; i++ {
			d.Enqueue(ports.FollowUp{Kind: ports.FollowUpUserPoints, TargetID: "user-1", Delta: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full shard")
	}

	close(svc.gate)
	require.NoError(t, d.Stop(context.Background()))
	assert.LessOrEqual(t, len(svc.snapshot()), channelBuffer+1)
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(2, svc, zerolog.Nop())
	d.Start()
	require.NoError(t, d.Stop(context.Background()))

	d.Enqueue(ports.FollowUp{Kind: ports.FollowUpUserPoints, TargetID: "user-1", Delta: 5})
	assert.Empty(t, svc.snapshot())
	assert.NoError(t, d.Stop(context.Background()))
}

func TestDispatcher_StopHonoursContext(t *testing.T) {
	svc := &recordingService{gate: make(chan struct{})}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start()
	d.Enqueue(ports.FollowUp{Kind: ports.FollowUpUserPoints, TargetID: "user-1", Delta: 5})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)

	close(svc.gate)
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingService{}, zerolog.Nop())
	first := d.shardIndex("65f1c0ffee")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.shardIndex("65f1c0ffee"))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 8)
}
