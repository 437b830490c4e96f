package community

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestScheduler_RunsJobsUntilStopped(t *testing.T) {
	var ok, failing int32
	s := NewScheduler(zap.NewNop(),
		Job{Name: "ok", Interval: 10 * time.Millisecond, Run: func(context.Context) error {
			atomic.AddInt32(&ok, 1)
			return nil
		}},
		Job{Name: "failing", Interval: 10 * time.Millisecond, Run: func(context.Context) error {
			atomic.AddInt32(&failing, 1)
			return errors.New("boom")
		}},
	)

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ok) >= 2 && atomic.LoadInt32(&failing) >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())

	after := atomic.LoadInt32(&ok)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&ok))

	s.Stop()
}

func TestScheduler_StopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs int32
	s := NewScheduler(zap.NewNop(), Job{Name: "j", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}})
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestAggregator_JobsOnlyForLiveFeeds(t *testing.T) {
	events := newTestEventFeed(nil)
	posts := newTestPostFeed(&fakeTwitter{configured: true})
	agg := NewAggregator(events, posts)

	agg.Initialize(context.Background())
	assert.True(t, agg.IsReady())

	jobs := agg.Jobs(DefaultIntervals)
	if assert.Len(t, jobs, 1) {
		assert.Equal(t, "posts", jobs[0].Name)
		assert.Equal(t, 10*time.Minute, jobs[0].Interval)
	}

	assert.NoError(t, agg.Refresh(context.Background()))
}
