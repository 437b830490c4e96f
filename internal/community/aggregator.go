package community

import (
	"context"
	"errors"
	"time"
)

type Intervals struct {
	Events        time.Duration
	Announcements time.Duration
	Posts         time.Duration
}

var DefaultIntervals = Intervals{
	Events:        time.Hour,
	Announcements: 5 * time.Minute,
	Posts:         10 * time.Minute,
}

// Aggregator owns both community feeds and their refresh lifecycle
type Aggregator struct {
	Events *EventFeed
	Posts  *PostFeed
}

func NewAggregator(events *EventFeed, posts *PostFeed) *Aggregator {
	return &Aggregator{Events: events, Posts: posts}
}

// Initialize initializes both feeds; it never fails
func (a *Aggregator) Initialize(ctx context.Context) {
	a.Events.Initialize(ctx)
	a.Posts.Initialize(ctx)
}

func (a *Aggregator) IsReady() bool {
	return a.Events.IsReady() && a.Posts.IsReady()
}

// Refresh runs every refresh step once and joins their errors
func (a *Aggregator) Refresh(ctx context.Context) error {
	return errors.Join(
		a.Events.RefreshEvents(ctx),
		a.Events.RefreshAnnouncements(ctx),
		a.Posts.Refresh(ctx),
	)
}

// Jobs returns scheduler jobs for the feeds backed by a live source
func (a *Aggregator) Jobs(iv Intervals) []Job {
	var jobs []Job
	if a.Events.Live() {
		jobs = append(jobs,
			Job{Name: "events", Interval: iv.Events, Run: a.Events.RefreshEvents},
			Job{Name: "announcements", Interval: iv.Announcements, Run: a.Events.RefreshAnnouncements},
		)
	}
	if a.Posts.Live() {
		jobs = append(jobs, Job{Name: "posts", Interval: iv.Posts, Run: a.Posts.Refresh})
	}
	return jobs
}
