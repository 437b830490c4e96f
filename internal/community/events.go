package community

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/discord"
	"github.com/xaenox/mawari-agent/internal/metrics"
	"github.com/xaenox/mawari-agent/internal/models"
)

const (
	EventsChannel    = "events"
	MessagesPerFetch = 50
	EventRetention   = 7 * 24 * time.Hour
	MaxAnnouncements = 100
)

// AnnouncementChannels are scraped in this order
var AnnouncementChannels = []string{"announcements", "updates", "general"}

// EventSource is the subset of the Discord client the events feed needs
type EventSource interface {
	Configured() bool
	CurrentUser(ctx context.Context) (*discord.User, error)
	ChannelMessagesByName(ctx context.Context, name string, limit int) ([]discord.Message, error)
}

// EventFeed keeps community events and announcements in memory
type EventFeed struct {
	source  EventSource
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	initMu sync.Mutex

	mu            sync.RWMutex
	events        []models.CommunityEvent
	announcements []models.Announcement
	ready         bool
	live          bool
}

// NewEventFeed builds a feed. A nil source always serves the seed data.
func NewEventFeed(source EventSource, m *metrics.Metrics, logger *zap.Logger) *EventFeed {
	return &EventFeed{
		source:  source,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Initialize verifies the source once. Any failure loads the seed set.
// The feed is ready afterwards either way; later calls are no-ops.
func (f *EventFeed) Initialize(ctx context.Context) {
	f.initMu.Lock()
	defer f.initMu.Unlock()
	if f.IsReady() {
		return
	}

	if f.source == nil || !f.source.Configured() {
		f.logger.Warn("Discord credentials not provided, using seed data")
		f.loadSeed()
		return
	}

	if _, err := f.source.CurrentUser(ctx); err != nil {
		f.logger.Error("Discord verification failed, using seed data", zap.Error(err))
		f.loadSeed()
		return
	}

	f.mu.Lock()
	f.live = true
	f.ready = true
	f.mu.Unlock()

	if err := f.RefreshEvents(ctx); err != nil {
		f.logger.Error("Initial events refresh failed", zap.Error(err))
	}
	if err := f.RefreshAnnouncements(ctx); err != nil {
		f.logger.Error("Initial announcements refresh failed", zap.Error(err))
	}
	f.logger.Info("Discord feed initialized")
}

func (f *EventFeed) loadSeed() {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = seedEvents(now)
	f.announcements = seedAnnouncements(now)
	f.ready = true
}

func (f *EventFeed) IsReady() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ready
}

// Live reports whether the feed is backed by a reachable source
func (f *EventFeed) Live() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.live
}

// RefreshEvents re-reads the events channel and merges the parsed events
func (f *EventFeed) RefreshEvents(ctx context.Context) error {
	if !f.Live() {
		return nil
	}
	messages, err := f.source.ChannelMessagesByName(ctx, EventsChannel, MessagesPerFetch)
	if err != nil {
		f.metrics.ObserveRefresh("events", "error", f.eventCount())
		return fmt.Errorf("refresh events: %w", err)
	}

	batch := make([]models.CommunityEvent, 0, len(messages))
	for _, msg := range messages {
		batch = append(batch, ParseEvent(msg))
	}
	f.MergeEvents(batch)
	f.metrics.ObserveRefresh("events", "success", f.eventCount())
	return nil
}

// MergeEvents merges a batch by id, drops events older than the retention
// window and keeps the set ordered by start time.
func (f *EventFeed) MergeEvents(batch []models.CommunityEvent) {
	cutoff := f.now().Add(-EventRetention)

	f.mu.Lock()
	defer f.mu.Unlock()

	merged := mergeByID(f.events, batch, func(e models.CommunityEvent) string { return e.ID })
	kept := merged[:0]
	for _, ev := range merged {
		if ev.StartTime.After(cutoff) {
			ev.Status = ""
			kept = append(kept, ev)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].StartTime.Before(kept[j].StartTime)
	})
	f.events = kept
}

// RefreshAnnouncements scrapes every announcement channel. A failing
// channel is logged and skipped; the error is returned only if all failed.
func (f *EventFeed) RefreshAnnouncements(ctx context.Context) error {
	if !f.Live() {
		return nil
	}

	var batch []models.Announcement
	var errs []error
	for _, channel := range AnnouncementChannels {
		messages, err := f.source.ChannelMessagesByName(ctx, channel, MessagesPerFetch)
		if err != nil {
			f.logger.Warn("Failed to scrape announcements", zap.String("channel", channel), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		for _, msg := range messages {
			batch = append(batch, ParseAnnouncement(msg, channel))
		}
	}

	f.MergeAnnouncements(batch)
	size := f.announcementCount()
	if len(errs) == len(AnnouncementChannels) {
		f.metrics.ObserveRefresh("announcements", "error", size)
		return fmt.Errorf("refresh announcements: %w", errors.Join(errs...))
	}
	f.metrics.ObserveRefresh("announcements", "success", size)
	return nil
}

// MergeAnnouncements merges a batch by id and keeps the newest announcements
func (f *EventFeed) MergeAnnouncements(batch []models.Announcement) {
	f.mu.Lock()
	defer f.mu.Unlock()

	merged := mergeByID(f.announcements, batch, func(a models.Announcement) string { return a.ID })
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	if len(merged) > MaxAnnouncements {
		merged = merged[:MaxAnnouncements]
	}
	f.announcements = merged
}

func (f *EventFeed) eventCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.events)
}

func (f *EventFeed) announcementCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.announcements)
}

// selectEvents copies matching events with their status derived at call time
func (f *EventFeed) selectEvents(limit int, keep func(models.CommunityEvent, time.Time) bool) []models.CommunityEvent {
	now := f.now()
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]models.CommunityEvent, 0, len(f.events))
	for _, ev := range f.events {
		if keep != nil && !keep(ev, now) {
			continue
		}
		ev.Status = DeriveStatus(ev, now)
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// ListEvents returns events ordered by start time. limit <= 0 means all.
func (f *EventFeed) ListEvents(limit int) []models.CommunityEvent {
	return f.selectEvents(limit, nil)
}

func (f *EventFeed) UpcomingEvents(limit int) []models.CommunityEvent {
	return f.selectEvents(limit, func(ev models.CommunityEvent, now time.Time) bool {
		return ev.StartTime.After(now)
	})
}

func (f *EventFeed) EventsByCategory(category models.EventCategory) []models.CommunityEvent {
	return f.selectEvents(0, func(ev models.CommunityEvent, _ time.Time) bool {
		return ev.Category == category
	})
}

// ListAnnouncements returns the newest announcements first
func (f *EventFeed) ListAnnouncements(limit int) []models.Announcement {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.announcements)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Announcement, n)
	copy(out, f.announcements[:n])
	return out
}

// SearchAnnouncements matches the query against title and content, case-insensitively
func (f *EventFeed) SearchAnnouncements(query string) []models.Announcement {
	q := strings.ToLower(query)
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []models.Announcement
	for _, a := range f.announcements {
		if strings.Contains(strings.ToLower(a.Title), q) || strings.Contains(strings.ToLower(a.Content), q) {
			out = append(out, a)
		}
	}
	return out
}
