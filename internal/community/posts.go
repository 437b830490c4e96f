package community

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xaenox/mawari-agent/internal/metrics"
	"github.com/xaenox/mawari-agent/internal/models"
)

const (
	ResultsPerQuery = 20
	MaxPosts        = 100
)

var SearchQueries = []string{
	"@MawariNetwork",
	"@MawariNetwork -is:retweet",
	"#MawariNetwork",
	"#MawariNetwork -is:retweet",
	"Mawari Network XR streaming",
	"Mawari DePIN infrastructure",
	"Mawari immersive internet",
}

// PostSource is the subset of the Twitter client the posts feed needs
type PostSource interface {
	Configured() bool
	Verify(ctx context.Context) error
	SearchRecent(ctx context.Context, query string, maxResults int) ([]models.SocialPost, error)
}

// PostFeed keeps the newest social posts about the project in memory
type PostFeed struct {
	source  PostSource
	queries []string
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	initMu sync.Mutex

	mu    sync.RWMutex
	posts []models.SocialPost
	ready bool
	live  bool
}

func NewPostFeed(source PostSource, m *metrics.Metrics, logger *zap.Logger) *PostFeed {
	return &PostFeed{
		source:  source,
		queries: SearchQueries,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Initialize verifies the source once and falls back to the seed set on any failure
func (f *PostFeed) Initialize(ctx context.Context) {
	f.initMu.Lock()
	defer f.initMu.Unlock()
	if f.IsReady() {
		return
	}

	if f.source == nil || !f.source.Configured() {
		f.logger.Warn("Twitter credentials not provided, using seed data")
		f.loadSeed()
		return
	}
	if err := f.source.Verify(ctx); err != nil {
		f.logger.Error("Twitter verification failed, using seed data", zap.Error(err))
		f.loadSeed()
		return
	}

	f.mu.Lock()
	f.live = true
	f.ready = true
	f.mu.Unlock()

	if err := f.Refresh(ctx); err != nil {
		f.logger.Error("Initial posts refresh failed", zap.Error(err))
	}
	f.logger.Info("Twitter feed initialized")
}

func (f *PostFeed) loadSeed() {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = seedPosts(now)
	f.ready = true
}

func (f *PostFeed) IsReady() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ready
}

func (f *PostFeed) Live() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.live
}

// Refresh runs every search query concurrently. Failed queries are logged
// and the remaining results are still merged.
func (f *PostFeed) Refresh(ctx context.Context) error {
	if !f.Live() {
		return nil
	}

	results := make([][]models.SocialPost, len(f.queries))
	errs := make([]error, len(f.queries))

	var g errgroup.Group
	for i, query := range f.queries {
		g.Go(func() error {
			posts, err := f.source.SearchRecent(ctx, query, ResultsPerQuery)
			if err != nil {
				f.logger.Warn("Post search failed", zap.String("query", query), zap.Error(err))
				errs[i] = err
				return nil
			}
			results[i] = posts
			return nil
		})
	}
	_ = g.Wait()

	var batch []models.SocialPost
	for _, r := range results {
		batch = append(batch, r...)
	}
	f.MergePosts(batch)

	size := f.count()
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(f.queries) {
		f.metrics.ObserveRefresh("posts", "error", size)
		return fmt.Errorf("refresh posts: %w", errors.Join(errs...))
	}
	f.metrics.ObserveRefresh("posts", "success", size)
	return nil
}

// MergePosts merges a batch by id, newest first, keeping at most MaxPosts
func (f *PostFeed) MergePosts(batch []models.SocialPost) {
	f.mu.Lock()
	defer f.mu.Unlock()

	merged := mergeByID(f.posts, batch, func(p models.SocialPost) string { return p.ID })
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if len(merged) > MaxPosts {
		merged = merged[:MaxPosts]
	}
	f.posts = merged
}

func (f *PostFeed) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.posts)
}

func (f *PostFeed) filter(keep func(models.SocialPost) bool) []models.SocialPost {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []models.SocialPost
	for _, p := range f.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// ListPosts returns posts newest first. limit <= 0 means all.
func (f *PostFeed) ListPosts(limit int) []models.SocialPost {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.posts)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.SocialPost, n)
	copy(out, f.posts[:n])
	return out
}

func (f *PostFeed) PostsByHashtag(tag string) []models.SocialPost {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	return f.filter(func(p models.SocialPost) bool {
		for _, t := range p.Tags {
			if strings.ToLower(t) == tag {
				return true
			}
		}
		return false
	})
}

func (f *PostFeed) PostsByAuthor(handle string) []models.SocialPost {
	handle = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	return f.filter(func(p models.SocialPost) bool {
		return strings.ToLower(p.Author.Handle) == handle
	})
}

func (f *PostFeed) SearchPosts(query string) []models.SocialPost {
	q := strings.ToLower(query)
	return f.filter(func(p models.SocialPost) bool {
		return strings.Contains(strings.ToLower(p.Text), q)
	})
}

// TopPosts orders by likes + reposts + replies
func (f *PostFeed) TopPosts(limit int) []models.SocialPost {
	posts := f.ListPosts(0)
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Engagement.Total() > posts[j].Engagement.Total()
	})
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts
}

// EngagementSummary reduces over the current set of posts
func (f *PostFeed) EngagementSummary() models.EngagementSummary {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var s models.EngagementSummary
	s.TotalPosts = len(f.posts)
	for _, p := range f.posts {
		s.TotalLikes += p.Engagement.Likes
		s.TotalReposts += p.Engagement.Reposts
		s.TotalReplies += p.Engagement.Replies
		if p.Engagement.Views != nil {
			s.TotalViews += *p.Engagement.Views
		}
	}
	if s.TotalPosts > 0 {
		total := s.TotalLikes + s.TotalReposts + s.TotalReplies
		s.AverageEngagement = int(math.Round(float64(total) / float64(s.TotalPosts)))
	}
	return s
}
