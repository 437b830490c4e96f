package community

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/models"
)

type fakeTwitter struct {
	configured bool
	verifyErr  error
	results    map[string][]models.SocialPost
	failing    map[string]bool

	mu      sync.Mutex
	queries []string
}

func (f *fakeTwitter) Configured() bool { return f.configured }

func (f *fakeTwitter) Verify(context.Context) error { return f.verifyErr }

func (f *fakeTwitter) SearchRecent(_ context.Context, query string, maxResults int) ([]models.SocialPost, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if maxResults != ResultsPerQuery {
		return nil, fmt.Errorf("unexpected max results %d", maxResults)
	}
	if f.failing[query] {
		return nil, errors.New("rate limited")
	}
	return f.results[query], nil
}

func post(id string, age time.Duration, likes int) models.SocialPost {
	return models.SocialPost{
		ID:         id,
		Text:       "post " + id,
		Author:     models.Author{ID: "a", Handle: "someone"},
		CreatedAt:  fixedNow.Add(-age),
		Engagement: models.Engagement{Likes: likes},
	}
}

func newTestPostFeed(src PostSource) *PostFeed {
	f := NewPostFeed(src, nil, zap.NewNop())
	f.now = func() time.Time { return fixedNow }
	return f
}

func TestPostFeed_InitializeWithoutCredentials(t *testing.T) {
	f := newTestPostFeed(&fakeTwitter{})
	f.Initialize(context.Background())

	assert.True(t, f.IsReady())
	assert.False(t, f.Live())
	posts := f.ListPosts(0)
	require.Len(t, posts, 4)
	assert.Equal(t, "1", posts[0].ID)
}

func TestPostFeed_InitializeAuthFailure(t *testing.T) {
	src := &fakeTwitter{configured: true, verifyErr: errors.New("401")}
	f := newTestPostFeed(src)
	f.Initialize(context.Background())

	assert.True(t, f.IsReady())
	assert.Len(t, f.ListPosts(0), 4)
	assert.Empty(t, src.queries)
}

func TestPostFeed_RefreshPartialFailure(t *testing.T) {
	src := &fakeTwitter{
		configured: true,
		results: map[string][]models.SocialPost{
			"@MawariNetwork":              {post("p1", time.Hour, 5), post("p2", 3*time.Hour, 1)},
			"#MawariNetwork":              {post("p2", 3*time.Hour, 9), post("p3", 2*time.Hour, 2)},
			"Mawari Network XR streaming": {post("p4", 30*time.Minute, 0)},
		},
		failing: map[string]bool{"Mawari DePIN infrastructure": true},
	}
	f := newTestPostFeed(src)
	f.Initialize(context.Background())

	require.True(t, f.Live())
	assert.Len(t, src.queries, len(SearchQueries))

	posts := f.ListPosts(0)
	require.Len(t, posts, 4)
	assert.Equal(t, []string{"p4", "p1", "p3", "p2"}, []string{posts[0].ID, posts[1].ID, posts[2].ID, posts[3].ID})
}

func TestPostFeed_RefreshAllFail(t *testing.T) {
	failing := map[string]bool{}
	for _, q := range SearchQueries {
		failing[q] = true
	}
	f := newTestPostFeed(&fakeTwitter{configured: true, failing: failing})
	f.Initialize(context.Background())

	assert.Error(t, f.Refresh(context.Background()))
	assert.True(t, f.IsReady())
	assert.Empty(t, f.ListPosts(0))
}

func TestPostFeed_MergeKeepsNewest(t *testing.T) {
	f := newTestPostFeed(nil)

	batch := make([]models.SocialPost, 0, 120)
	for i := 0; i < 120; i++ {
		batch = append(batch, post(fmt.Sprintf("p%03d", i), time.Duration(i)*time.Minute, i))
	}
	f.MergePosts(batch)
	f.MergePosts(batch)

	posts := f.ListPosts(0)
	require.Len(t, posts, MaxPosts)
	assert.Equal(t, "p000", posts[0].ID)
	assert.Equal(t, "p099", posts[MaxPosts-1].ID)
}

func TestPostFeed_Accessors(t *testing.T) {
	f := newTestPostFeed(nil)
	f.Initialize(context.Background())

	assert.Len(t, f.PostsByHashtag("#mawarinetwork"), 3)
	assert.Len(t, f.PostsByHashtag("DePIN"), 1)
	assert.Len(t, f.PostsByAuthor("@mawarinetwork"), 4)
	assert.Empty(t, f.PostsByAuthor("nobody"))
	assert.Len(t, f.SearchPosts("sub-10ms"), 1)

	top := f.TopPosts(2)
	require.Len(t, top, 2)
	assert.Equal(t, "1", top[0].ID)
	assert.Equal(t, "4", top[1].ID)
}

func TestPostFeed_EngagementSummary(t *testing.T) {
	f := newTestPostFeed(nil)
	f.Initialize(context.Background())

	s := f.EngagementSummary()
	assert.Equal(t, models.EngagementSummary{
		TotalPosts:        4,
		TotalLikes:        821,
		TotalReposts:      218,
		TotalReplies:      224,
		TotalViews:        70000,
		AverageEngagement: 316,
	}, s)

	empty := newTestPostFeed(nil).EngagementSummary()
	assert.Equal(t, 0, empty.AverageEngagement)
}
