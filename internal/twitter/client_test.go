package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mawari-agent/internal/models"
)

const searchBody = `{
  "data": [
    {
      "id": "t1",
      "text": "Mawari XR streaming #MawariNetwork @friend",
      "author_id": "u1",
      "created_at": "2025-03-01T12:00:00.000Z",
      "public_metrics": {"like_count": 10, "retweet_count": 2, "reply_count": 1, "impression_count": 500},
      "attachments": {"media_keys": ["3_1", "3_missing"]},
      "entities": {
        "urls": [{"display_url": "mawari.net", "expanded_url": "https://mawari.net"}],
        "hashtags": [{"tag": "MawariNetwork"}],
        "mentions": [{"username": "friend"}]
      }
    },
    {
      "id": "t2",
      "text": "no author in includes",
      "author_id": "u404",
      "created_at": "2025-03-01T11:00:00.000Z",
      "public_metrics": {"like_count": 1, "retweet_count": 0, "reply_count": 0}
    }
  ],
  "includes": {
    "users": [{"id": "u1", "username": "MawariNetwork", "name": "Mawari Network", "profile_image_url": "https://pbs/img.png"}],
    "media": [{"media_key": "3_1", "type": "photo", "url": "https://pbs/media.jpg"}]
  },
  "meta": {"result_count": 2}
}`

func TestClient_SearchRecent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "#MawariNetwork", r.URL.Query().Get("query"))
		assert.Equal(t, "20", r.URL.Query().Get("max_results"))
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BearerToken: "tok"})
	posts, err := c.SearchRecent(context.Background(), "#MawariNetwork", 20)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	p := posts[0]
	assert.Equal(t, "t1", p.ID)
	assert.Equal(t, "MawariNetwork", p.Author.Handle)
	assert.Equal(t, "Mawari Network", p.Author.DisplayName)
	assert.Equal(t, 13, p.Engagement.Total())
	require.NotNil(t, p.Engagement.Views)
	assert.Equal(t, 500, *p.Engagement.Views)
	require.Len(t, p.Media, 1)
	assert.Equal(t, models.MediaPhoto, p.Media[0].Kind)
	assert.Equal(t, []models.Link{{DisplayURL: "mawari.net", ExpandedURL: "https://mawari.net"}}, p.Links)
	assert.Equal(t, []string{"MawariNetwork"}, p.Tags)
	assert.Equal(t, []string{"friend"}, p.Mentions)

	assert.Equal(t, "unknown", posts[1].Author.Handle)
	assert.Nil(t, posts[1].Engagement.Views)
}

func TestClient_BearerExchange(t *testing.T) {
	var exchanges int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			atomic.AddInt32(&exchanges, 1)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "key", user)
			assert.Equal(t, "secret", pass)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token_type": "bearer", "access_token": "exchanged"}`))
		case "/2/users/me":
			assert.Equal(t, "Bearer exchanged", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"data": {"id": "1", "username": "mawari"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key", APISecret: "secret"})
	require.True(t, c.Configured())
	require.NoError(t, c.Verify(context.Background()))
	require.NoError(t, c.Verify(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&exchanges))
}

func TestClient_Errors(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		c := NewClient(Config{})
		assert.False(t, c.Configured())
		assert.ErrorIs(t, c.Verify(context.Background()), ErrNoCredentials)
	})

	t.Run("exchange rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors": [{"code": 99, "message": "Unable to verify your credentials"}]}`))
		}))
		defer srv.Close()

		_, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key", APISecret: "bad"}).SearchRecent(context.Background(), "x", 20)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.Status)
		assert.Contains(t, apiErr.Body, "Unable to verify")
	})

	t.Run("auth rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"title": "Unauthorized"}`))
		}))
		defer srv.Close()

		err := NewClient(Config{BaseURL: srv.URL, BearerToken: "bad"}).Verify(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	})

	t.Run("errors array", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"errors": [{"title": "Invalid Request", "detail": "bad query"}]}`))
		}))
		defer srv.Close()

		_, err := NewClient(Config{BaseURL: srv.URL, BearerToken: "tok"}).SearchRecent(context.Background(), "x", 20)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Contains(t, apiErr.Body, "bad query")
	})

	t.Run("malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := NewClient(Config{BaseURL: srv.URL, BearerToken: "tok"}).SearchRecent(context.Background(), "x", 20)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}
