package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/models"
)

// limitQuery reads ?limit=, where absent means all
func limitQuery(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	return n, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && limit < len(items) {
		return items[:limit]
	}
	return items
}

func (h *handlers) events(c *gin.Context) {
	limit, err := limitQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	feed := h.Community.Events

	var events []models.CommunityEvent
	switch {
	case c.Query("category") != "":
		category, ok := models.ParseEventCategory(c.Query("category"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
		events = truncate(feed.EventsByCategory(category), limit)
	case c.Query("upcoming") == "true":
		events = feed.UpcomingEvents(limit)
	default:
		events = feed.ListEvents(limit)
	}

	c.JSON(http.StatusOK, gin.H{
		"events": nonNil(events),
		"count":  len(events),
		"live":   feed.Live(),
	})
}

func (h *handlers) announcements(c *gin.Context) {
	limit, err := limitQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	feed := h.Community.Events

	var items []models.Announcement
	if q := c.Query("q"); q != "" {
		items = truncate(feed.SearchAnnouncements(q), limit)
	} else {
		items = feed.ListAnnouncements(limit)
	}

	c.JSON(http.StatusOK, gin.H{
		"announcements": nonNil(items),
		"count":         len(items),
		"live":          feed.Live(),
	})
}

func (h *handlers) posts(c *gin.Context) {
	limit, err := limitQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	feed := h.Community.Posts

	var posts []models.SocialPost
	switch {
	case c.Query("hashtag") != "":
		posts = truncate(feed.PostsByHashtag(c.Query("hashtag")), limit)
	case c.Query("author") != "":
		posts = truncate(feed.PostsByAuthor(c.Query("author")), limit)
	case c.Query("q") != "":
		posts = truncate(feed.SearchPosts(c.Query("q")), limit)
	default:
		posts = feed.ListPosts(limit)
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": nonNil(posts),
		"count": len(posts),
		"live":  feed.Live(),
	})
}

func (h *handlers) topPosts(c *gin.Context) {
	limit, err := limitQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if limit == 0 {
		limit = 10
	}
	posts := h.Community.Posts.TopPosts(limit)
	c.JSON(http.StatusOK, gin.H{"posts": nonNil(posts), "count": len(posts)})
}

func (h *handlers) postStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Community.Posts.EngagementSummary())
}

// refreshCommunity reports partial failure in the body; the feeds keep serving what they had
func (h *handlers) refreshCommunity(c *gin.Context) {
	err := h.Community.Refresh(c.Request.Context())
	body := gin.H{
		"success":       err == nil,
		"events":        len(h.Community.Events.ListEvents(0)),
		"announcements": len(h.Community.Events.ListAnnouncements(0)),
		"posts":         len(h.Community.Posts.ListPosts(0)),
		"timestamp":     h.now().UTC().Format(timestampLayout),
	}
	if err != nil {
		h.Logger.Warn("Manual community refresh incomplete", zap.Error(err))
		body["error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (h *handlers) networkStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"current": h.Network.Latest(),
		"history": h.Network.Samples(),
	})
}
