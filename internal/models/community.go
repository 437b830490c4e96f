package models

import "time"

type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventLive      EventStatus = "live"
	EventCompleted EventStatus = "completed"
)

type EventCategory string

const (
	CategoryAMA          EventCategory = "ama"
	CategoryTechTalk     EventCategory = "tech_talk"
	CategoryCommunity    EventCategory = "community"
	CategoryAnnouncement EventCategory = "announcement"
	CategoryOther        EventCategory = "other"
)

// ParseEventCategory maps free text to a category, returning false for unknown values
func ParseEventCategory(s string) (EventCategory, bool) {
	switch c := EventCategory(s); c {
	case CategoryAMA, CategoryTechTalk, CategoryCommunity, CategoryAnnouncement, CategoryOther:
		return c, true
	}
	return "", false
}

// CommunityEvent is a scheduled community happening. Status is only ever
// populated on copies handed out by readers.
type CommunityEvent struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       *time.Time    `json:"end_time,omitempty"`
	Location      string        `json:"location,omitempty"`
	AttendeeCount *int          `json:"attendee_count,omitempty"`
	Status        EventStatus   `json:"status,omitempty"`
	Category      EventCategory `json:"category"`
}

// Announcement is a post pulled from a community broadcast channel
type Announcement struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Author    string     `json:"author"`
	Timestamp time.Time  `json:"timestamp"`
	Channel   string     `json:"channel"`
	Embeds    []Embed    `json:"embeds,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
}

type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

type MediaKind string

const (
	MediaPhoto         MediaKind = "photo"
	MediaVideo         MediaKind = "video"
	MediaAnimatedImage MediaKind = "animated_gif"
)

type Author struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type Engagement struct {
	Likes   int  `json:"likes"`
	Reposts int  `json:"reposts"`
	Replies int  `json:"replies"`
	Views   *int `json:"views,omitempty"`
}

// Total is likes + reposts + replies; views are not engagement
func (e Engagement) Total() int {
	return e.Likes + e.Reposts + e.Replies
}

type Media struct {
	Kind            MediaKind `json:"kind"`
	URL             string    `json:"url"`
	PreviewImageURL string    `json:"preview_image_url,omitempty"`
}

type Link struct {
	DisplayURL  string `json:"display_url"`
	ExpandedURL string `json:"expanded_url"`
}

// SocialPost is a tweet-like public post
type SocialPost struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Author     Author     `json:"author"`
	CreatedAt  time.Time  `json:"created_at"`
	Engagement Engagement `json:"engagement"`
	Media      []Media    `json:"media,omitempty"`
	Links      []Link     `json:"links,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Mentions   []string   `json:"mentions,omitempty"`
}

type EngagementSummary struct {
	TotalPosts        int `json:"total_posts"`
	TotalLikes        int `json:"total_likes"`
	TotalReposts      int `json:"total_reposts"`
	TotalReplies      int `json:"total_replies"`
	TotalViews        int `json:"total_views"`
	AverageEngagement int `json:"average_engagement"`
}
