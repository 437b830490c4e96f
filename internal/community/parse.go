package community

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xaenox/mawari-agent/internal/discord"
	"github.com/xaenox/mawari-agent/internal/models"
)

const (
	untitled      = "Untitled Announcement"
	maxTitleRunes = 100
	liveWindow    = 2 * time.Hour
)

var (
	dateRe = regexp.MustCompile(`(?i)(\d{1,2}/\d{1,2}/\d{4}|\d{4}-\d{2}-\d{2}|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]* \d{1,2},? \d{4})`)
	timeRe = regexp.MustCompile(`(?i)(?:^|\D)(\d{1,2}):(\d{2})\s*(am|pm)?`)
)

type categoryRule struct {
	triggers []string
	category models.EventCategory
}

// checked in order, first hit wins
var categoryRules = []categoryRule{
	{[]string{"ama", "ask me anything"}, models.CategoryAMA},
	{[]string{"tech talk", "technical"}, models.CategoryTechTalk},
	{[]string{"community", "social"}, models.CategoryCommunity},
	{[]string{"announcement", "update"}, models.CategoryAnnouncement},
}

// InferCategory maps free text to an event category by keyword
func InferCategory(text string) models.EventCategory {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				return rule.category
			}
		}
	}
	return models.CategoryOther
}

// DeriveStatus is a pure function of the event times and now.
// Without an end time an event counts as live for two hours after it starts.
func DeriveStatus(ev models.CommunityEvent, now time.Time) models.EventStatus {
	if ev.StartTime.After(now) {
		return models.EventScheduled
	}
	if ev.EndTime != nil {
		if now.Before(*ev.EndTime) {
			return models.EventLive
		}
		return models.EventCompleted
	}
	if ev.StartTime.After(now.Add(-liveWindow)) {
		return models.EventLive
	}
	return models.EventCompleted
}

// ExtractTitle prefers the first embed title, then the first content line
func ExtractTitle(content string, embeds []discord.Embed) string {
	if len(embeds) > 0 && embeds[0].Title != "" {
		return embeds[0].Title
	}
	first, _, _ := strings.Cut(content, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return untitled
	}
	if r := []rune(first); len(r) > maxTitleRunes {
		first = string(r[:maxTitleRunes])
	}
	return first
}

// ExtractStartTime finds a date (and optional time of day) in free text.
// Parsed times are UTC. When no date is recognised, fallback is returned.
func ExtractStartTime(content string, fallback time.Time) time.Time {
	match := dateRe.FindString(content)
	if match == "" {
		return fallback
	}
	date, ok := parseDate(match)
	if !ok {
		return fallback
	}

	if tm := timeRe.FindStringSubmatch(content); tm != nil {
		hour, _ := strconv.Atoi(tm[1])
		minute, _ := strconv.Atoi(tm[2])
		switch strings.ToLower(tm[3]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour < 24 && minute < 60 {
			date = date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
		}
	}
	return date
}

func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse("1/2/2006", s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}

	// "March 14, 2025" / "mar 14 2025"
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != 3 || len(fields[0]) < 3 {
		return time.Time{}, false
	}
	month := strings.ToUpper(fields[0][:1]) + strings.ToLower(fields[0][1:3])
	t, err := time.Parse("Jan 2 2006", month+" "+fields[1]+" "+fields[2])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseEvent turns an events channel message into a community event
func ParseEvent(msg discord.Message) models.CommunityEvent {
	title := ExtractTitle(msg.Content, msg.Embeds)
	description := msg.Content
	if len(msg.Embeds) > 0 && msg.Embeds[0].Description != "" {
		description = msg.Embeds[0].Description
	}

	return models.CommunityEvent{
		ID:          msg.ID,
		Title:       title,
		Description: description,
		StartTime:   ExtractStartTime(msg.Content, msg.Timestamp.UTC()),
		Category:    InferCategory(msg.Content),
	}
}

// ParseAnnouncement turns a broadcast channel message into an announcement
func ParseAnnouncement(msg discord.Message, channel string) models.Announcement {
	author := "Unknown"
	if msg.Author != nil && msg.Author.Username != "" {
		author = msg.Author.Username
	}

	a := models.Announcement{
		ID:        msg.ID,
		Title:     ExtractTitle(msg.Content, msg.Embeds),
		Content:   msg.Content,
		Author:    author,
		Timestamp: msg.Timestamp.UTC(),
		Channel:   channel,
	}
	for _, e := range msg.Embeds {
		embed := models.Embed{Title: e.Title, Description: e.Description, URL: e.URL}
		if e.Image != nil {
			embed.ImageURL = e.Image.URL
		} else if e.Thumbnail != nil {
			embed.ImageURL = e.Thumbnail.URL
		}
		a.Embeds = append(a.Embeds, embed)
	}
	for _, r := range msg.Reactions {
		a.Reactions = append(a.Reactions, models.Reaction{Emoji: r.Emoji.Name, Count: r.Count})
	}
	return a
}
