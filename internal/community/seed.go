package community

import (
	"time"

	"github.com/xaenox/mawari-agent/internal/models"
)

func intPtr(v int) *int { return &v }

func seedAnnouncements(now time.Time) []models.Announcement {
	return []models.Announcement{
		{
			ID:        "1",
			Title:     "Mawari Network v2.0 Released",
			Content:   "We are excited to announce the release of Mawari Network v2.0 with improved performance and new features!",
			Author:    "Mawari Team",
			Timestamp: now.Add(-2 * time.Hour),
			Channel:   "announcements",
		},
		{
			ID:        "2",
			Title:     "Node Operator Program Update",
			Content:   "New incentives for node operators are now available. Learn more about our updated rewards program.",
			Author:    "Mawari Team",
			Timestamp: now.Add(-24 * time.Hour),
			Channel:   "announcements",
		},
		{
			ID:        "3",
			Title:     "Community AMA - This Friday",
			Content:   "Join us for a community Ask Me Anything session this Friday at 3 PM UTC. We'll be discussing the future of immersive internet!",
			Author:    "Community Manager",
			Timestamp: now.Add(-72 * time.Hour),
			Channel:   "announcements",
		},
	}
}

func seedEvents(now time.Time) []models.CommunityEvent {
	day := 24 * time.Hour
	return []models.CommunityEvent{
		{
			ID:          "1",
			Title:       "Community AMA Session",
			Description: "Join the Mawari team for an interactive Q&A session about our network and future plans.",
			StartTime:   now.Add(2 * day),
			Category:    models.CategoryAMA,
		},
		{
			ID:          "2",
			Title:       "Tech Talk: DePIN Infrastructure",
			Description: "Deep dive into Mawari's Decentralized Physical Infrastructure Network architecture.",
			StartTime:   now.Add(5 * day),
			Category:    models.CategoryTechTalk,
		},
		{
			ID:          "3",
			Title:       "Community Node Workshop",
			Description: "Learn how to set up and operate a Mawari node in this hands-on workshop.",
			StartTime:   now.Add(7 * day),
			Category:    models.CategoryCommunity,
		},
	}
}

func seedPosts(now time.Time) []models.SocialPost {
	mawari := models.Author{ID: "1", Handle: "MawariNetwork", DisplayName: "Mawari Network"}
	withAvatar := mawari
	withAvatar.AvatarURL = "https://pbs.twimg.com/profile_images/1234567890/mawari_logo_400x400.png"

	return []models.SocialPost{
		{
			ID:         "1",
			Text:       "🚀 Excited to announce Mawari Network v2.0! Now with 80% bandwidth reduction and 99.9% uptime for XR streaming. The future of immersive internet is here! #MawariNetwork #XR #Web3",
			Author:     withAvatar,
			CreatedAt:  now.Add(-2 * time.Hour),
			Engagement: models.Engagement{Likes: 342, Reposts: 89, Replies: 45, Views: intPtr(25000)},
			Tags:       []string{"MawariNetwork", "XR", "Web3"},
		},
		{
			ID:         "2",
			Text:       "Our DePIN infrastructure is revolutionizing how immersive content is delivered globally. With nodes positioned close to users, we achieve sub-10ms latency for real-time experiences. 🌐⚡\n\nLearn more: mawari.net",
			Author:     mawari,
			CreatedAt:  now.Add(-6 * time.Hour),
			Engagement: models.Engagement{Likes: 156, Reposts: 42, Replies: 23, Views: intPtr(15000)},
			Links:      []models.Link{{DisplayURL: "mawari.net", ExpandedURL: "https://mawari.net"}},
		},
		{
			ID:         "3",
			Text:       "Join our Community AMA this Friday! 🗓️\n\n📅 Date: November 10th\n⏰ Time: 3 PM UTC\n🎯 Topic: Future of Immersive Internet\n\nBring your questions about DePIN, XR streaming, and our node operator program! #MawariNetwork #AMA #Web3",
			Author:     mawari,
			CreatedAt:  now.Add(-24 * time.Hour),
			Engagement: models.Engagement{Likes: 89, Reposts: 31, Replies: 67, Views: intPtr(12000)},
			Tags:       []string{"MawariNetwork", "AMA", "Web3"},
		},
		{
			ID:         "4",
			Text:       "Running a Mawari node not only supports the immersive internet but also rewards you in $MAWARI tokens. 🪙\n\nJoin our decentralized network and be part of the future!\n\n#NodeOperator #DePIN #Crypto #MawariNetwork",
			Author:     mawari,
			CreatedAt:  now.Add(-48 * time.Hour),
			Engagement: models.Engagement{Likes: 234, Reposts: 56, Replies: 89, Views: intPtr(18000)},
			Tags:       []string{"NodeOperator", "DePIN", "Crypto", "MawariNetwork"},
		},
	}
}
