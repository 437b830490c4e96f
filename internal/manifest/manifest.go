package manifest

import (
	"strings"
)

const DefaultBaseURL = "http://localhost:3000"

// Association signs the app domain for the host platform
type Association struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

var (
	appTags = []string{
		"immersive-compute",
		"real-time-streaming",
		"AI",
		"Mawari",
		"next-gen-experiences",
		"XR",
		"metaverse",
		"AR",
		"VR",
	}
	categories   = []string{"social", "entertainment", "productivity"}
	capabilities = []string{"write", "read"}
)

const (
	appName        = "Mawari Agent"
	subtitle       = "Your Gateway to the Immersive Internet"
	miniDesc       = "Experience real-time, AI-driven immersive content powered by the Mawari Network. Step into the future of immersive computing with real-time AI-powered XR streaming."
	platformDesc   = "Your Gateway to the Immersive Internet - Experience real-time, AI-driven immersive content powered by the Mawari Network."
	tagline        = "Immersive AI experiences streamed instantly"
	ogTitle        = "Mawari Agent - AI-Powered Immersive Internet"
	ogDescription  = "Experience the future of immersive computing with real-time AI-driven XR streaming powered by Mawari Network."
	blackColor     = "#000000"
	themeColor     = "#fb73ea"
	iconPath       = "/blue-icon.png"
	heroPath       = "/blue-hero.jpg"
	screenshotPath = "/screenshot-portrait.png"
)

func normalize(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return DefaultBaseURL
	}
	return baseURL
}

// Miniapp is the generic miniapp manifest
func Miniapp(baseURL string) map[string]any {
	root := normalize(baseURL)
	return WithValidProperties(map[string]any{
		"version":               "1",
		"name":                  appName,
		"subtitle":              subtitle,
		"description":           miniDesc,
		"screenshotUrls":        []string{root + screenshotPath},
		"iconUrl":               root + iconPath,
		"splashImageUrl":        root + heroPath,
		"splashBackgroundColor": blackColor,
		"homeUrl":               root,
		"webhookUrl":            root + "/api/webhook",
		"primaryCategory":       "social",
		"tags":                  appTags,
		"heroImageUrl":          root + heroPath,
		"tagline":               tagline,
		"ogTitle":               ogTitle,
		"ogDescription":         ogDescription,
		"ogImageUrl":            root + heroPath,
	})
}

// Platform is the platform-specific manifest served by /api/manifest and /api/base-manifest
func Platform(baseURL string) map[string]any {
	root := normalize(baseURL)
	return WithValidProperties(map[string]any{
		"name":            appName,
		"description":     platformDesc,
		"iconUrl":         root + iconPath,
		"imageUrl":        root + heroPath,
		"heroImageUrl":    root + heroPath,
		"splashImageUrl":  root + heroPath,
		"splashScreenUrl": root + heroPath,
		"homeUrl":         root + "/",
		"webhookUrl":      root + "/api/webhook",
		"categories":      categories,
		"primaryCategory": "social",
		"tags":            appTags,
		"capabilities":    capabilities,
		"version":         "1.0.0",
		"developer": map[string]any{
			"name": "Mawari Network",
			"url":  "https://mawari.net",
		},
		"support": map[string]any{
			"email": "support@mawari.net",
			"url":   "https://discord.gg/mawari",
		},
		"screenshots":     []string{root + screenshotPath},
		"backgroundColor": blackColor,
		"themeColor":      themeColor,
		"platform":        "base",
		"type":            "miniapp",
		"ogTitle":         ogTitle,
		"ogDescription":   ogDescription,
		"ogImageUrl":      root + heroPath,
	})
}

// AccountAssociation is the minimal document served by /api/farcaster
func AccountAssociation(a Association) map[string]any {
	return map[string]any{"accountAssociation": a}
}

// Farcaster is the combined /.well-known/farcaster.json document
func Farcaster(baseURL string, a Association) map[string]any {
	return map[string]any{
		"accountAssociation": a,
		"miniapp":            Miniapp(baseURL),
	}
}
