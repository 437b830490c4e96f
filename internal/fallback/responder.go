package fallback

import (
	"strings"
)

// Answerer produces a canned answer for a query without touching the network
type Answerer interface {
	Answer(query string) string
}

type rule struct {
	triggers []string
	response string
}

// Responder matches lower-cased queries against an ordered trigger table
type Responder struct {
	rules   []rule
	closing string
}

func NewResponder() *Responder {
	return &Responder{
		rules:   defaultRules,
		closing: defaultClosing,
	}
}

// Answer returns the response of the first rule with a trigger contained in the query
func (r *Responder) Answer(query string) string {
	q := strings.ToLower(query)
	for _, rl := range r.rules {
		for _, trigger := range rl.triggers {
			if strings.Contains(q, trigger) {
				return rl.response
			}
		}
	}
	return r.closing
}

const defaultClosing = "I'm experiencing connectivity issues with my AI services right now. However, Mawari Network is revolutionizing the immersive internet through decentralized infrastructure, delivering embodied AI experiences with 80% bandwidth reduction, 99.9% uptime, and sub-10ms latency through 50+ global nodes. For the most current information, please visit mawari.net."

// Order matters: "performance" is claimed by the bandwidth rule before the latency rule.
var defaultRules = []rule{
	{
		triggers: []string{"what is mawari", "overview", "about mawari"},
		response: "Mawari Network (founded 2019) is a revolutionary platform that delivers embodied AI through a global network of distributed nodes, enabling real-time streaming of immersive, AI-powered experiences with near-zero latency. The company has raised over $30M in funding and partners with major tech companies to power the 3D internet through DePIN architecture.",
	},
	{
		triggers: []string{"depin", "decentralized"},
		response: "Mawari uses DePIN (Decentralized Physical Infrastructure Networks) principles to build its AI and XR-native delivery platform. This approach leverages distributed physical infrastructure globally, allowing for ultra-low latency processing and bandwidth optimization of up to 80% reduction compared to traditional streaming methods.",
	},
	{
		triggers: []string{"node"},
		response: "Mawari's global node network consists of 50+ distributed nodes worldwide positioned for ultra-low latency (sub-10ms in optimized regions). These nodes handle GPU-intensive tasks at the network edge, processing compute-intensive tasks locally while maintaining 99.9% network uptime for XR content streaming.",
	},
	{
		triggers: []string{"bandwidth", "performance"},
		response: "Mawari achieves 80% bandwidth reduction through patented AI-powered compression technology and intelligent content optimization. The platform maintains 99.9% network uptime with near-zero latency processing, enabling real-time 3D content rendering and XR streaming at scale.",
	},
	{
		triggers: []string{"technology", "tech stack", "architecture"},
		response: "Mawari's core technology stack includes: XR Streaming Protocol (proprietary), AI-Powered Compression, Edge Computing Architecture, Blockchain Integration for Web3 compatibility, and 5G Network Optimization. The platform is specifically optimized for AI-powered 3D experiences and XR content delivery.",
	},
	{
		triggers: []string{"use case", "application", "what can it do"},
		response: "Mawari's key use cases include: Metaverse Platforms (real-time virtual world streaming), AR/VR Applications, AI-Powered Gaming with intelligent NPCs, Live Events (virtual concerts, sports), Education & Training, Digital Twins for real-time 3D modeling, and Telemedicine for remote healthcare visualization.",
	},
	{
		triggers: []string{"business", "revenue", "model"},
		response: "Mawari operates on a B2B SaaS model, offering Platform as a Service for enterprises. They provide content creator tools for immersive content development, maintain infrastructure partnerships with cloud providers, and foster a developer ecosystem through APIs and SDKs for third-party integration.",
	},
	{
		triggers: []string{"competitive", "advantage", "vs"},
		response: "Mawari's competitive advantages include: Patented bandwidth reduction technology, first-mover advantage in DePIN for immersive content, proven track record with enterprise clients, and superior technical performance metrics including 80% bandwidth reduction and 99.9% uptime.",
	},
	{
		triggers: []string{"xr", "virtual reality", "augmented reality"},
		response: "Mawari specializes in XR (Extended Reality) streaming, enabling real-time delivery of immersive AR/VR experiences through its distributed network. The platform's AI-native architecture is optimized for 3D content streaming with sub-10ms latency in optimized regions, making it ideal for metaverse applications and interactive experiences.",
	},
	{
		triggers: []string{"funding", "investment", "raised"},
		response: "Mawari Network has raised over $30M in funding since its founding in 2019. The company has established partnerships with major tech companies and continues to expand its global infrastructure network to support the growing demand for immersive AI-powered experiences.",
	},
	{
		triggers: []string{"latency", "speed"},
		response: "Mawari achieves near-zero latency with sub-10ms processing times in optimized regions. The network's distributed edge computing architecture processes compute-intensive tasks locally, eliminating the need for data to travel long distances and ensuring real-time responsiveness for interactive XR and AI experiences.",
	},
}
