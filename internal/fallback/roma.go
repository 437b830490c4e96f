package fallback

// NewRomaResponder answers for the ROMA persona while the ROMA backend or its provider is unavailable
func NewRomaResponder() *Responder {
	return &Responder{
		rules:   romaRules,
		closing: romaClosing,
	}
}

const romaClosing = "I'm connected to ROMA (Sentient AGI) but experiencing a temporary configuration issue that prevents advanced AI processing. The hierarchical multi-agent system is online and ready.\n\nHowever, I can tell you that Mawari Network is revolutionizing the immersive internet through decentralized infrastructure for real-time XR and AI experiences. ROMA integration will be fully functional shortly.\n\nFor more detailed information, please visit mawari.net or check their official documentation."

// "ai" alone is not a trigger: it is a substring of "mawari".
var romaRules = []rule{
	{
		triggers: []string{"what is mawari"},
		response: "Mawari Network is a decentralized platform that powers real-time streaming of immersive, AI-powered experiences globally with near-zero latency. Since 2019, they've delivered embodied AI through a global network of nodes that reduce bandwidth usage by 80% and ensure 99.9% uptime for XR content streaming.\n\n*Note: I'm currently connected to ROMA (Sentient AGI) but experiencing temporary configuration issues. The hierarchical multi-agent system is online and ready to assist.*",
	},
	{
		triggers: []string{"depin"},
		response: "Mawari uses DePIN (Decentralized Physical Infrastructure Networks) principles to build its AI and XR-native delivery platform for the 3D Internet. The network demands GPUs positioned close to users and requires distributed computing, storage, and ultra-low latency infrastructure.\n\n*Note: ROMA integration is active but encountering a temporary configuration issue. Advanced AI processing will be available shortly.*",
	},
	{
		triggers: []string{"node"},
		response: "Mawari's network consists of distributed nodes globally positioned to provide ultra-low latency processing for immersive experiences. These nodes handle GPU-intensive tasks, reducing bandwidth usage by 80% while ensuring 99.9% uptime for XR content streaming.\n\n*Note: ROMA-DSPy system is running and healthy. Working to resolve the configuration issue for full hierarchical task decomposition.*",
	},
	{
		triggers: []string{"roma", "agent", "sentient", "dspy"},
		response: "I am connected to ROMA (Sentient AGI), a hierarchical multi-agent framework that provides advanced AI capabilities. The system is currently running but experiencing a temporary configuration issue that prevents full task decomposition. ROMA's DSPy-powered agents are ready to assist with complex queries about Mawari Network technology.",
	},
}
