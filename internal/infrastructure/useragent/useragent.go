package useragent

import "math/rand/v2"

// Browser user agents rotated across sessions and requests to avoid immediate bot detection
var browserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
}

// Random returns one of the known desktop browser user agents
func Random() string {
	return browserAgents[rand.IntN(len(browserAgents))]
}

// All returns a copy of the rotation list
func All() []string {
	return append([]string(nil), browserAgents...)
}
