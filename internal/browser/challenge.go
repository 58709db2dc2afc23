package browser

import "strings"

// challengeMarkers are substrings whose presence in rendered page HTML
// indicates a bot challenge or CAPTCHA screen. Matching is case-insensitive.
var challengeMarkers = []string{
	"recaptcha",
	"hcaptcha",
	"cf-challenge",
	"cf-turnstile",
	"arkose",
	"are you a robot",
	"verify you are human",
	"unusual traffic",
	"security check",
}

// ContainsChallenge reports whether rendered HTML looks like a bot-challenge
// or CAPTCHA page rather than an application form.
func ContainsChallenge(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
