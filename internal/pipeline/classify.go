package pipeline

import (
	"regexp"
	"strings"
)

// Classified is the user-facing shape of a provider failure: a short,
// credential-free message and whether retrying could help.
type Classified struct {
	UserMessage string `json:"user_message"`
	Retryable   bool   `json:"retryable"`
}

// classifyRule maps message signatures to one taxonomy bucket. Rules are
// evaluated in order; first match wins.
type classifyRule struct {
	signatures []string
	message    string
	retryable  bool
}

var classifyRules = []classifyRule{
	{
		signatures: []string{"429", "rate limit", "rate_limit", "too many requests", "quota"},
		message:    "The model provider is rate limiting requests. Please retry shortly.",
		retryable:  true,
	},
	{
		signatures: []string{"401", "403", "unauthorized", "forbidden", "invalid api key", "authentication", "permission"},
		message:    "Authentication with the model provider failed. An operator needs to check the API credentials.",
		retryable:  false,
	},
	{
		signatures: []string{"timeout", "timed out", "deadline exceeded"},
		message:    "The model provider did not respond in time. Please retry.",
		retryable:  true,
	},
	{
		signatures: []string{"529", "503", "502", "500", "overloaded", "service unavailable", "unavailable", "connection refused", "connection reset"},
		message:    "The model provider is temporarily unavailable. Please retry shortly.",
		retryable:  true,
	},
}

var (
	urlPattern = regexp.MustCompile(`https?://\S+`)
	// keyPattern matches API-key-shaped substrings: provider prefixes and
	// long unbroken token runs.
	keyPattern = regexp.MustCompile(`(sk-[A-Za-z0-9_-]+|[A-Za-z0-9_-]{28,})`)
)

const maxSanitizedLen = 200

// Classify maps a provider error to the closed taxonomy. It never panics
// and tolerates nil: the result is always a usable, credential-free
// message plus a retryable flag.
func Classify(err error) Classified {
	if err == nil {
		return Classified{
			UserMessage: "The model call failed for an unknown reason.",
			Retryable:   false,
		}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, rule := range classifyRules {
		for _, sig := range rule.signatures {
			if strings.Contains(lower, sig) {
				return Classified{UserMessage: rule.message, Retryable: rule.retryable}
			}
		}
	}

	return Classified{UserMessage: sanitizeMessage(msg), Retryable: false}
}

// sanitizeMessage strips URLs and key-like substrings from an
// unclassified provider message and truncates it. Raw provider errors can
// carry credentials or internal endpoints and must never reach callers.
func sanitizeMessage(msg string) string {
	msg = urlPattern.ReplaceAllString(msg, "[url]")
	msg = keyPattern.ReplaceAllString(msg, "[redacted]")
	msg = strings.TrimSpace(msg)
	if len(msg) > maxSanitizedLen {
		msg = msg[:maxSanitizedLen]
	}
	if msg == "" {
		msg = "The model call failed."
	}
	return msg
}
