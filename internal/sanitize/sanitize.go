// Package sanitize prepares untrusted transcript and document text for
// embedding in model prompts.
package sanitize

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Delimiter markers wrapping untrusted content. Content cannot forge them:
// the escaper rewrites every ASCII angle bracket before wrapping.
const (
	beginMarkerFmt = "<<<UNTRUSTED_CONTENT_BEGIN %s>>>"
	endMarkerFmt   = "<<<UNTRUSTED_CONTENT_END %s>>>"
)

// injectionPatterns are known prompt-injection phrasings. Matches are
// logged and tolerated, never rejected: business transcripts produce
// false positives ("ignore the previous step in the process" is normal
// workshop language).
var injectionPatterns = []string{
	"ignore previous instructions",
	"ignore all previous instructions",
	"disregard previous instructions",
	"disregard the above",
	"forget your instructions",
	"you are now",
	"act as the system",
	"system prompt",
	"new instructions:",
	"[inst]",
	"<|im_start|>",
	"### instruction",
	"do not follow the",
	"override your",
}

// escaper rewrites the four delimiter-forming characters to their
// full-width equivalents so embedded text stays visually intact but can
// never close or open a wrapper.
var escaper = strings.NewReplacer(
	"<", "＜",
	">", "＞",
	"[", "［",
	"]", "］",
)

// Wrap escapes and delimits untrusted content for prompt embedding.
// It never fails and always returns a non-empty wrapped string. Detected
// injection phrasings are logged at warn level as a side effect.
func Wrap(content, contentLabel string) string {
	if patterns := DetectInjection(content); len(patterns) > 0 {
		zap.L().Warn("sanitize: possible prompt injection in content",
			zap.String("label", contentLabel),
			zap.Strings("patterns", patterns),
		)
	}

	label := escaper.Replace(contentLabel)
	escaped := escaper.Replace(content)

	var b strings.Builder
	b.Grow(len(escaped) + 2*len(beginMarkerFmt) + 2*len(label) + 8)
	fmt.Fprintf(&b, beginMarkerFmt, label)
	b.WriteString("\n")
	b.WriteString(escaped)
	b.WriteString("\n")
	fmt.Fprintf(&b, endMarkerFmt, label)
	return b.String()
}

// DetectInjection returns the injection signatures present in content.
// Matching is case-insensitive substring search; detection is advisory
// only.
func DetectInjection(content string) []string {
	lower := strings.ToLower(content)
	var found []string
	for _, p := range injectionPatterns {
		if strings.Contains(lower, p) {
			found = append(found, p)
		}
	}
	return found
}

// Unwrap strips exactly one wrapper layer added by Wrap. It returns the
// inner payload and true when both markers for the label are present, or
// the input unchanged and false otherwise. Inner escapes are not undone;
// escaping is one-way by design.
func Unwrap(wrapped, contentLabel string) (string, bool) {
	label := escaper.Replace(contentLabel)
	begin := fmt.Sprintf(beginMarkerFmt, label)
	end := fmt.Sprintf(endMarkerFmt, label)

	start := strings.Index(wrapped, begin)
	stop := strings.LastIndex(wrapped, end)
	if start < 0 || stop < 0 || stop <= start {
		return wrapped, false
	}
	inner := wrapped[start+len(begin) : stop]
	return strings.TrimPrefix(strings.TrimSuffix(inner, "\n"), "\n"), true
}
