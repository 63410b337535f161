package prompt

import (
	"strings"

	"github.com/brightpath/onboard/internal/model"
)

// Noun slots per content kind. Recordings speak of timestamps; documents
// of page/paragraph locators.
const (
	recordingNoun    = "recording"
	recordingLocator = "timestamp"
	documentNoun     = "document"
	documentLocator  = "locator"
)

// Locator hints spell out what each locator value should hold, since the
// JSON key alone does not tell the model what a "locator" is.
const (
	recordingLocatorHint = `The "timestamp" is the time offset within the recording, like "12:45".`
	documentLocatorHint  = `The "locator" is a page or paragraph reference within the document, like "page 3" or "paragraph 12".`
)

// Render substitutes the named slots of an instruction template:
// {{content_noun}}, {{content_noun_title}}, {{locator_noun}},
// {{locator_hint}} and {{content}}. The sanitized content must already
// be wrapped by the sanitizer; Render does no escaping of its own.
func Render(resolved model.ResolvedPrompt, sanitizedContent string, contentType model.ContentType) string {
	noun, locator, hint := recordingNoun, recordingLocator, recordingLocatorHint
	if contentType.IsDocument() {
		noun, locator, hint = documentNoun, documentLocator, documentLocatorHint
	}

	replacer := strings.NewReplacer(
		"{{content_noun_title}}", strings.Title(noun), //nolint:staticcheck // single ASCII word
		"{{content_noun}}", noun,
		"{{locator_noun}}", locator,
		"{{locator_hint}}", hint,
		"{{content}}", sanitizedContent,
	)
	return replacer.Replace(resolved.Instruction)
}
