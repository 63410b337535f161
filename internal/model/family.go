package model

// Family identifies a category of working session and selects the
// prompt/schema pair used for extraction.
type Family string

const (
	FamilyKickoff   Family = "kickoff"
	FamilyProcess   Family = "process"
	FamilyTechnical Family = "technical"
	FamilySignoff   Family = "signoff"
	FamilyPersona   Family = "persona"
)

// Families lists all known extraction families.
var Families = []Family{
	FamilyKickoff,
	FamilyProcess,
	FamilyTechnical,
	FamilySignoff,
	FamilyPersona,
}

// Valid returns true if f is a known extraction family.
func (f Family) Valid() bool {
	switch f {
	case FamilyKickoff, FamilyProcess, FamilyTechnical, FamilySignoff, FamilyPersona:
		return true
	}
	return false
}

// ContentType describes the medium of the raw input content.
type ContentType string

const (
	ContentAudio      ContentType = "audio"
	ContentVideo      ContentType = "video"
	ContentDocument   ContentType = "document"
	ContentTranscript ContentType = "transcript"
)

// Valid returns true if c is a known content type.
func (c ContentType) Valid() bool {
	switch c {
	case ContentAudio, ContentVideo, ContentDocument, ContentTranscript:
		return true
	}
	return false
}

// IsDocument reports whether the content is paged material (documents)
// rather than a recording. Prompt wording adapts on this distinction.
func (c ContentType) IsDocument() bool {
	return c == ContentDocument
}
