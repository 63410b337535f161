package model

// ProfileSection is one named section of a structured Digital Employee
// profile, with the sub-field values reviewers are expected to fill in.
type ProfileSection struct {
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
}

// Profile is the structured document assembled from validated extractions.
// Completeness scoring walks its sections against configured weights.
type Profile struct {
	Sections []ProfileSection `json:"sections"`
}

// Populated returns the number of non-empty fields in the section.
func (s ProfileSection) Populated() int {
	n := 0
	for _, v := range s.Fields {
		if v != "" {
			n++
		}
	}
	return n
}
