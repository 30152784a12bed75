package models

import "strings"

// Class is an administrator-maintained catalog entry. Assigned sections are
// stored as a comma-delimited list on the class row; that list is the source
// of truth for class↔section membership, while the sections table governs
// section existence.
type Class struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Sections string `db:"sections" json:"sections"`
}

// SectionNames parses the delimited membership field into individual names.
func (c Class) SectionNames() []string {
	if strings.TrimSpace(c.Sections) == "" {
		return nil
	}
	parts := strings.Split(c.Sections, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

// HasSection reports whether the section is assigned to this class.
func (c Class) HasSection(name string) bool {
	for _, s := range c.SectionNames() {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// Section is a global catalog entry used for section existence checks.
type Section struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
