package cv

import "strings"

// Item is one removable unit of a CV section.
type Item interface {
	// Text is the header fields and sub-points joined with spaces.
	Text() string
}

// Entry is a plain string item such as a certification or an award.
type Entry string

func (e Entry) Text() string { return strings.TrimSpace(string(e)) }

func (r Role) Text() string {
	return joinText(append([]string{r.Role, r.Company}, r.Bullets...)...)
}

func (p Project) Text() string {
	return joinText(append([]string{p.Name}, p.Bullets...)...)
}

func (d Degree) Text() string {
	return joinText(append([]string{d.School, d.Degree}, d.Details...)...)
}

func (g SkillGroup) Text() string {
	return joinText(append([]string{g.Name}, g.Items...)...)
}

// Items returns the section's items in document order. Unknown sections yield nil.
func (c *CV) Items(section string) []Item {
	var items []Item
	switch section {
	case SectionExperience:
		for _, r := range c.Experience {
			items = append(items, r)
		}
	case SectionProjects:
		for _, p := range c.Projects {
			items = append(items, p)
		}
	case SectionEducation:
		for _, d := range c.Education {
			items = append(items, d)
		}
	case SectionSkills:
		for _, g := range c.Skills.Groups {
			items = append(items, g)
		}
	case SectionCertifications:
		for _, s := range c.Certifications {
			items = append(items, Entry(s))
		}
	case SectionAwards:
		for _, s := range c.Awards {
			items = append(items, Entry(s))
		}
	case SectionSummary:
		for _, s := range c.Summary {
			items = append(items, Entry(s))
		}
	}
	return items
}

// Len reports how many items a section holds.
func (c *CV) Len(section string) int {
	switch section {
	case SectionExperience:
		return len(c.Experience)
	case SectionProjects:
		return len(c.Projects)
	case SectionEducation:
		return len(c.Education)
	case SectionSkills:
		return len(c.Skills.Groups)
	case SectionCertifications:
		return len(c.Certifications)
	case SectionAwards:
		return len(c.Awards)
	case SectionSummary:
		return len(c.Summary)
	}
	return 0
}

// RemoveItem deletes the item at idx, keeping the order of the rest. Out of range indexes are ignored.
func (c *CV) RemoveItem(section string, idx int) {
	if idx < 0 || idx >= c.Len(section) {
		return
	}
	switch section {
	case SectionExperience:
		c.Experience = append(c.Experience[:idx], c.Experience[idx+1:]...)
	case SectionProjects:
		c.Projects = append(c.Projects[:idx], c.Projects[idx+1:]...)
	case SectionEducation:
		c.Education = append(c.Education[:idx], c.Education[idx+1:]...)
	case SectionSkills:
		c.Skills.Groups = append(c.Skills.Groups[:idx], c.Skills.Groups[idx+1:]...)
	case SectionCertifications:
		c.Certifications = append(c.Certifications[:idx], c.Certifications[idx+1:]...)
	case SectionAwards:
		c.Awards = append(c.Awards[:idx], c.Awards[idx+1:]...)
	case SectionSummary:
		c.Summary = append(c.Summary[:idx], c.Summary[idx+1:]...)
	}
}

// Bullets returns a pointer to the sub-point list of item idx so callers can rewrite it in place.
// Sections without prose sub-points return nil; skill items are keywords, not sentences.
func (c *CV) Bullets(section string, idx int) *[]string {
	if idx < 0 || idx >= c.Len(section) {
		return nil
	}
	switch section {
	case SectionExperience:
		return &c.Experience[idx].Bullets
	case SectionProjects:
		return &c.Projects[idx].Bullets
	case SectionEducation:
		return &c.Education[idx].Details
	}
	return nil
}

func joinText(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
