package cv

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Section names as they appear in the CV JSON.
const (
	SectionSummary        = "summary"
	SectionExperience     = "experience"
	SectionProjects       = "projects"
	SectionEducation      = "education"
	SectionSkills         = "skills"
	SectionCertifications = "certifications"
	SectionAwards         = "awards"
)

// CV is the structured resume. Section order carries meaning: the first item is the most
// important or the most recent one.
type CV struct {
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	Contact        Contact   `json:"contact"`
	Summary        []string  `json:"summary"`
	Experience     []Role    `json:"experience"`
	Projects       []Project `json:"projects"`
	Education      []Degree  `json:"education"`
	Skills         Skills    `json:"skills"`
	Certifications []string  `json:"certifications"`
	Awards         []string  `json:"awards"`
}

type Contact struct {
	Email    string `json:"email" mapstructure:"email"`
	Phone    string `json:"phone" mapstructure:"phone"`
	Location string `json:"location" mapstructure:"location"`
	Links    []Link `json:"links" mapstructure:"links"`
}

type Link struct {
	Label string `json:"label" mapstructure:"label"`
	URL   string `json:"url" mapstructure:"url"`
}

type Role struct {
	Company  string   `json:"company" mapstructure:"company"`
	Role     string   `json:"role" mapstructure:"role"`
	Location string   `json:"location,omitempty" mapstructure:"location"`
	Dates    string   `json:"dates" mapstructure:"dates"`
	Bullets  []string `json:"bullets" mapstructure:"bullets"`
}

type Project struct {
	Name    string   `json:"name" mapstructure:"name"`
	Link    string   `json:"link,omitempty" mapstructure:"link"`
	Dates   string   `json:"dates,omitempty" mapstructure:"dates"`
	Bullets []string `json:"bullets" mapstructure:"bullets"`
}

type Degree struct {
	School   string   `json:"school" mapstructure:"school"`
	Degree   string   `json:"degree" mapstructure:"degree"`
	Location string   `json:"location,omitempty" mapstructure:"location"`
	Dates    string   `json:"dates" mapstructure:"dates"`
	Details  []string `json:"details" mapstructure:"details"`
}

type Skills struct {
	Groups []SkillGroup `json:"groups" mapstructure:"groups"`
}

type SkillGroup struct {
	Name  string   `json:"name" mapstructure:"name"`
	Items []string `json:"items" mapstructure:"items"`
}

// Load reads a CV from a JSON file.
func Load(path string) (*CV, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cv file %q: %w", path, err)
	}

	var c CV
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing cv file %q: %w", path, err)
	}

	return &c, nil
}

// Save writes the CV as indented JSON.
func (c *CV) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Validate checks the fields the input schema marks as required.
func (c *CV) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Contact.Email) == "" {
		missing = append(missing, "contact.email")
	}
	if c.Summary == nil {
		missing = append(missing, "summary")
	}
	if c.Experience == nil {
		missing = append(missing, "experience")
	}
	if c.Skills.Groups == nil {
		missing = append(missing, "skills.groups")
	}
	for i, role := range c.Experience {
		if role.Company == "" || role.Role == "" {
			missing = append(missing, fmt.Sprintf("experience[%d].company/role", i))
		}
	}
	for i, project := range c.Projects {
		if project.Name == "" {
			missing = append(missing, fmt.Sprintf("projects[%d].name", i))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("cv validation: missing required fields: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Clone returns a deep copy so that optimization runs never share state with the caller.
func (c *CV) Clone() *CV {
	if c == nil {
		return nil
	}

	out := *c
	out.Contact.Links = append([]Link(nil), c.Contact.Links...)
	out.Summary = cloneStrings(c.Summary)
	out.Certifications = cloneStrings(c.Certifications)
	out.Awards = cloneStrings(c.Awards)

	if c.Experience != nil {
		out.Experience = make([]Role, len(c.Experience))
		for i, r := range c.Experience {
			r.Bullets = cloneStrings(r.Bullets)
			out.Experience[i] = r
		}
	}
	if c.Projects != nil {
		out.Projects = make([]Project, len(c.Projects))
		for i, p := range c.Projects {
			p.Bullets = cloneStrings(p.Bullets)
			out.Projects[i] = p
		}
	}
	if c.Education != nil {
		out.Education = make([]Degree, len(c.Education))
		for i, d := range c.Education {
			d.Details = cloneStrings(d.Details)
			out.Education[i] = d
		}
	}
	if c.Skills.Groups != nil {
		out.Skills.Groups = make([]SkillGroup, len(c.Skills.Groups))
		for i, g := range c.Skills.Groups {
			g.Items = cloneStrings(g.Items)
			out.Skills.Groups[i] = g
		}
	}

	return &out
}

// WordCount counts whitespace separated words across every textual field.
func (c *CV) WordCount() int {
	total := CountWords(c.Name) + CountWords(c.Title)
	for _, s := range c.Summary {
		total += CountWords(s)
	}
	for _, section := range []string{SectionExperience, SectionProjects, SectionEducation, SectionSkills, SectionCertifications, SectionAwards} {
		for _, item := range c.Items(section) {
			total += CountWords(item.Text())
		}
	}
	return total
}

// PlainText renders the CV as readable text for judges.
func (c *CV) PlainText() string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\n")
	}

	line("%s", c.Name)
	if c.Title != "" {
		line("%s", c.Title)
	}
	contact := joinNonEmpty(" | ", c.Contact.Email, c.Contact.Phone, c.Contact.Location)
	if contact != "" {
		line("%s", contact)
	}
	for _, l := range c.Contact.Links {
		line("%s: %s", l.Label, l.URL)
	}

	if len(c.Summary) > 0 {
		line("\nSUMMARY")
		for _, s := range c.Summary {
			line("%s", s)
		}
	}
	if len(c.Experience) > 0 {
		line("\nEXPERIENCE")
		for _, r := range c.Experience {
			line("%s", joinNonEmpty(" | ", r.Role, r.Company, r.Location, r.Dates))
			for _, bullet := range r.Bullets {
				line("- %s", bullet)
			}
		}
	}
	if len(c.Projects) > 0 {
		line("\nPROJECTS")
		for _, p := range c.Projects {
			line("%s", joinNonEmpty(" | ", p.Name, p.Link, p.Dates))
			for _, bullet := range p.Bullets {
				line("- %s", bullet)
			}
		}
	}
	if len(c.Education) > 0 {
		line("\nEDUCATION")
		for _, d := range c.Education {
			line("%s", joinNonEmpty(" | ", d.Degree, d.School, d.Location, d.Dates))
			for _, detail := range d.Details {
				line("- %s", detail)
			}
		}
	}
	if len(c.Skills.Groups) > 0 {
		line("\nSKILLS")
		for _, g := range c.Skills.Groups {
			line("%s: %s", g.Name, strings.Join(g.Items, ", "))
		}
	}
	if len(c.Certifications) > 0 {
		line("\nCERTIFICATIONS")
		for _, s := range c.Certifications {
			line("- %s", s)
		}
	}
	if len(c.Awards) > 0 {
		line("\nAWARDS")
		for _, s := range c.Awards {
			line("- %s", s)
		}
	}

	return strings.TrimSpace(b.String())
}

// CountWords counts whitespace separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
