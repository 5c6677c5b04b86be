package cv

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when model output holds no JSON object at all.
var ErrNoJSONObject = errors.New("no JSON object found in model response")

// ExtractJSON decodes the JSON object carried by a model response. Code fences are stripped,
// and when the text still does not parse the outermost {...} span is tried.
func ExtractJSON(text string) (map[string]any, error) {
	cleaned := stripFences(strings.TrimSpace(text))

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil && out != nil {
		return out, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSONObject
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decoding JSON object from model response: %w", err)
	}
	return out, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		// Drop the language tag line.
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Inventory summarizes the CV structure so that a rewriting model can be held to it.
func (c *CV) Inventory() string {
	var experience []string
	for _, r := range c.Experience {
		header := joinNonEmpty(" - ", r.Role, r.Company)
		if header == "" {
			header = "Experience entry"
		}
		if r.Dates != "" {
			header = fmt.Sprintf("%s (%s)", header, r.Dates)
		}
		if r.Location != "" {
			header = fmt.Sprintf("%s, %s", header, r.Location)
		}
		experience = append(experience, fmt.Sprintf("%s | bullets: %d", header, len(r.Bullets)))
	}

	var projects []string
	for _, p := range c.Projects {
		line := p.Name
		if line == "" {
			line = "Project"
		}
		if p.Dates != "" {
			line = fmt.Sprintf("%s (%s)", line, p.Dates)
		}
		if p.Link != "" {
			line = fmt.Sprintf("%s | link: %s", line, p.Link)
		}
		projects = append(projects, fmt.Sprintf("%s | bullets: %d", line, len(p.Bullets)))
	}

	var skills []string
	for _, g := range c.Skills.Groups {
		name := g.Name
		if name == "" {
			name = "Group"
		}
		skills = append(skills, fmt.Sprintf("%s: %d items", name, len(g.Items)))
	}

	return strings.Join([]string{
		"Name: " + orMissing(c.Name),
		"Title: " + orMissing(c.Title),
		fmt.Sprintf("Summary bullets: %d", len(c.Summary)),
		fmt.Sprintf("Experience entries: %d", len(c.Experience)),
		"Experience list:\n" + inventoryList(experience),
		fmt.Sprintf("Project entries: %d", len(c.Projects)),
		"Project list:\n" + inventoryList(projects),
		fmt.Sprintf("Education entries: %d", len(c.Education)),
		fmt.Sprintf("Skill groups: %d", len(c.Skills.Groups)),
		"Skill groups list:\n" + inventoryList(skills),
	}, "\n")
}

func inventoryList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return "- " + strings.Join(items, "\n- ")
}

func orMissing(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "(missing)"
	}
	return s
}
