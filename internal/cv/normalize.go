package cv

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

type keyVariants map[string][]string

var (
	topLevelKeys = keyVariants{
		"name":           {"Name", "NAME"},
		"title":          {"Title", "TITLE"},
		"summary":        {"Summary", "SUMMARY"},
		"contact":        {"Contact", "CONTACT"},
		"experience":     {"Experience", "EXPERIENCE"},
		"projects":       {"Projects", "PROJECTS"},
		"education":      {"Education", "EDUCATION"},
		"skills":         {"Skills", "SKILLS"},
		"certifications": {"Certifications", "CERTIFICATIONS"},
		"awards":         {"Awards", "AWARDS"},
	}

	roleKeys = keyVariants{
		"company":  {"Company", "COMPANY"},
		"role":     {"Role", "ROLE", "Title", "Position"},
		"location": {"Location", "LOCATION"},
		"dates":    {"Dates", "DATES", "Date", "Period"},
		"bullets":  {"Bullets", "BULLETS", "Points", "Achievements"},
	}

	projectKeys = keyVariants{
		"name":    {"Name", "NAME", "Title"},
		"link":    {"Link", "LINK", "URL", "Url"},
		"dates":   {"Dates", "DATES", "Date"},
		"bullets": {"Bullets", "BULLETS", "Points", "Description"},
	}

	degreeKeys = keyVariants{
		"school":   {"School", "SCHOOL", "Institution", "University"},
		"degree":   {"Degree", "DEGREE"},
		"location": {"Location", "LOCATION"},
		"dates":    {"Dates", "DATES", "Date"},
		"details":  {"Details", "DETAILS", "Bullets"},
	}

	contactKeys = keyVariants{
		"email":    {"Email", "EMAIL"},
		"phone":    {"Phone", "PHONE"},
		"location": {"Location", "LOCATION"},
		"links":    {"Links", "LINKS"},
	}
)

// canonical returns a copy of item holding only the canonical keys, filled from the first
// variant present. The canonical spelling wins over variants.
func (kv keyVariants) canonical(item map[string]any) map[string]any {
	out := make(map[string]any, len(kv))
	for key, variants := range kv {
		if v, ok := item[key]; ok {
			out[key] = v
			continue
		}
		for _, variant := range variants {
			if v, ok := item[variant]; ok {
				out[key] = v
				break
			}
		}
	}
	return out
}

// Normalize turns a loosely shaped CV document, typically decoded model output, into a CV.
// Key casing variants are canonicalized, missing fields default to empty values, and
// section entries that are not objects are dropped.
func Normalize(raw map[string]any) *CV {
	top := topLevelKeys.canonical(raw)

	out := &CV{
		Name:           asString(top["name"]),
		Title:          asString(top["title"]),
		Summary:        asStrings(top["summary"]),
		Certifications: asStrings(top["certifications"]),
		Awards:         asStrings(top["awards"]),
		Experience:     []Role{},
		Projects:       []Project{},
		Education:      []Degree{},
		Skills:         Skills{Groups: []SkillGroup{}},
	}

	if raw, ok := top["contact"].(map[string]any); ok {
		// A contact that does not decode cleanly is dropped whole rather than kept half filled.
		var contact Contact
		if err := decodeLoose(contactKeys.canonical(raw), &contact); err == nil {
			out.Contact = contact
		}
	}
	if out.Contact.Links == nil {
		out.Contact.Links = []Link{}
	}

	for _, obj := range objects(top["experience"]) {
		var r Role
		if err := decodeLoose(roleKeys.canonical(obj), &r); err == nil {
			r.Bullets = nonNil(r.Bullets)
			out.Experience = append(out.Experience, r)
		}
	}
	for _, obj := range objects(top["projects"]) {
		var p Project
		if err := decodeLoose(projectKeys.canonical(obj), &p); err == nil {
			p.Bullets = nonNil(p.Bullets)
			out.Projects = append(out.Projects, p)
		}
	}
	for _, obj := range objects(top["education"]) {
		var d Degree
		if err := decodeLoose(degreeKeys.canonical(obj), &d); err == nil {
			d.Details = nonNil(d.Details)
			out.Education = append(out.Education, d)
		}
	}
	if skills, ok := top["skills"].(map[string]any); ok {
		for _, obj := range objects(skills["groups"]) {
			var g SkillGroup
			if err := decodeLoose(obj, &g); err == nil {
				g.Items = nonNil(g.Items)
				out.Skills.Groups = append(out.Skills.Groups, g)
			}
		}
	}

	return out
}

func decodeLoose(input map[string]any, result any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if obj, ok := entry.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func asStrings(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, entry := range val {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, val...)
	case string:
		if val != "" {
			out = append(out, val)
		}
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
