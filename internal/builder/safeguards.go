package builder

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spigell/cv-refiner/internal/changes"
	"github.com/spigell/cv-refiner/internal/cv"

	"go.uber.org/zap"
)

const (
	minSummaryOverlap   = 0.3
	maxMissingProjects  = 0.5
	comparePreviewLimit = 100

	reasonTailoring = "AI Tailoring: Content enhanced for hiring-manager impact"
)

var comparedSections = []string{cv.SectionSummary, cv.SectionExperience, cv.SectionProjects}

// preserve overwrites sections of tailored that the model damaged. Sections are restored
// whole, never merged.
func (b *Builder) preserve(source, tailored *cv.CV) {
	if len(source.Summary) > 0 && len(tailored.Summary) > 0 {
		if overlap := summaryOverlap(source.Summary, tailored.Summary); overlap < minSummaryOverlap {
			b.logger.Warn("tailored summary diverged from the original, restoring it",
				zap.Float64("overlap", overlap),
			)
			tailored.Summary = append([]string(nil), source.Summary...)
		}
	}

	if missing := missingProjects(source.Projects, tailored.Projects); missing > maxMissingProjects {
		b.logger.Warn("tailored cv lost too many projects, restoring them",
			zap.Float64("missing", missing),
			zap.Int("projects_before", len(source.Projects)),
			zap.Int("projects_after", len(tailored.Projects)),
		)
		tailored.Projects = source.Clone().Projects
	}

	restored := source.Clone()
	if len(source.Experience) > 0 && len(tailored.Experience) == 0 {
		b.logger.Warn("tailored cv has no experience, restoring it")
		tailored.Experience = restored.Experience
	}
	if len(source.Education) > 0 && len(tailored.Education) == 0 {
		b.logger.Warn("tailored cv has no education, restoring it")
		tailored.Education = restored.Education
	}
	if len(source.Skills.Groups) > 0 && len(tailored.Skills.Groups) == 0 {
		b.logger.Warn("tailored cv has no skills, restoring them")
		tailored.Skills = restored.Skills
	}
}

// restoreRequired fills required fields the model left empty from the restore point.
func (b *Builder) restoreRequired(tailored *cv.CV) {
	original := b.original.Clone()

	var restored []string
	if strings.TrimSpace(tailored.Name) == "" {
		tailored.Name = original.Name
		restored = append(restored, "name")
	}
	if strings.TrimSpace(tailored.Title) == "" {
		tailored.Title = original.Title
		restored = append(restored, "title")
	}
	if emptyContact(tailored.Contact) {
		tailored.Contact = original.Contact
		restored = append(restored, "contact")
	}
	if len(tailored.Summary) == 0 {
		tailored.Summary = original.Summary
		restored = append(restored, "summary")
	}

	if len(restored) > 0 {
		b.logger.Warn("restored required fields missing from the tailored cv", zap.Strings("fields", restored))
	}
}

// summaryOverlap is the share of distinct original summary lines kept verbatim.
func summaryOverlap(original, tailored []string) float64 {
	kept := make(map[string]struct{}, len(tailored))
	for _, line := range tailored {
		kept[line] = struct{}{}
	}

	distinct := make(map[string]struct{}, len(original))
	shared := 0
	for _, line := range original {
		if _, seen := distinct[line]; seen {
			continue
		}
		distinct[line] = struct{}{}
		if _, ok := kept[line]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(distinct))
}

// missingProjects is the share of distinct original project names, compared case-insensitively,
// absent from tailored.
func missingProjects(original, tailored []cv.Project) float64 {
	if len(original) == 0 {
		return 0
	}

	kept := make(map[string]struct{}, len(tailored))
	for _, p := range tailored {
		kept[strings.ToLower(p.Name)] = struct{}{}
	}

	names := make(map[string]struct{}, len(original))
	missing := 0
	for _, p := range original {
		name := strings.ToLower(p.Name)
		if _, seen := names[name]; seen {
			continue
		}
		names[name] = struct{}{}
		if _, ok := kept[name]; !ok {
			missing++
		}
	}
	return float64(missing) / float64(len(names))
}

func emptyContact(c cv.Contact) bool {
	return c.Email == "" && c.Phone == "" && c.Location == "" && len(c.Links) == 0
}

// compare records one MODIFIED change per top-level section whose content differs.
// before is normalized the same way as model output so empty containers compare equal.
func compare(before, after *cv.CV, now time.Time) *changes.Report {
	report := changes.NewReport(now)
	before = canonical(before)

	for _, section := range comparedSections {
		was, is := sectionJSON(before, section), sectionJSON(after, section)
		if was == is {
			continue
		}
		report.Add(changes.Change{
			Type:       changes.Modified,
			Section:    section,
			ItemKey:    section + "_0",
			Before:     clip(was, comparePreviewLimit),
			After:      clip(is, comparePreviewLimit),
			Reason:     reasonTailoring,
			Importance: changes.High,
		})
	}

	return report
}

func canonical(c *cv.CV) *cv.CV {
	data, err := json.Marshal(c)
	if err != nil {
		return c
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return c
	}
	return cv.Normalize(raw)
}

func sectionJSON(c *cv.CV, section string) string {
	if c.Len(section) == 0 {
		return "[]"
	}

	var v any
	switch section {
	case cv.SectionSummary:
		v = c.Summary
	case cv.SectionExperience:
		v = c.Experience
	case cv.SectionProjects:
		v = c.Projects
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
