package changes

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Markdown renders the human readable summary.
func (r *Report) Markdown() string {
	s := r.summary()
	lines := []string{
		"# CV Optimization Changes\n",
		fmt.Sprintf("**Generated**: %s\n", r.Timestamp),
		"## Summary\n",
		fmt.Sprintf("- **Total Changes**: %d", s.TotalChanges),
		fmt.Sprintf("- **Words Saved**: %d", s.TotalWordsSaved),
	}

	if len(s.ChangesByType) > 0 {
		lines = append(lines, "\n### Changes by Type\n")
		for _, key := range r.orderedKeys(s.ChangesByType, func(c Change) string { return string(c.Type) }) {
			lines = append(lines, fmt.Sprintf("- **%s**: %d", title(key), s.ChangesByType[key]))
		}
	}

	if len(s.ChangesBySection) > 0 {
		lines = append(lines, "\n### Changes by Section\n")
		for _, key := range r.orderedKeys(s.ChangesBySection, func(c Change) string { return c.Section }) {
			lines = append(lines, fmt.Sprintf("- **%s**: %d", title(key), s.ChangesBySection[key]))
		}
	}

	if len(r.Changes) > 0 {
		lines = append(lines, "\n## Detailed Changes\n")
		grouped, sections := r.bySection()
		for _, section := range sections {
			lines = append(lines, fmt.Sprintf("### %s\n", title(section)))
			for _, c := range grouped[section] {
				lines = append(lines,
					fmt.Sprintf("\n**%s** (%s)", strings.ToUpper(string(c.Type)), c.ItemKey),
					"- Reason: "+c.Reason,
					fmt.Sprintf("- Words Saved: %d", c.WordsSaved),
				)
				if c.Before != "" && c.Before != c.After {
					lines = append(lines, fmt.Sprintf("- Before: `%s...`", clip(c.Before, 100)))
					if c.After != "" {
						lines = append(lines, fmt.Sprintf("- After: `%s...`", clip(c.After, 100)))
					}
				}
			}
		}
	}

	return strings.Join(lines, "\n")
}

// Text renders the plain text report.
func (r *Report) Text() string {
	rule := strings.Repeat("=", 70)
	thin := strings.Repeat("-", 70)
	s := r.summary()

	lines := []string{
		rule,
		"CV OPTIMIZATION CHANGES REPORT",
		rule,
		fmt.Sprintf("\nGenerated: %s\n", r.Timestamp),
		"SUMMARY",
		thin,
		fmt.Sprintf("Total Changes: %d", s.TotalChanges),
		fmt.Sprintf("Words Saved: %d\n", s.TotalWordsSaved),
	}

	if len(s.ChangesByType) > 0 {
		lines = append(lines, "CHANGES BY TYPE", thin)
		for _, key := range sortedKeys(s.ChangesByType) {
			lines = append(lines, fmt.Sprintf("  %s: %d", title(key), s.ChangesByType[key]))
		}
		lines = append(lines, "")
	}

	if len(s.ChangesBySection) > 0 {
		lines = append(lines, "CHANGES BY SECTION", thin)
		for _, key := range sortedKeys(s.ChangesBySection) {
			lines = append(lines, fmt.Sprintf("  %s: %d", title(key), s.ChangesBySection[key]))
		}
		lines = append(lines, "")
	}

	if len(r.Changes) > 0 {
		lines = append(lines, "DETAILED CHANGES", rule)
		grouped, sections := r.bySection()
		for _, section := range sections {
			lines = append(lines, "\n"+strings.ToUpper(section), thin)
			for _, c := range grouped[section] {
				lines = append(lines,
					fmt.Sprintf("\n  [%s] %s", strings.ToUpper(string(c.Type)), c.ItemKey),
					"  Reason: "+c.Reason,
					fmt.Sprintf("  Words Saved: %d", c.WordsSaved),
				)
				if c.Before != "" && c.Before != c.After {
					after := "(removed)"
					if c.After != "" {
						after = clip(c.After, 80) + "..."
					}
					lines = append(lines,
						"  Before: "+clip(c.Before, 80)+"...",
						"  After:  "+after,
					)
				}
			}
		}
	}

	lines = append(lines, "\n"+rule)
	return strings.Join(lines, "\n")
}

// orderedKeys lists the keys of counts in the order they first appear among the changes.
func (r *Report) orderedKeys(counts map[string]int, key func(Change) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range r.Changes {
		k := key(c)
		if _, ok := counts[k]; ok && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	// Counts loaded from JSON may have no matching changes.
	for _, k := range sortedKeys(counts) {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}

func (r *Report) bySection() (map[string][]Change, []string) {
	grouped := map[string][]Change{}
	for _, c := range r.Changes {
		grouped[c.Section] = append(grouped[c.Section], c)
	}
	sections := make([]string, 0, len(grouped))
	for section := range grouped {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	return grouped, sections
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func title(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
