package review

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spigell/cv-refiner/internal/changes"
)

const (
	// MaxDetailedChanges caps how many changes RenderDetails prints.
	MaxDetailedChanges = 10

	previewRunes = 70
	rule         = "======================================================================"
	thinRule     = "----------------------------------------------------------------------"
)

var typeMarkers = map[changes.ChangeType]string{
	changes.Removed:   "[-]",
	changes.Condensed: "[~]",
	changes.Reordered: "[^]",
	changes.Modified:  "[*]",
	changes.Added:     "[+]",
}

func marker(t string) string {
	if m, ok := typeMarkers[changes.ChangeType(t)]; ok {
		return m
	}
	return "[.]"
}

// RenderSummary writes change totals grouped by type and by section.
func RenderSummary(w io.Writer, report *changes.Report) error {
	s := report.CalculateSummary()

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nCV OPTIMIZATION SUMMARY\n%s\n", rule, rule)
	b.WriteString("\n[CHANGES] Changes Made:\n")
	fmt.Fprintf(&b, "   - Total changes: %d\n", s.TotalChanges)
	fmt.Fprintf(&b, "   - Words removed: %d\n", s.TotalWordsSaved)

	if len(s.ChangesByType) > 0 {
		b.WriteString("\nChanges by Type:\n")
		for _, t := range sortedKeys(s.ChangesByType) {
			fmt.Fprintf(&b, "   %s %s: %d\n", marker(t), title(t), s.ChangesByType[t])
		}
	}

	if len(s.ChangesBySection) > 0 {
		b.WriteString("\nChanges by Section:\n")
		for _, section := range sortedKeys(s.ChangesBySection) {
			fmt.Fprintf(&b, "   - %s: %d\n", title(section), s.ChangesBySection[section])
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDetails writes up to limit changes grouped by section. A non-positive limit means
// MaxDetailedChanges.
func RenderDetails(w io.Writer, report *changes.Report, limit int) error {
	if limit <= 0 {
		limit = MaxDetailedChanges
	}

	if report.Len() == 0 {
		_, err := io.WriteString(w, "\nNo detailed changes to display.\n")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nDETAILED CHANGES (showing first %d)\n%s\n", rule, min(report.Len(), limit), rule)

	bySection := map[string][]changes.Change{}
	for _, c := range report.Changes {
		bySection[c.Section] = append(bySection[c.Section], c)
	}
	sections := make([]string, 0, len(bySection))
	for s := range bySection {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	shown := 0
	for _, section := range sections {
		fmt.Fprintf(&b, "\n%s\n%s\n", strings.ToUpper(section), thinRule)

		for _, c := range bySection[section] {
			if shown >= limit {
				fmt.Fprintf(&b, "\n... and %d more changes\n", report.Len()-shown)
				_, err := io.WriteString(w, b.String())
				return err
			}

			fmt.Fprintf(&b, "\n%s [%s] %s\n", marker(string(c.Type)), strings.ToUpper(string(c.Type)), c.ItemKey)
			fmt.Fprintf(&b, "   Reason: %s\n", c.Reason)
			fmt.Fprintf(&b, "   Words saved: %d\n", c.WordsSaved)
			if c.Before != "" {
				fmt.Fprintf(&b, "   Before: %q\n", preview(c.Before))
			}
			if c.After != "" && c.Type != changes.Removed {
				fmt.Fprintf(&b, "   After:  %q\n", preview(c.After))
			}
			shown++
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes]) + "..."
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
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
