package consensus

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spigell/cv-refiner/internal/judge"
)

// Render writes a human readable version of the report.
func (a *Aggregator) Render(w io.Writer, report judge.FinalReport) error {
	var b strings.Builder

	b.WriteString("CV Judge Ensemble Report\n")
	fmt.Fprintf(&b, "Consensus Score: %.1f/100", report.ConsensusScore)
	if report.JudgeDiscordance {
		b.WriteString("  [!] DISCORDANCE DETECTED")
	}
	b.WriteString("\n")
	if report.EnsembleID != "" {
		fmt.Fprintf(&b, "Ensemble: %s\n", report.EnsembleID)
	}
	fmt.Fprintf(&b, "\n%s\n", report.Recommendation)

	if len(report.ConsensusHighlights) > 0 {
		b.WriteString("\n[*] Consensus Highlights:\n")
		for _, h := range report.ConsensusHighlights {
			fmt.Fprintf(&b, "  - %s\n", h)
		}
	}

	if len(report.DiscordancePoints) > 0 {
		b.WriteString("\n[!] Points of Disagreement:\n")
		for _, p := range report.DiscordancePoints {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}

	keys := judge.Order(a.Registry, report.DetailedBreakdown)

	b.WriteString("\nIndividual Judge Evaluations:\n")
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JUDGE\tSCORE\tKEY INSIGHTS")
	for _, key := range keys {
		e := report.DetailedBreakdown[key]
		insights := Insights(e)
		if len(insights) == 0 {
			insights = []string{"No specific insights"}
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.ModelName, e.Score, insights[0])
		for _, line := range insights[1:] {
			fmt.Fprintf(tw, "\t\t%s\n", line)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString("\nDetailed Rationales:\n")
	for _, key := range keys {
		e := report.DetailedBreakdown[key]
		fmt.Fprintf(&b, "\n%s:\n  %s\n", e.ModelName, e.Rationale)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Insights condenses one evaluation into a few short lines.
func Insights(e judge.ModelEvaluation) []string {
	var lines []string
	if n := len(e.MatchingSkills); n > 0 {
		lines = append(lines, "[OK] Skills: "+strings.Join(e.MatchingSkills[:min(3, n)], ", "))
		if n > 3 {
			lines = append(lines, fmt.Sprintf("  + %d more", n-3))
		}
	}
	if n := len(e.MissingRequirements); n > 0 {
		lines = append(lines, "[-] Missing: "+strings.Join(e.MissingRequirements[:min(2, n)], ", "))
		if n > 2 {
			lines = append(lines, fmt.Sprintf("  + %d more", n-2))
		}
	}
	if n := len(e.RedFlags); n > 0 {
		lines = append(lines, "[!] Concerns: "+strings.Join(e.RedFlags[:min(2, n)], ", "))
	}
	return lines
}
