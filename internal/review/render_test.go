package review

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spigell/cv-refiner/internal/builder"
	"github.com/spigell/cv-refiner/internal/changes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *changes.Report {
	r := changes.NewReport(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	r.Add(changes.Change{
		Type: changes.Removed, Section: "projects", ItemKey: "projects_2",
		Before: strings.Repeat("b", 80), After: "ignored", Reason: "Lower priority", WordsSaved: 12,
	})
	r.Add(changes.Change{
		Type: changes.Condensed, Section: "experience", ItemKey: "experience_0_bullet",
		Before: "Responsible for the platform", After: "the platform", Reason: "Tightened", WordsSaved: 2,
	})
	return r
}

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "CV OPTIMIZATION SUMMARY")
	assert.Contains(t, out, "   - Total changes: 2\n")
	assert.Contains(t, out, "   - Words removed: 14\n")
	assert.Contains(t, out, "   [~] Condensed: 1\n")
	assert.Contains(t, out, "   - Experience: 1\n")
	assert.Less(t, strings.Index(out, "[~] Condensed"), strings.Index(out, "[-] Removed"))
}

func TestRenderDetails(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderDetails(&buf, sampleReport(), 0))
	out := buf.String()

	assert.Contains(t, out, "DETAILED CHANGES (showing first 2)")
	assert.Less(t, strings.Index(out, "EXPERIENCE"), strings.Index(out, "PROJECTS"))
	assert.Contains(t, out, "[~] [CONDENSED] experience_0_bullet")
	assert.Contains(t, out, `   After:  "the platform"`)
	assert.Contains(t, out, `   Before: "`+strings.Repeat("b", 70)+`..."`)
	assert.NotContains(t, out, "ignored")
}

func TestRenderDetailsLimit(t *testing.T) {
	t.Parallel()

	r := changes.NewReport(time.Now())
	for i := 0; i < 13; i++ {
		r.Add(changes.Change{Type: changes.Modified, Section: "summary", ItemKey: fmt.Sprintf("summary_%d", i)})
	}

	var buf bytes.Buffer
	require.NoError(t, RenderDetails(&buf, r, 0))
	out := buf.String()

	assert.Contains(t, out, "showing first 10")
	assert.Contains(t, out, "summary_9\n")
	assert.NotContains(t, out, "summary_10")
	assert.Contains(t, out, "... and 3 more changes")

	buf.Reset()
	require.NoError(t, RenderDetails(&buf, changes.NewReport(time.Now()), 5))
	assert.Contains(t, buf.String(), "No detailed changes to display.")
}

func TestChoiceAt(t *testing.T) {
	t.Parallel()

	want := []builder.Choice{builder.ChoiceApprove, builder.ChoiceReject, builder.ChoiceSteer, builder.ChoiceDetail}
	for i, c := range want {
		got, err := ChoiceAt(i)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ChoiceAt(len(want))
	assert.Error(t, err)
	_, err = ChoiceAt(-1)
	assert.Error(t, err)
}

func TestTerminalRendersToOut(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	term := &Terminal{Out: &buf, Limit: 1}
	require.NoError(t, term.ShowDetails(sampleReport()))
	assert.Contains(t, buf.String(), "... and 1 more changes")
}
