package cvconfig

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`---
page_limit: 2
style_preference:
  tone: casual
priorities:
  awards: HIGH
---
# Notes
`))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.PageLimit)
	assert.Equal(t, 2, cfg.TotalPages)
	assert.Equal(t, "casual", cfg.StylePreference.Tone)
	assert.Equal(t, "concise", cfg.StylePreference.DetailLevel)
	assert.Equal(t, PriorityHigh, cfg.Priorities.Awards)
	assert.Equal(t, PriorityHigh, cfg.Priorities.Experience)
	assert.Equal(t, PriorityLow, cfg.Priorities.Certifications)
	assert.InDelta(t, 0.3, cfg.ProjectPrioritization.TechnicalComplexity, 1e-9)
	assert.Equal(t, []string{"experience", "projects", "skills", "education", "certifications"}, cfg.Structure.Sections)
	assert.Equal(t, "Lora", cfg.DocxFormat.FontFamily)
	assert.Equal(t, 14, cfg.DocxFormat.FontSizes["name"])
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no front matter", content: "# just markdown", want: "front matter"},
		{name: "missing page limit", content: "---\nstyle_preference: {}\n---\n", want: "page_limit"},
		{name: "missing style", content: "---\npage_limit: 1\n---\n", want: "style_preference"},
		{name: "page limit out of range", content: "---\npage_limit: 4\nstyle_preference: {}\n---\n", want: "page_limit must be an integer between 1 and 3"},
		{name: "bad priority", content: "---\npage_limit: 1\nstyle_preference: {}\npriorities:\n  skills: URGENT\n---\n", want: "priorities.skills must be one of"},
		{name: "bad tone", content: "---\npage_limit: 1\nstyle_preference:\n  tone: shouty\n---\n", want: "style_preference.tone"},
		{name: "negative weight", content: "---\npage_limit: 1\nstyle_preference: {}\nproject_prioritization:\n  recency: -1\n---\n", want: "project_prioritization.recency"},
		{name: "empty sections", content: "---\npage_limit: 1\nstyle_preference: {}\nstructure:\n  sections: []\n---\n", want: "structure.sections"},
		{name: "non numeric page limit", content: "---\npage_limit: many\nstyle_preference: {}\n---\n", want: "page_limit must be an integer"},
		{name: "fractional page limit", content: "---\npage_limit: 2.7\nstyle_preference: {}\n---\n", want: "page_limit must be an integer between 1 and 3, got 2.7"},
		{name: "float page limit", content: "---\npage_limit: 2.0\nstyle_preference: {}\n---\n", want: "page_limit must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWeightsNormalize(t *testing.T) {
	t.Parallel()

	inputs := []ProjectPrioritizationWeights{
		{TechnicalComplexity: 1, ImpactMetrics: 1, Maturity: 1, KeywordRelevance: 1, Recency: 1},
		{TechnicalComplexity: 0.3, ImpactMetrics: 0.3, Maturity: 0.2, KeywordRelevance: 0.1, Recency: 0.1},
		{TechnicalComplexity: 7},
		{Maturity: 0.001, Recency: 1000},
		{TechnicalComplexity: 3, ImpactMetrics: 5, Maturity: 11, KeywordRelevance: 13, Recency: 17},
	}

	for _, in := range inputs {
		got := in.Normalize().Sum()
		assert.LessOrEqual(t, math.Abs(got-1.0), 0.01, "weights %+v", in)
	}

	zero := ProjectPrioritizationWeights{}
	assert.Equal(t, zero, zero.Normalize())
}

func TestPriorityValues(t *testing.T) {
	t.Parallel()

	p := Default(1).Priorities
	assert.Equal(t, 3, p.Value("experience"))
	assert.Equal(t, 3, p.Value("Projects"))
	assert.Equal(t, 2, p.Value("skills"))
	assert.Equal(t, 1, p.Value("awards"))
	assert.Equal(t, 1, p.Value("hobbies"))
}

func TestStructureOrder(t *testing.T) {
	t.Parallel()

	s := Structure{Sections: []string{"a", "b", "c"}}
	assert.Equal(t, []string{"a", "b", "c"}, s.Order())

	s.Indexes = []int{2, 0, 9}
	assert.Equal(t, []string{"c", "a"}, s.Order())
}

func TestDefaultClampsPageLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Default(0).PageLimit)
	assert.Equal(t, 3, Default(9).PageLimit)
	require.NoError(t, Default(2).Validate())
}

func TestTemplateRoundTrip(t *testing.T) {
	t.Parallel()

	tmpl, err := Template(2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cv_config.md")
	require.NoError(t, os.WriteFile(path, []byte(tmpl), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.PageLimit)
	assert.Equal(t, Default(2).Priorities, cfg.Priorities)
	assert.Equal(t, Default(2).Rules, cfg.Rules)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.md"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}
