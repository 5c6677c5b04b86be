package cvconfig

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks configuration problems that must stop a run before it starts.
var ErrInvalidConfig = errors.New("invalid cv config")

type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "LOW"
	PriorityMedium PriorityLevel = "MEDIUM"
	PriorityHigh   PriorityLevel = "HIGH"
)

// Value maps a level to its numeric weight. Unknown levels count as LOW.
func (p PriorityLevel) Value() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Config is the per-CV configuration read from the front matter of a Markdown file.
type Config struct {
	PageLimit             int                          `mapstructure:"page_limit" yaml:"page_limit" validate:"gte=1,lte=3"`
	TotalPages            int                          `mapstructure:"total_pages" yaml:"total_pages" validate:"gte=0"`
	StylePreference       StylePreference              `mapstructure:"style_preference" yaml:"style_preference"`
	Priorities            SectionPriorities            `mapstructure:"priorities" yaml:"priorities"`
	Structure             Structure                    `mapstructure:"structure" yaml:"structure"`
	ProjectPrioritization ProjectPrioritizationWeights `mapstructure:"project_prioritization" yaml:"project_prioritization"`
	Rules                 Rules                        `mapstructure:"rules" yaml:"rules"`
	DocxFormat            DocxFormat                   `mapstructure:"docx_format" yaml:"docx_format"`
}

type StylePreference struct {
	Tone        string `mapstructure:"tone" yaml:"tone" validate:"oneof=formal professional casual"`
	DetailLevel string `mapstructure:"detail_level" yaml:"detail_level" validate:"oneof=concise balanced detailed"`
	Emphasis    string `mapstructure:"emphasis" yaml:"emphasis" validate:"oneof=impact_metrics technical_depth growth_trajectory balanced"`
}

type SectionPriorities struct {
	Experience     PriorityLevel `mapstructure:"experience" yaml:"experience" validate:"oneof=LOW MEDIUM HIGH"`
	Projects       PriorityLevel `mapstructure:"projects" yaml:"projects" validate:"oneof=LOW MEDIUM HIGH"`
	Skills         PriorityLevel `mapstructure:"skills" yaml:"skills" validate:"oneof=LOW MEDIUM HIGH"`
	Education      PriorityLevel `mapstructure:"education" yaml:"education" validate:"oneof=LOW MEDIUM HIGH"`
	Certifications PriorityLevel `mapstructure:"certifications" yaml:"certifications" validate:"oneof=LOW MEDIUM HIGH"`
	Awards         PriorityLevel `mapstructure:"awards" yaml:"awards" validate:"oneof=LOW MEDIUM HIGH"`
}

// Level returns the configured level of a section, LOW for sections without one.
func (s SectionPriorities) Level(section string) PriorityLevel {
	switch strings.ToLower(section) {
	case "experience":
		return s.Experience
	case "projects":
		return s.Projects
	case "skills":
		return s.Skills
	case "education":
		return s.Education
	case "certifications":
		return s.Certifications
	case "awards":
		return s.Awards
	}
	return PriorityLow
}

// Value is the numeric priority of a section, higher is more important.
func (s SectionPriorities) Value(section string) int {
	return s.Level(section).Value()
}

type Structure struct {
	Sections []string `mapstructure:"sections" yaml:"sections" validate:"min=1,dive,required"`
	Indexes  []int    `mapstructure:"order" yaml:"order,omitempty" validate:"omitempty,dive,gte=0"`
}

// Order returns the sections in display order. Indexes past the end are skipped.
func (s Structure) Order() []string {
	if s.Indexes == nil {
		return s.Sections
	}
	out := make([]string, 0, len(s.Indexes))
	for _, i := range s.Indexes {
		if i >= 0 && i < len(s.Sections) {
			out = append(out, s.Sections[i])
		}
	}
	return out
}

type ProjectPrioritizationWeights struct {
	TechnicalComplexity float64 `mapstructure:"technical_complexity" yaml:"technical_complexity" validate:"gte=0"`
	ImpactMetrics       float64 `mapstructure:"impact_metrics" yaml:"impact_metrics" validate:"gte=0"`
	Maturity            float64 `mapstructure:"maturity" yaml:"maturity" validate:"gte=0"`
	KeywordRelevance    float64 `mapstructure:"keyword_relevance" yaml:"keyword_relevance" validate:"gte=0"`
	Recency             float64 `mapstructure:"recency" yaml:"recency" validate:"gte=0"`
}

func (w ProjectPrioritizationWeights) Sum() float64 {
	return w.TechnicalComplexity + w.ImpactMetrics + w.Maturity + w.KeywordRelevance + w.Recency
}

// Normalize scales the weights to sum to 1. All-zero weights are returned unchanged.
func (w ProjectPrioritizationWeights) Normalize() ProjectPrioritizationWeights {
	total := w.Sum()
	if total == 0 {
		return w
	}
	return ProjectPrioritizationWeights{
		TechnicalComplexity: w.TechnicalComplexity / total,
		ImpactMetrics:       w.ImpactMetrics / total,
		Maturity:            w.Maturity / total,
		KeywordRelevance:    w.KeywordRelevance / total,
		Recency:             w.Recency / total,
	}
}

type Rules struct {
	Dos   []string `mapstructure:"dos" yaml:"dos"`
	Donts []string `mapstructure:"donts" yaml:"donts"`
}

// DocxFormat is carried for the document renderer and not interpreted here.
type DocxFormat struct {
	PageSize    string          `mapstructure:"page_size" yaml:"page_size"`
	Dimensions  PageDimensions  `mapstructure:"page_dimensions" yaml:"page_dimensions"`
	Margins     float64         `mapstructure:"margins_inches" yaml:"margins_inches"`
	FontFamily  string          `mapstructure:"font_family" yaml:"font_family"`
	FontSizes   map[string]int  `mapstructure:"font_sizes" yaml:"font_sizes"`
	Spacing     map[string]int  `mapstructure:"spacing" yaml:"spacing"`
	Constraints DocxConstraints `mapstructure:"constraints" yaml:"constraints"`
	Formatting  map[string]any  `mapstructure:"formatting" yaml:"formatting,omitempty"`
}

type PageDimensions struct {
	WidthInches  float64 `mapstructure:"width_inches" yaml:"width_inches"`
	HeightInches float64 `mapstructure:"height_inches" yaml:"height_inches"`
}

type DocxConstraints struct {
	MaxPages              int     `mapstructure:"max_pages" yaml:"max_pages"`
	AvailableHeightInches float64 `mapstructure:"available_height_inches" yaml:"available_height_inches"`
	AvailableWidthInches  float64 `mapstructure:"available_width_inches" yaml:"available_width_inches"`
	WordsPerPageEstimate  int     `mapstructure:"words_per_page_estimate" yaml:"words_per_page_estimate"`
	MaxBulletsPerRole     int     `mapstructure:"max_bullets_per_role" yaml:"max_bullets_per_role"`
	MaxProjects           int     `mapstructure:"max_projects" yaml:"max_projects"`
}

// Default returns the built-in configuration with the page limit clamped into [1,3].
func Default(pageLimit int) *Config {
	pageLimit = max(1, min(3, pageLimit))
	return &Config{
		PageLimit:  pageLimit,
		TotalPages: 1,
		StylePreference: StylePreference{
			Tone:        "professional",
			DetailLevel: "concise",
			Emphasis:    "impact_metrics",
		},
		Priorities: SectionPriorities{
			Experience:     PriorityHigh,
			Projects:       PriorityHigh,
			Skills:         PriorityMedium,
			Education:      PriorityMedium,
			Certifications: PriorityLow,
			Awards:         PriorityLow,
		},
		Structure: Structure{
			Sections: []string{"experience", "projects", "skills", "education", "certifications"},
		},
		ProjectPrioritization: ProjectPrioritizationWeights{
			TechnicalComplexity: 0.3,
			ImpactMetrics:       0.3,
			Maturity:            0.2,
			KeywordRelevance:    0.1,
			Recency:             0.1,
		},
		Rules: Rules{
			Dos: []string{
				"Use quantified metrics",
				"Include real-world impact",
				"Action-verb-first bullets",
				"Focus on outcomes over tasks",
			},
			Donts: []string{
				"Avoid buzzwords",
				"Don't list tools without context",
				"Don't use passive voice",
				"Don't exceed page limit",
			},
		},
		DocxFormat: defaultDocxFormat(),
	}
}

func defaultDocxFormat() DocxFormat {
	return DocxFormat{
		PageSize:   "A4",
		Dimensions: PageDimensions{WidthInches: 8.27, HeightInches: 11.69},
		Margins:    0.25,
		FontFamily: "Lora",
		FontSizes: map[string]int{
			"name": 14, "title": 10, "section_heading": 10, "role_header": 9,
			"bullet": 9, "skills_label": 9, "contact_info": 8,
		},
		Spacing: map[string]int{
			"section_before": 6, "section_after": 2, "role_before": 3, "role_after": 1,
			"bullet_before": 0, "bullet_after": 1, "name_before": 0, "name_after": 0,
		},
		Constraints: DocxConstraints{
			MaxPages:              1,
			AvailableHeightInches: 10.94,
			AvailableWidthInches:  7.77,
			WordsPerPageEstimate:  250,
			MaxBulletsPerRole:     5,
			MaxProjects:           3,
		},
	}
}

// YAML renders the effective configuration.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
