package cvconfig

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const frontMatterDelimiter = "---"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Load reads a CV config from a Markdown file that starts with YAML front matter.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %w", ErrInvalidConfig, path, err)
	}

	return Parse(content)
}

// Parse decodes Markdown content with YAML front matter. page_limit and style_preference
// are required; everything else falls back to Default values.
func Parse(content []byte) (*Config, error) {
	frontMatter, ok := splitFrontMatter(string(content))
	if !ok {
		return nil, fmt.Errorf("%w: config file must have YAML front matter (starting with ---)", ErrInvalidConfig)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBufferString(frontMatter)); err != nil {
		return nil, fmt.Errorf("%w: parsing YAML front matter: %w", ErrInvalidConfig, err)
	}

	if !v.IsSet("page_limit") {
		return nil, fmt.Errorf("%w: config must have required field: page_limit", ErrInvalidConfig)
	}
	if !v.IsSet("style_preference") {
		return nil, fmt.Errorf("%w: config must have required field: style_preference", ErrInvalidConfig)
	}
	if !isInteger(v.Get("page_limit")) {
		return nil, fmt.Errorf("%w: page_limit must be an integer between 1 and 3, got %v", ErrInvalidConfig, v.Get("page_limit"))
	}

	setDefaults(v, Default(1))
	if !v.IsSet("total_pages") {
		v.Set("total_pages", v.Get("page_limit"))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding front matter: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isInteger reports whether a decoded YAML scalar is an integer. Floats and strings are not
// coerced.
func isInteger(value any) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// Validate reports every problem at once, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if math.Abs(c.ProjectPrioritization.Normalize().Sum()-1.0) > 0.01 {
		problems = append(problems, "project_prioritization weights must sum to approximately 1.0")
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w: validation failed:\n  - %s", ErrInvalidConfig, strings.Join(problems, "\n  - "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "gte", "lte":
		if field == "page_limit" {
			return "page_limit must be an integer between 1 and 3"
		}
		return fmt.Sprintf("%s must be %s %s", field, map[string]string{"gte": ">=", "lte": "<="}[fe.Tag()], fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got %q)", field, strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	case "min":
		return fmt.Sprintf("%s must have at least %s entry", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s must not be empty", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func splitFrontMatter(content string) (string, bool) {
	if !strings.HasPrefix(content, frontMatterDelimiter) {
		return "", false
	}
	rest := content[len(frontMatterDelimiter):]
	end := strings.Index(rest, frontMatterDelimiter)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("style_preference.tone", d.StylePreference.Tone)
	v.SetDefault("style_preference.detail_level", d.StylePreference.DetailLevel)
	v.SetDefault("style_preference.emphasis", d.StylePreference.Emphasis)

	v.SetDefault("priorities.experience", d.Priorities.Experience)
	v.SetDefault("priorities.projects", d.Priorities.Projects)
	v.SetDefault("priorities.skills", d.Priorities.Skills)
	v.SetDefault("priorities.education", d.Priorities.Education)
	v.SetDefault("priorities.certifications", d.Priorities.Certifications)
	v.SetDefault("priorities.awards", d.Priorities.Awards)

	v.SetDefault("structure.sections", d.Structure.Sections)

	w := d.ProjectPrioritization
	v.SetDefault("project_prioritization.technical_complexity", w.TechnicalComplexity)
	v.SetDefault("project_prioritization.impact_metrics", w.ImpactMetrics)
	v.SetDefault("project_prioritization.maturity", w.Maturity)
	v.SetDefault("project_prioritization.keyword_relevance", w.KeywordRelevance)
	v.SetDefault("project_prioritization.recency", w.Recency)

	v.SetDefault("rules.dos", d.Rules.Dos)
	v.SetDefault("rules.donts", d.Rules.Donts)

	f := d.DocxFormat
	v.SetDefault("docx_format.page_size", f.PageSize)
	v.SetDefault("docx_format.page_dimensions.width_inches", f.Dimensions.WidthInches)
	v.SetDefault("docx_format.page_dimensions.height_inches", f.Dimensions.HeightInches)
	v.SetDefault("docx_format.margins_inches", f.Margins)
	v.SetDefault("docx_format.font_family", f.FontFamily)
	for key, size := range f.FontSizes {
		v.SetDefault("docx_format.font_sizes."+key, size)
	}
	for key, size := range f.Spacing {
		v.SetDefault("docx_format.spacing."+key, size)
	}
	c := f.Constraints
	v.SetDefault("docx_format.constraints.max_pages", c.MaxPages)
	v.SetDefault("docx_format.constraints.available_height_inches", c.AvailableHeightInches)
	v.SetDefault("docx_format.constraints.available_width_inches", c.AvailableWidthInches)
	v.SetDefault("docx_format.constraints.words_per_page_estimate", c.WordsPerPageEstimate)
	v.SetDefault("docx_format.constraints.max_bullets_per_role", c.MaxBulletsPerRole)
	v.SetDefault("docx_format.constraints.max_projects", c.MaxProjects)
}

// Template renders a starter config file for the given page limit.
func Template(pageLimit int) (string, error) {
	body, err := Default(pageLimit).YAML()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(frontMatterDelimiter + "\n")
	b.WriteString(body)
	b.WriteString(frontMatterDelimiter + "\n\n")
	b.WriteString("# CV configuration\n\n")
	b.WriteString("Adjust the front matter above. `page_limit` (1-3) and `style_preference` are required.\n")
	return b.String(), nil
}
