package judge

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ModelEvaluation is one judge's verdict on a CV against a job description.
type ModelEvaluation struct {
	Score               int      `json:"score" validate:"gte=0,lte=100"`
	MatchingSkills      []string `json:"matching_skills"`
	MissingRequirements []string `json:"missing_requirements"`
	RedFlags            []string `json:"red_flags"`
	Strengths           []string `json:"strengths"`
	Rationale           string   `json:"rationale"`
	ModelName           string   `json:"model_name" validate:"required"`
}

// FinalReport is the aggregated verdict of all judges that answered.
type FinalReport struct {
	EnsembleID          string                     `json:"ensemble_id,omitempty"`
	ConsensusScore      float64                    `json:"consensus_score"`
	JudgeDiscordance    bool                       `json:"judge_discordance"`
	DetailedBreakdown   map[string]ModelEvaluation `json:"detailed_breakdown"`
	ConsensusHighlights []string                   `json:"consensus_highlights"`
	DiscordancePoints   []string                   `json:"discordance_points"`
	Recommendation      string                     `json:"recommendation"`
}

// AnalysisContext carries the documents every judge evaluates.
type AnalysisContext struct {
	CVText   string `validate:"required"`
	JDText   string `validate:"required"`
	Guidance string
}

// Model is one configured judge.
type Model struct {
	Key    string  `mapstructure:"key" yaml:"key" validate:"required"`
	ID     string  `mapstructure:"id" yaml:"id" validate:"required"`
	Name   string  `mapstructure:"name" yaml:"name" validate:"required"`
	Role   string  `mapstructure:"role" yaml:"role"`
	Weight float64 `mapstructure:"weight" yaml:"weight" validate:"gte=0"`
}

// Registry is the ordered set of judges taking part in an ensemble.
type Registry []Model

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "mapstructure"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// DefaultRegistry returns the three-judge ensemble used when no judges are configured.
func DefaultRegistry() Registry {
	return Registry{
		{Key: "gemini", ID: "google/gemini-3-flash-preview", Name: "Gemini 3 Flash Preview", Role: "Reasoning Lead", Weight: 0.35},
		{Key: "kimi", ID: "moonshotai/kimi-k2-0905", Name: "Kimi K2", Role: "Analytical", Weight: 0.35},
		{Key: "glm", ID: "z-ai/glm-4.7", Name: "GLM-4.7", Role: "Validation", Weight: 0.30},
	}
}

func (r Registry) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("judge registry is empty")
	}

	seen := make(map[string]struct{}, len(r))
	var total float64
	for i, m := range r {
		if err := validate.Struct(m); err != nil {
			return fmt.Errorf("judges[%d]: %w", i, err)
		}
		if _, dup := seen[m.Key]; dup {
			return fmt.Errorf("judges[%d]: duplicate key %q", i, m.Key)
		}
		seen[m.Key] = struct{}{}
		total += m.Weight
	}

	// A zero total would turn every consensus score into 0.
	if total <= 0 {
		return fmt.Errorf("judge weights must not all be zero")
	}

	return nil
}

func (r Registry) Lookup(key string) (Model, bool) {
	for _, m := range r {
		if m.Key == key {
			return m, true
		}
	}
	return Model{}, false
}

// DisplayName returns the configured name of a judge, or its key when unknown.
func (r Registry) DisplayName(key string) string {
	if m, ok := r.Lookup(key); ok && m.Name != "" {
		return m.Name
	}
	return key
}

func (r Registry) Weights() map[string]float64 {
	weights := make(map[string]float64, len(r))
	for _, m := range r {
		weights[m.Key] = m.Weight
	}
	return weights
}

func (r Registry) Keys() []string {
	keys := make([]string, 0, len(r))
	for _, m := range r {
		keys = append(keys, m.Key)
	}
	return keys
}

// Order sorts evaluation keys by registry position. Keys unknown to the registry follow, sorted.
func Order[V any](r Registry, evaluations map[string]V) []string {
	keys := make([]string, 0, len(evaluations))
	for _, m := range r {
		if _, ok := evaluations[m.Key]; ok {
			keys = append(keys, m.Key)
		}
	}

	var rest []string
	for key := range evaluations {
		if _, ok := r.Lookup(key); !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	return append(keys, rest...)
}
