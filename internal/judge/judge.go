package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/cv-refiner/internal/ai"
	"github.com/spigell/cv-refiner/internal/cv"
	"github.com/spigell/cv-refiner/internal/logger"
	"github.com/spigell/cv-refiner/internal/utils"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	maxGuidanceRunes    = 1000
)

var errMissingScore = errors.New("judge response has no score")

// Evaluator produces one evaluation of the analysis context.
type Evaluator interface {
	Evaluate(ctx context.Context, actx AnalysisContext) (*ModelEvaluation, error)
}

// LLMJudge asks one model for a structured evaluation.
type LLMJudge struct {
	model     Model
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewLLMJudge(model Model, generator ai.Generator, log *zap.Logger) *LLMJudge {
	return &LLMJudge{
		model:     model,
		generator: generator,
		logger:    logger.WithFields(log, logger.JudgeFields(model.Key, model.Name)...),
		maxLogLen: defaultMaxLogLength,
	}
}

func (j *LLMJudge) Evaluate(ctx context.Context, actx AnalysisContext) (*ModelEvaluation, error) {
	if j.generator == nil {
		return nil, fmt.Errorf("judge %s has no generator", j.model.Key)
	}
	if err := validate.Struct(actx); err != nil {
		return nil, fmt.Errorf("invalid analysis context: %w", err)
	}

	prompt := BuildPrompt(actx)
	j.logger.Debug("judge request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, j.maxLogLen)),
	)

	raw, err := j.generator.GenerateContent(ctx, "", prompt)
	if err != nil {
		return nil, err
	}

	j.logger.Debug("judge response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	evaluation, err := parseEvaluation(raw)
	if err != nil {
		return nil, err
	}

	// The model's self-reported name is not trusted.
	evaluation.ModelName = j.model.Name
	if err := validate.Struct(evaluation); err != nil {
		return nil, fmt.Errorf("invalid evaluation: %w", err)
	}

	return evaluation, nil
}

// BuildPrompt renders the evaluation prompt for the given documents.
func BuildPrompt(actx AnalysisContext) string {
	guidance := ""
	if g := sanitizeGuidance(actx.Guidance); g != "" {
		guidance = "\n\n**Special Guidance:** " + g
	}

	replacer := strings.NewReplacer(
		"{{GUIDANCE}}", guidance,
		"{{JD_TEXT}}", actx.JDText,
		"{{CV_TEXT}}", actx.CVText,
	)
	return strings.TrimSpace(replacer.Replace(promptTemplate))
}

// sanitizeGuidance folds guidance onto one line, defuses role markers and caps its length.
func sanitizeGuidance(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.NewReplacer("[", "(", "]", ")").Replace(s)
	if utf8.RuneCountInString(s) > maxGuidanceRunes {
		s = string([]rune(s)[:maxGuidanceRunes])
	}
	return s
}

func parseEvaluation(raw string) (*ModelEvaluation, error) {
	data, err := cv.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parse judge response: %w", err)
	}

	value, ok := data["score"]
	if !ok {
		return nil, errMissingScore
	}
	score, err := coerceScore(value)
	if err != nil {
		return nil, err
	}

	rationale, ok := data["rationale"]
	if !ok {
		return nil, errors.New("judge response has no rationale")
	}

	return &ModelEvaluation{
		Score:               score,
		MatchingSkills:      coerceStrings(data["matching_skills"]),
		MissingRequirements: coerceStrings(data["missing_requirements"]),
		RedFlags:            coerceStrings(data["red_flags"]),
		Strengths:           coerceStrings(data["strengths"]),
		Rationale:           coerceString(rationale),
	}, nil
}

// coerceScore accepts integral numbers and numeric strings.
func coerceScore(v any) (int, error) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("score %q is not a number", val)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("score has unexpected type %T", v)
	}

	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("score %v is not an integer", f)
	}
	return int(f), nil
}

func coerceStrings(v any) []string {
	result := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				result = append(result, s)
			}
		}
	case string:
		if s := strings.TrimSpace(val); s != "" {
			result = append(result, s)
		}
	}
	return result
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
