package tailoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/cv-refiner/internal/ai"
	"github.com/spigell/cv-refiner/internal/cv"
	"github.com/spigell/cv-refiner/internal/logger"

	"go.uber.org/zap"
)

//go:embed system.md
var systemPrompt string

//go:embed user.md
var userTemplate string

// MaxReadmeRunes caps each README excerpt sent to the model.
const MaxReadmeRunes = 12000

// Tailorer rewrites a CV with a model, using README excerpts as extra context.
type Tailorer struct {
	generator ai.Generator
	logger    *zap.Logger
}

func New(generator ai.Generator, log *zap.Logger) *Tailorer {
	return &Tailorer{
		generator: generator,
		logger:    logger.WithFields(log),
	}
}

// Tailor returns the raw object the model produced. The result is untrusted and must be
// normalized and checked by the caller.
func (t *Tailorer) Tailor(ctx context.Context, in *cv.CV, readmes map[string]string, guidance string) (map[string]any, error) {
	if t.generator == nil {
		return nil, errors.New("tailoring model is not configured")
	}
	if in == nil {
		return nil, errors.New("cv is required")
	}

	prompt, err := BuildUserPrompt(in, readmes, guidance)
	if err != nil {
		return nil, err
	}

	t.logger.Info("calling tailoring model",
		zap.String(logger.FieldModel, t.generator.Model()),
		zap.Int("readmes", len(readmes)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := t.generator.GenerateContent(ctx, strings.TrimSpace(systemPrompt), prompt)
	if err != nil {
		return nil, fmt.Errorf("tailoring request: %w", err)
	}

	t.logger.Debug("tailoring response received", zap.Int("response_length", utf8.RuneCountInString(raw)))

	out, err := cv.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("tailoring response: %w", err)
	}
	return out, nil
}

// BuildUserPrompt renders the user prompt. READMEs are included in name order.
func BuildUserPrompt(in *cv.CV, readmes map[string]string, guidance string) (string, error) {
	cvJSON, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal cv: %w", err)
	}

	guidance = strings.TrimSpace(guidance)
	if guidance == "" {
		guidance = "(none)"
	}

	replacer := strings.NewReplacer(
		"{{INVENTORY}}", in.Inventory(),
		"{{GUIDANCE}}", guidance,
		"{{CV_JSON}}", string(cvJSON),
		"{{READMES}}", readmeBlocks(readmes),
	)
	return strings.TrimSpace(replacer.Replace(userTemplate)), nil
}

func readmeBlocks(readmes map[string]string) string {
	if len(readmes) == 0 {
		return "(No README content provided.)"
	}

	names := make([]string, 0, len(readmes))
	for name := range readmes {
		names = append(names, name)
	}
	sort.Strings(names)

	blocks := make([]string, 0, len(names))
	for _, name := range names {
		content := readmes[name]
		if utf8.RuneCountInString(content) > MaxReadmeRunes {
			content = string([]rune(content)[:MaxReadmeRunes])
		}
		blocks = append(blocks, fmt.Sprintf("### %s\n%s", name, content))
	}
	return strings.Join(blocks, "\n\n")
}

// LoadReadmes reads README files keyed by file name. Directories contribute their *.md files.
func LoadReadmes(paths ...string) (map[string]string, error) {
	readmes := make(map[string]string)
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("readme %q: %w", path, err)
		}

		files := []string{path}
		if info.IsDir() {
			files, err = filepath.Glob(filepath.Join(path, "*.md"))
			if err != nil {
				return nil, err
			}
		}

		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("reading readme: %w", err)
			}
			readmes[filepath.Base(file)] = strings.ToValidUTF8(string(data), "")
		}
	}
	return readmes, nil
}
