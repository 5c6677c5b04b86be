package builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/cv-refiner/internal/changes"
	"github.com/spigell/cv-refiner/internal/cv"
	"github.com/spigell/cv-refiner/internal/cvconfig"
	"github.com/spigell/cv-refiner/internal/logger"
	"github.com/spigell/cv-refiner/internal/optimizer"

	"go.uber.org/zap"
)

const (
	// WordsPerPage is the page size estimate used to turn a page overflow into a word budget.
	WordsPerPage = 275
	// DefaultCurrentPages is assumed when the caller has no page estimate.
	DefaultCurrentPages = 2

	removalShare = 0.7
)

// CondensedSections are condensed in this order.
var CondensedSections = []string{cv.SectionExperience, cv.SectionProjects, cv.SectionSkills}

var impactSections = []string{cv.SectionExperience, cv.SectionProjects}

// Tailor rewrites a CV with a model. The returned document is untrusted.
type Tailor interface {
	Tailor(ctx context.Context, in *cv.CV, readmes map[string]string, guidance string) (map[string]any, error)
}

// Result is the outcome of a builder run.
type Result struct {
	CV     *cv.CV
	Report *changes.Report
	Steps  []Step
}

// Builder drives the optimization phases over a CV. The CV it was created with is kept as
// the restore point and is never modified.
type Builder struct {
	cfg      *cvconfig.Config
	original *cv.CV
	current  *cv.CV
	tailor   Tailor
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Builder)

func WithTailor(t Tailor) Option {
	return func(b *Builder) {
		b.tailor = t
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.logger = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

func New(in *cv.CV, cfg *cvconfig.Config, opts ...Option) *Builder {
	if cfg == nil {
		cfg = cvconfig.Default(1)
	}

	b := &Builder{
		cfg:      cfg,
		original: in.Clone(),
		current:  in.Clone(),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logger.WithFields(b.logger)

	return b
}

// Original returns a copy of the restore point.
func (b *Builder) Original() *cv.CV {
	return b.original.Clone()
}

// Current returns a copy of the latest accepted CV.
func (b *Builder) Current() *cv.CV {
	return b.current.Clone()
}

// WordsToRemove converts the page overflow into a word budget. It is zero when the CV
// already fits.
func WordsToRemove(currentPages, targetPages int) int {
	if currentPages <= targetPages {
		return 0
	}
	return (currentPages - targetPages) * WordsPerPage
}

// OptimizeForPageLimit runs the remove, condense and impact phases. A non-positive
// currentPages falls back to DefaultCurrentPages.
func (b *Builder) OptimizeForPageLimit(ctx context.Context, currentPages int) (*Result, error) {
	if currentPages <= 0 {
		currentPages = DefaultCurrentPages
	}

	opt := optimizer.New(b.cfg, optimizer.WithClock(b.now), optimizer.WithLogger(b.logger))
	report := opt.Report()

	words := WordsToRemove(currentPages, b.cfg.PageLimit)
	if words == 0 {
		b.logger.Info("cv already fits the page limit",
			zap.Int("current_pages", currentPages),
			zap.Int("page_limit", b.cfg.PageLimit),
		)
		return &Result{CV: b.current.Clone(), Report: report}, nil
	}

	b.logger.Info("optimizing cv for page limit",
		zap.Int("current_pages", currentPages),
		zap.Int("page_limit", b.cfg.PageLimit),
		zap.Int("words_to_remove", words),
		zap.Int("words", b.current.WordCount()),
	)

	phases := []Phase{&removePhase{opt: opt, words: int(float64(words) * removalShare)}}
	for _, section := range CondensedSections {
		phases = append(phases, &condensePhase{opt: opt, section: section})
	}
	phases = append(phases, &impactPhase{opt: opt, sections: impactSections})

	out, steps, err := runPhases(ctx, b.logger, phases, b.current, report)
	if err != nil {
		return nil, err
	}

	b.current = out
	return &Result{CV: out.Clone(), Report: opt.Report(), Steps: steps}, nil
}

// TailorWithAI hands the current CV to the tailoring model. The model output is normalized,
// checked against the input and compared section by section.
func (b *Builder) TailorWithAI(ctx context.Context, readmes map[string]string, guidance string) (*Result, error) {
	if b.tailor == nil {
		return nil, errors.New("ai tailoring is not configured")
	}

	raw, err := b.tailor.Tailor(ctx, b.current, readmes, guidance)
	if err != nil {
		return nil, fmt.Errorf("ai tailoring: %w", err)
	}

	tailored := cv.Normalize(raw)
	b.preserve(b.current, tailored)
	b.restoreRequired(tailored)

	report := compare(b.current, tailored, b.now())
	report.CalculateSummary()

	b.logger.Info("ai tailoring applied",
		zap.Int("changes", report.Len()),
		zap.Int("words_before", b.current.WordCount()),
		zap.Int("words_after", tailored.WordCount()),
	)

	b.current = tailored
	return &Result{CV: tailored.Clone(), Report: report}, nil
}

// OptimizeAndTailor optimizes with the default page estimate and then tailors the result.
// The reports of both runs are concatenated.
func (b *Builder) OptimizeAndTailor(ctx context.Context, readmes map[string]string, guidance string) (*Result, error) {
	optimized, err := b.OptimizeForPageLimit(ctx, DefaultCurrentPages)
	if err != nil {
		return nil, err
	}

	tailored, err := b.TailorWithAI(ctx, readmes, guidance)
	if err != nil {
		return nil, err
	}

	report := changes.NewReport(b.now())
	report.Extend(optimized.Report)
	report.Extend(tailored.Report)
	report.CalculateSummary()

	return &Result{CV: tailored.CV, Report: report, Steps: optimized.Steps}, nil
}
