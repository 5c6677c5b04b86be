package builder

import (
	"context"
	"fmt"

	"github.com/spigell/cv-refiner/internal/changes"
	"github.com/spigell/cv-refiner/internal/cv"
	"github.com/spigell/cv-refiner/internal/impact"
	"github.com/spigell/cv-refiner/internal/optimizer"

	"go.uber.org/zap"
)

// Phase is a single step of the optimization pipeline.
type Phase interface {
	Name() string
	Apply(ctx context.Context, in *cv.CV, report *changes.Report) (*cv.CV, error)
}

// Step describes the result of executing a phase.
type Step struct {
	Phase       string
	WordsBefore int
	WordsAfter  int
	Changes     int
}

// runPhases executes the phases in order. Each phase gets the output of the previous one.
func runPhases(ctx context.Context, log *zap.Logger, phases []Phase, in *cv.CV, report *changes.Report) (*cv.CV, []Step, error) {
	steps := make([]Step, 0, len(phases))
	current := in

	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return nil, steps, err
		}

		before, recorded := current.WordCount(), report.Len()

		next, err := phase.Apply(ctx, current, report)
		if err != nil {
			return nil, steps, fmt.Errorf("%s: %w", phase.Name(), err)
		}

		step := Step{
			Phase:       phase.Name(),
			WordsBefore: before,
			WordsAfter:  next.WordCount(),
			Changes:     report.Len() - recorded,
		}
		log.Info("optimization step",
			zap.String("name", step.Phase),
			zap.Int("words_before", step.WordsBefore),
			zap.Int("words_after", step.WordsAfter),
			zap.Int("changes", step.Changes),
		)

		steps = append(steps, step)
		current = next
	}

	return current, steps, nil
}

type removePhase struct {
	opt   *optimizer.Optimizer
	words int
}

func (p *removePhase) Name() string { return "remove" }

func (p *removePhase) Apply(_ context.Context, in *cv.CV, _ *changes.Report) (*cv.CV, error) {
	return p.opt.RemoveSectionsByPriority(in, p.words), nil
}

type condensePhase struct {
	opt     *optimizer.Optimizer
	section string
}

func (p *condensePhase) Name() string { return "condense_" + p.section }

func (p *condensePhase) Apply(_ context.Context, in *cv.CV, _ *changes.Report) (*cv.CV, error) {
	return p.opt.CondenseBulletsInSection(in, p.section), nil
}

const reasonImpact = "Added real-world impact language"

// impactPhase rewrites bullets that lack business impact wording.
type impactPhase struct {
	opt      *optimizer.Optimizer
	sections []string
}

func (p *impactPhase) Name() string { return "impact" }

func (p *impactPhase) Apply(_ context.Context, in *cv.CV, report *changes.Report) (*cv.CV, error) {
	out := in.Clone()

	for _, section := range p.sections {
		for idx := 0; idx < out.Len(section); idx++ {
			bullets := out.Bullets(section, idx)
			if bullets == nil {
				continue
			}

			enhanced := impact.Enhance(*bullets)
			for i, bullet := range *bullets {
				if enhanced[i] == bullet {
					continue
				}
				report.Add(changes.Change{
					Type:       changes.Modified,
					Section:    section,
					ItemKey:    fmt.Sprintf("%s_%d_bullet", section, idx),
					Before:     bullet,
					After:      enhanced[i],
					Reason:     reasonImpact,
					WordsSaved: max(0, cv.CountWords(bullet)-cv.CountWords(enhanced[i])),
					Importance: p.opt.ImportanceFor(section, idx),
				})
			}
			*bullets = enhanced
		}
	}

	return out, nil
}
