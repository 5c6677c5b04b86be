package optimizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/cv-refiner/internal/changes"
	"github.com/spigell/cv-refiner/internal/cv"
	"github.com/spigell/cv-refiner/internal/cvconfig"

	"go.uber.org/zap"
)

// RemovalOrder is the fixed section precedence for removal, lowest priority first.
// It does not consult the configured section priorities.
var RemovalOrder = []string{
	cv.SectionCertifications,
	cv.SectionAwards,
	cv.SectionEducation,
	cv.SectionSkills,
	cv.SectionProjects,
	cv.SectionExperience,
}

const (
	reasonRemoved   = "Lower priority item removed to reduce content"
	reasonCondensed = "Removed redundancy and tightened wording"
	reasonDropped   = "Bullet too short after condensing, dropped"

	beforePreviewLimit = 100
	minBulletWords     = 5
)

// Optimizer trims a CV toward a word budget. It records every edit in its change report.
type Optimizer struct {
	cfg    *cvconfig.Config
	report *changes.Report
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Optimizer)

// WithClock overrides the clock used for date heuristics and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func New(cfg *cvconfig.Config, opts ...Option) *Optimizer {
	if cfg == nil {
		cfg = cvconfig.Default(1)
	}

	o := &Optimizer{
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.report = changes.NewReport(o.now())

	return o
}

// ScoreItemImportance scores how important an item is to keep. Section priority dominates:
// a positional boost of at most 5 never lifts an item across a priority level.
func (o *Optimizer) ScoreItemImportance(section string, index int) int {
	return o.cfg.Priorities.Value(section)*10 + max(0, 5-index)
}

// ImportanceFor labels an item for change reports.
func (o *Optimizer) ImportanceFor(section string, index int) changes.Importance {
	score := o.ScoreItemImportance(section, index)
	switch {
	case score >= 30:
		return changes.High
	case score >= 20:
		return changes.Medium
	default:
		return changes.Low
	}
}

// RemovableIndices lists the indexes that may be removed from a section of itemCount items.
// The first item is never removable, so a section with one item or less is protected.
func RemovableIndices(itemCount int) []int {
	if itemCount <= 1 {
		return []int{}
	}
	out := make([]int, 0, itemCount-1)
	for i := 1; i < itemCount; i++ {
		out = append(out, i)
	}
	return out
}

// RemoveSectionsByPriority drops trailing items, walking RemovalOrder, until wordsToRemove
// words have been removed. The input CV is not modified.
func (o *Optimizer) RemoveSectionsByPriority(in *cv.CV, wordsToRemove int) *cv.CV {
	out := in.Clone()
	remaining := wordsToRemove

	for _, section := range RemovalOrder {
		if remaining <= 0 {
			break
		}
		// Skill groups are one grouped block, not a list of entries; removal passes over them.
		if section == cv.SectionSkills {
			continue
		}

		items := out.Items(section)
		removable := RemovableIndices(len(items))

		for i := len(removable) - 1; i >= 0; i-- {
			if remaining <= 0 {
				break
			}

			idx := removable[i]
			text := removedText(items[idx])
			words := cv.CountWords(text)

			out.RemoveItem(section, idx)
			remaining -= words

			o.report.Add(changes.Change{
				Type:       changes.Removed,
				Section:    section,
				ItemKey:    fmt.Sprintf("%s_%d", section, idx),
				Before:     clip(text, beforePreviewLimit),
				Reason:     reasonRemoved,
				WordsSaved: words,
				Importance: o.ImportanceFor(section, idx),
			})
			o.logger.Debug("item removed",
				zap.String("section", section),
				zap.Int("index", idx),
				zap.Int("words_saved", words),
				zap.Int("words_remaining", max(0, remaining)),
			)
		}
	}

	return out
}

// CondenseBulletsInSection tightens every bullet of a section. Bullets left with five words
// or fewer are dropped. The input CV is not modified.
func (o *Optimizer) CondenseBulletsInSection(in *cv.CV, section string) *cv.CV {
	out := in.Clone()

	for idx := 0; idx < out.Len(section); idx++ {
		bullets := out.Bullets(section, idx)
		if bullets == nil {
			continue
		}

		kept := make([]string, 0, len(*bullets))
		for _, bullet := range *bullets {
			condensed := CondenseBullet(bullet)
			before := cv.CountWords(bullet)
			after := cv.CountWords(condensed)
			key := fmt.Sprintf("%s_%d_bullet", section, idx)

			if after <= minBulletWords {
				o.report.Add(changes.Change{
					Type:       changes.Removed,
					Section:    section,
					ItemKey:    key,
					Before:     clip(bullet, beforePreviewLimit),
					Reason:     reasonDropped,
					WordsSaved: before,
					Importance: changes.Low,
				})
				continue
			}

			kept = append(kept, condensed)
			if saved := before - after; saved > 0 {
				o.report.Add(changes.Change{
					Type:       changes.Condensed,
					Section:    section,
					ItemKey:    key,
					Before:     clip(bullet, beforePreviewLimit),
					After:      clip(condensed, beforePreviewLimit),
					Reason:     reasonCondensed,
					WordsSaved: saved,
					Importance: changes.Medium,
				})
			}
		}
		*bullets = kept
	}

	return out
}

// Report returns the change report with its summary computed.
func (o *Optimizer) Report() *changes.Report {
	o.report.CalculateSummary()
	return o.report
}

// removedText is the text credited for a removed item. A degree is credited by its school only;
// its details are not sub-points.
func removedText(item cv.Item) string {
	if d, ok := item.(cv.Degree); ok {
		return strings.TrimSpace(d.School)
	}
	return item.Text()
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
