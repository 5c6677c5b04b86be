package consensus

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spigell/cv-refiner/internal/judge"
)

// DefaultThreshold is the score spread above which judges are considered in disagreement.
const DefaultThreshold = 25

// Aggregator combines judge evaluations into one report. It holds no state besides its
// configuration, so the same input always yields the same report.
type Aggregator struct {
	Registry  judge.Registry
	Threshold int
}

func New(registry judge.Registry) *Aggregator {
	return &Aggregator{Registry: registry, Threshold: DefaultThreshold}
}

func (a *Aggregator) threshold() int {
	if a.Threshold <= 0 {
		return DefaultThreshold
	}
	return a.Threshold
}

// ConsensusScore is the weighted mean of the scores. A judge missing from weights counts
// with 1/N. Registry weights are used when weights is nil.
func (a *Aggregator) ConsensusScore(evaluations map[string]judge.ModelEvaluation, weights map[string]float64) float64 {
	if len(evaluations) == 0 {
		return 0
	}
	if weights == nil {
		weights = a.Registry.Weights()
	}

	var sum, total float64
	for _, key := range a.order(evaluations) {
		w, ok := weights[key]
		if !ok {
			w = 1 / float64(len(evaluations))
		}
		sum += float64(evaluations[key].Score) * w
		total += w
	}

	if total <= 0 {
		return 0
	}
	return sum / total
}

// DetectDiscordance reports whether the score spread exceeds the threshold.
// Fewer than two evaluations can never disagree.
func (a *Aggregator) DetectDiscordance(evaluations map[string]judge.ModelEvaluation) bool {
	if len(evaluations) < 2 {
		return false
	}
	lo, hi := spread(evaluations)
	return hi-lo > a.threshold()
}

// Highlights lists the points all judges agree on.
func (a *Aggregator) Highlights(evaluations map[string]judge.ModelEvaluation) []string {
	highlights := []string{}
	if len(evaluations) == 0 {
		return highlights
	}

	keys := a.order(evaluations)

	skills := make([][]string, 0, len(keys))
	flags := make([][]string, 0, len(keys))
	for _, key := range keys {
		skills = append(skills, evaluations[key].MatchingSkills)
		flags = append(flags, evaluations[key].RedFlags)
	}

	if common := intersect(skills); len(common) > 0 {
		highlights = append(highlights, "Universally recognized skills: "+strings.Join(common, ", "))
	}
	if common := intersect(flags); len(common) > 0 {
		highlights = append(highlights, "Unanimous concerns: "+strings.Join(common, ", "))
	}

	lo, hi := spread(evaluations)
	if hi-lo <= 10 {
		var total int
		for _, e := range evaluations {
			total += e.Score
		}
		avg := float64(total) / float64(len(evaluations))

		switch {
		case avg >= 80:
			highlights = append(highlights, "All models strongly recommend this candidate")
		case avg <= 40:
			highlights = append(highlights, "All models have significant concerns about fit")
		default:
			highlights = append(highlights, "All models agree on moderate fit (score variance < 10)")
		}
	}

	return highlights
}

// DiscordancePoints lists where judges disagree: the score gap and skills only one judge saw.
func (a *Aggregator) DiscordancePoints(evaluations map[string]judge.ModelEvaluation) []string {
	points := []string{}
	if len(evaluations) < 2 {
		return points
	}

	keys := a.order(evaluations)

	if a.DetectDiscordance(evaluations) {
		high, low := keys[0], keys[0]
		for _, key := range keys[1:] {
			if evaluations[key].Score > evaluations[high].Score {
				high = key
			}
			if evaluations[key].Score < evaluations[low].Score {
				low = key
			}
		}
		points = append(points, fmt.Sprintf("Score disagreement: %s rated %d, while %s rated %d",
			a.Registry.DisplayName(high), evaluations[high].Score,
			a.Registry.DisplayName(low), evaluations[low].Score,
		))
	}

	for _, key := range keys {
		others := make(map[string]struct{})
		for _, other := range keys {
			if other == key {
				continue
			}
			for _, s := range evaluations[other].MatchingSkills {
				others[s] = struct{}{}
			}
		}

		var unique []string
		for _, s := range dedupe(evaluations[key].MatchingSkills) {
			if _, seen := others[s]; !seen {
				unique = append(unique, s)
			}
		}
		if len(unique) > 0 {
			sort.Strings(unique)
			points = append(points, fmt.Sprintf("%s uniquely identified: %s",
				a.Registry.DisplayName(key), strings.Join(unique, ", ")))
		}
	}

	return points
}

// Recommendation maps the score to a hiring recommendation. Discordance always asks for a human.
func Recommendation(score float64, discordant bool) string {
	if discordant {
		return fmt.Sprintf("[!] **Manual Review Required** - Models show significant disagreement. "+
			"Consensus score: %.1f. Recommend human review to resolve discrepancies.", score)
	}

	switch {
	case score >= 80:
		return fmt.Sprintf("[OK] **Strong Recommend** - Excellent match with consensus score of %.1f. "+
			"Candidate demonstrates strong alignment with job requirements.", score)
	case score >= 65:
		return fmt.Sprintf("[+] **Recommend** - Good match with consensus score of %.1f. "+
			"Candidate meets most key requirements with some areas for growth.", score)
	case score >= 50:
		return fmt.Sprintf("[?] **Consider with Caution** - Moderate match with consensus score of %.1f. "+
			"Candidate has potential but significant gaps exist.", score)
	default:
		return fmt.Sprintf("[X] **Not Recommended** - Weak match with consensus score of %.1f. "+
			"Candidate does not meet core job requirements.", score)
	}
}

// Aggregate builds the final report. The recommendation uses the unrounded score while the
// report carries it rounded to one decimal.
func (a *Aggregator) Aggregate(evaluations map[string]judge.ModelEvaluation) judge.FinalReport {
	score := a.ConsensusScore(evaluations, nil)
	discordant := a.DetectDiscordance(evaluations)

	breakdown := make(map[string]judge.ModelEvaluation, len(evaluations))
	for k, v := range evaluations {
		breakdown[k] = v
	}

	return judge.FinalReport{
		ConsensusScore:      math.Round(score*10) / 10,
		JudgeDiscordance:    discordant,
		DetailedBreakdown:   breakdown,
		ConsensusHighlights: a.Highlights(evaluations),
		DiscordancePoints:   a.DiscordancePoints(evaluations),
		Recommendation:      Recommendation(score, discordant),
	}
}

func (a *Aggregator) order(evaluations map[string]judge.ModelEvaluation) []string {
	return judge.Order(a.Registry, evaluations)
}

func spread(evaluations map[string]judge.ModelEvaluation) (lo, hi int) {
	first := true
	for _, e := range evaluations {
		if first {
			lo, hi = e.Score, e.Score
			first = false
			continue
		}
		lo = min(lo, e.Score)
		hi = max(hi, e.Score)
	}
	return lo, hi
}

// intersect returns the sorted values present in every list.
func intersect(lists [][]string) []string {
	if len(lists) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, list := range lists {
		for _, s := range dedupe(list) {
			counts[s]++
		}
	}

	var common []string
	for s, n := range counts {
		if n == len(lists) {
			common = append(common, s)
		}
	}
	sort.Strings(common)
	return common
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
