package optimizer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/cv-refiner/internal/cv"
	"github.com/spigell/cv-refiner/internal/cvconfig"
)

var (
	techKeywords = []string{
		"machine learning", "ai", "llm", "deep learning", "neural",
		"kubernetes", "distributed", "microservices", "architecture",
		"optimization", "performance", "algorithm", "database", "sql",
	}

	metricKeywords = []string{"increased", "decreased", "improved", "reduced", "%", "x faster", "times"}
)

const (
	defaultMaturity     = 0.5
	defaultRecencyDays  = 365
	keywordRelevance    = 0.5
	recencyHorizonDays  = 1825
	techBase            = 0.3
	techBonusCap        = 1.0
	techBonusMultiplier = 0.5
)

type ProjectMetrics struct {
	Name                 string
	TechnicalComplexity  float64
	ImpactMetricsPresent bool
	MaturityScore        float64
	// KeywordRelevance is a constant until projects are matched against a job description.
	KeywordRelevance float64
	RecencyDays      int
	Description      string
}

// PriorityScore is the weighted keep-worthiness of a project. Recency decays linearly to zero
// over five years.
func (m ProjectMetrics) PriorityScore(w cvconfig.ProjectPrioritizationWeights) float64 {
	recency := max(0, 1-float64(m.RecencyDays)/recencyHorizonDays)
	impact := 0.3
	if m.ImpactMetricsPresent {
		impact = 1.0
	}
	return w.TechnicalComplexity*m.TechnicalComplexity +
		w.ImpactMetrics*impact +
		w.Maturity*m.MaturityScore +
		w.KeywordRelevance*m.KeywordRelevance +
		w.Recency*recency
}

type RankedProject struct {
	Index int
	Name  string
	Score float64
}

// RankProjectsForRemoval orders projects by ascending priority score: the first entry is the
// first removal candidate. Ties keep document order.
func (o *Optimizer) RankProjectsForRemoval(projects []cv.Project) []RankedProject {
	weights := o.cfg.ProjectPrioritization.Normalize()

	ranked := make([]RankedProject, 0, len(projects))
	for idx, p := range projects {
		m := o.ProjectMetrics(p)
		ranked = append(ranked, RankedProject{Index: idx, Name: m.Name, Score: m.PriorityScore(weights)})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score < ranked[j].Score })
	return ranked
}

// ProjectMetrics derives the ranking inputs of a project from its text and dates.
func (o *Optimizer) ProjectMetrics(p cv.Project) ProjectMetrics {
	name := p.Name
	if name == "" {
		name = "Unnamed Project"
	}
	description := strings.Join(p.Bullets, " ")
	lower := strings.ToLower(description)

	hits := 0
	for _, kw := range techKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	tech := min(techBonusCap, float64(hits)/float64(len(techKeywords))*techBonusMultiplier) + techBase

	hasMetrics := false
	for _, kw := range metricKeywords {
		if strings.Contains(lower, kw) {
			hasMetrics = true
			break
		}
	}

	maturity := defaultMaturity
	recencyDays := defaultRecencyDays
	if year, ok := trailingYear(p.Dates); ok {
		age := o.now().Year() - year
		maturity = min(1.0, float64(age)/5)
		recencyDays = age * 365
	}

	return ProjectMetrics{
		Name:                 name,
		TechnicalComplexity:  tech,
		ImpactMetricsPresent: hasMetrics,
		MaturityScore:        maturity,
		KeywordRelevance:     keywordRelevance,
		RecencyDays:          recencyDays,
		Description:          clip(description, 200),
	}
}

// trailingYear reads the year after the last "-" of a date range such as "2021 - 2023".
func trailingYear(dates string) (int, bool) {
	if dates == "" {
		return 0, false
	}
	parts := strings.Split(dates, "-")
	last := strings.TrimSpace(parts[len(parts)-1])
	if last == "" {
		return 0, false
	}
	for _, r := range last {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	year, err := strconv.Atoi(last)
	if err != nil {
		return 0, false
	}
	return year, true
}
