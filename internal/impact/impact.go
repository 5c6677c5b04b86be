// Package impact rewrites technical bullets into plain business-impact language using fixed
// phrase tables. Matching is case-insensitive substring matching, first table entry wins.
package impact

import (
	"regexp"
	"strings"
	"unicode"
)

type translation struct {
	term   string
	phrase string
}

var translations = []translation{
	// Performance and speed
	{"optimized database query", "made the app faster for users"},
	{"improved performance", "made features respond quicker"},
	{"reduced latency", "decreased wait times"},
	{"improved caching", "reduced server load"},
	{"optimized algorithm", "improved efficiency"},
	{"increased throughput", "handled more requests"},
	{"faster execution", "quicker results for users"},

	// Scale and growth
	{"scaled infrastructure", "supported growth from {X} to {Y} users"},
	{"handled traffic spike", "managed unexpected usage surge"},
	{"distributed system", "built system that could grow without breaking"},
	{"microservices", "modular system allowing independent scaling"},
	{"horizontal scaling", "added capacity by adding more servers"},

	// Reliability and quality
	{"improved uptime", "reduced downtime and service interruptions"},
	{"fault tolerance", "system keeps working even when parts fail"},
	{"redundancy", "ensured service didn't go down"},
	{"monitoring system", "got alerts before users noticed problems"},
	{"automated testing", "caught bugs before they reached users"},
	{"ci/cd pipeline", "deployed changes faster and more safely"},

	// Data and analytics
	{"data pipeline", "automated data collection and reporting"},
	{"business intelligence", "helped teams make data-driven decisions"},
	{"analytics dashboard", "gave stakeholders visibility into metrics"},
	{"machine learning model", "automated decision-making process"},
	{"predictive analytics", "forecasted trends and behaviors"},
	{"data warehouse", "centralized data for company-wide insights"},

	// User experience
	{"improved ui/ux", "made the product easier to use"},
	{"mobile optimization", "ensured app worked well on phones"},
	{"accessibility features", "enabled people with disabilities to use the product"},
	{"redesigned interface", "made navigation more intuitive"},
	{"simplified workflow", "reduced steps needed to complete tasks"},

	// Backend and architecture
	{"refactored codebase", "made code easier to maintain and change"},
	{"modular design", "reduced dependencies and silo effects"},
	{"api integration", "connected systems that didn't talk before"},
	{"database optimization", "improved data query speeds"},
	{"load balancing", "distributed traffic evenly across servers"},

	// Security and compliance
	{"security audit", "identified and fixed vulnerabilities"},
	{"encryption implementation", "protected sensitive data"},
	{"compliance framework", "met regulatory requirements"},
	{"access controls", "ensured only authorized people saw sensitive data"},

	// Cost and efficiency
	{"cost reduction", "saved company money on infrastructure"},
	{"resource optimization", "reduced wasted computational resources"},
	{"serverless architecture", "paid only for what we used"},
	{"cloud migration", "reduced on-premise hardware costs"},
}

type verbBucket struct {
	keywords []string
	verb     string
}

var contextBuckets = []verbBucket{
	{[]string{"built", "developed", "created", "engineered"}, "delivered feature"},
	{[]string{"reduced", "minimized", "decreased", "lowered"}, "improved"},
	{[]string{"increased", "improved", "enhanced", "optimized"}, "strengthened"},
	{[]string{"automated", "orchestrated", "streamlined"}, "made more efficient"},
	{[]string{"redesigned", "refactored", "restructured"}, "improved maintainability"},
}

var impactKeywords = []string{
	"increased", "improved", "reduced", "accelerated", "enabled",
	"saved", "generated", "delivered", "achieved", "%", " users", " million",
}

var metricPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+%)`),
	regexp.MustCompile(`(?i)(\d+\.?\d*\s*(?:x|times)?)`),
	regexp.MustCompile(`(?i)(\d+\s*(?:seconds?|minutes?|hours?|days?|months?|years?))`),
	regexp.MustCompile(`(?i)(\d+(?:K|M|B|,\d+)(?:\s*(?:users?|requests?|transactions?)))`),
}

// HasBusinessImpact reports whether a bullet already speaks in outcome terms.
func HasBusinessImpact(bullet string) bool {
	return containsAny(strings.ToLower(bullet), impactKeywords)
}

// TranslateBullet maps a technical bullet to an impact phrase. Without a table match the
// bullet gets a verb prefix chosen by its action keywords, or is returned unchanged.
func TranslateBullet(bullet string) string {
	lower := strings.ToLower(bullet)

	for _, t := range translations {
		if strings.Contains(lower, t.term) {
			if metrics := ExtractMetrics(bullet); metrics != "" {
				return t.phrase + " (" + metrics + ")"
			}
			return t.phrase
		}
	}

	for _, b := range contextBuckets {
		if containsAny(lower, b.keywords) {
			return capitalize(b.verb) + " " + lower
		}
	}

	return bullet
}

// ExtractMetrics returns the first quantity found in a bullet: a percentage, a multiplier,
// a duration or a volume, tried in that order.
func ExtractMetrics(bullet string) string {
	for _, re := range metricPatterns {
		if m := re.FindStringSubmatch(bullet); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// AddBusinessImpact translates an achievement and names who benefited when context is known.
func AddBusinessImpact(achievement, context string) string {
	translated := TranslateBullet(achievement)
	if context = strings.TrimSpace(context); context != "" {
		return translated + " benefiting " + context
	}
	return translated
}

// TranslateAll translates every bullet.
func TranslateAll(bullets []string) []string {
	out := make([]string, len(bullets))
	for i, b := range bullets {
		out[i] = TranslateBullet(b)
	}
	return out
}

// Enhance rewrites only the bullets that lack business impact language.
func Enhance(bullets []string) []string {
	out := make([]string, len(bullets))
	for i, b := range bullets {
		if HasBusinessImpact(b) {
			out[i] = b
			continue
		}
		out[i] = TranslateBullet(b)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
