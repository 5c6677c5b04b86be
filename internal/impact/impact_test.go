package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateBullet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		bullet string
		want   string
	}{
		{
			name:   "table match with percentage",
			bullet: "Reduced latency by 40% across the checkout flow",
			want:   "decreased wait times (40%)",
		},
		{
			name:   "table match with multiplier",
			bullet: "Optimized algorithm making ranking 3x quicker",
			want:   "improved efficiency (3x)",
		},
		{
			name:   "table match without metrics",
			bullet: "Introduced Microservices for billing",
			want:   "modular system allowing independent scaling",
		},
		{
			name:   "first table entry wins",
			bullet: "Set up a data pipeline feeding the data warehouse",
			want:   "automated data collection and reporting",
		},
		{
			name:   "verb bucket prefix",
			bullet: "Built an internal Slack bot",
			want:   "Delivered feature built an internal slack bot",
		},
		{
			name:   "later verb bucket",
			bullet: "Refactored the legacy module",
			want:   "Improved maintainability refactored the legacy module",
		},
		{
			name:   "unchanged",
			bullet: "Mentored two interns",
			want:   "Mentored two interns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TranslateBullet(tt.bullet))
		})
	}
}

func TestExtractMetrics(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "25%", ExtractMetrics("cut spend by 25% in 3 months"))
	assert.Equal(t, "2.5x", ExtractMetrics("made it 2.5x faster"))
	assert.Equal(t, "10 times", ExtractMetrics("10 times more"))
	assert.Equal(t, "", ExtractMetrics("no numbers here"))
}

func TestHasBusinessImpact(t *testing.T) {
	t.Parallel()

	assert.True(t, HasBusinessImpact("Improved onboarding"))
	assert.True(t, HasBusinessImpact("Served 2 million requests"))
	assert.True(t, HasBusinessImpact("Grew conversion 5%"))
	assert.False(t, HasBusinessImpact("Maintained the billing service"))
}

func TestEnhanceKeepsImpactBullets(t *testing.T) {
	t.Parallel()

	in := []string{"Improved onboarding for 300 users", "Built an internal Slack bot"}
	out := Enhance(in)

	assert.Equal(t, "Improved onboarding for 300 users", out[0])
	assert.Equal(t, "Delivered feature built an internal slack bot", out[1])
	assert.Equal(t, "Built an internal Slack bot", in[1])
}

func TestAddBusinessImpact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "handled more requests benefiting 50K daily users", AddBusinessImpact("Increased throughput of the API", " 50K daily users "))
	assert.Equal(t, "Mentored two interns", AddBusinessImpact("Mentored two interns", ""))
	assert.Equal(t, []string{"handled more requests", "Mentored"}, TranslateAll([]string{"increased throughput", "Mentored"}))
}
