package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/spigell/cv-refiner/internal/changes"
	"github.com/spigell/cv-refiner/internal/cv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedPrompter struct {
	choices  []Choice
	steering []string
	details  int
	err      error
}

func (p *scriptedPrompter) ShowSummary(*changes.Report) error { return nil }

func (p *scriptedPrompter) ShowDetails(*changes.Report) error {
	p.details++
	return nil
}

func (p *scriptedPrompter) Choose() (Choice, error) {
	if p.err != nil {
		return "", p.err
	}
	if len(p.choices) == 0 {
		return "", errors.New("no more choices")
	}
	c := p.choices[0]
	p.choices = p.choices[1:]
	return c, nil
}

func (p *scriptedPrompter) Steering() (string, error) {
	s := p.steering[0]
	p.steering = p.steering[1:]
	return s, nil
}

func optimizedCV() *cv.CV {
	c := sampleCV()
	c.Projects = c.Projects[:1]
	return c
}

func TestReview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		prompter     *scriptedPrompter
		wantState    State
		wantCV       *cv.CV
		wantSteering string
		wantDetails  int
	}{
		{
			name:      "approve",
			prompter:  &scriptedPrompter{choices: []Choice{ChoiceApprove}},
			wantState: StateApproved,
			wantCV:    optimizedCV(),
		},
		{
			name:        "detail then reject",
			prompter:    &scriptedPrompter{choices: []Choice{ChoiceDetail, ChoiceDetail, ChoiceReject}},
			wantState:   StateRejected,
			wantCV:      sampleCV(),
			wantDetails: 2,
		},
		{
			name: "blank steering keeps reviewing",
			prompter: &scriptedPrompter{
				choices:  []Choice{ChoiceSteer, "bogus", ChoiceSteer},
				steering: []string{"  ", "Focus on Go\nand Kubernetes"},
			},
			wantState:    StateSteering,
			wantCV:       optimizedCV(),
			wantSteering: "Focus on Go\nand Kubernetes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := newBuilder(sampleCV(), 1)
			out, err := b.Review(context.Background(), optimizedCV(), changes.NewReport(fixedClock()), tt.prompter)
			require.NoError(t, err)

			assert.Equal(t, tt.wantState, out.State)
			assert.Equal(t, tt.wantCV, out.CV)
			assert.Equal(t, tt.wantSteering, out.Steering)
			assert.Equal(t, tt.wantDetails, tt.prompter.details)
		})
	}
}

func TestReviewRejectResetsCurrent(t *testing.T) {
	t.Parallel()

	b := newBuilder(sampleCV(), 1)
	_, err := b.OptimizeForPageLimit(context.Background(), 2)
	require.NoError(t, err)
	require.NotEqual(t, sampleCV(), b.Current())

	out, err := b.Review(context.Background(), b.Current(), changes.NewReport(fixedClock()),
		&scriptedPrompter{choices: []Choice{ChoiceReject}})
	require.NoError(t, err)
	assert.Equal(t, StateRejected, out.State)
	assert.Equal(t, sampleCV(), b.Current())
}

func TestReviewErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("interrupted")
	_, err := newBuilder(sampleCV(), 1).Review(context.Background(), optimizedCV(), changes.NewReport(fixedClock()),
		&scriptedPrompter{err: boom})
	require.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newBuilder(sampleCV(), 1).Review(ctx, optimizedCV(), changes.NewReport(fixedClock()),
		&scriptedPrompter{choices: []Choice{ChoiceApprove}})
	require.ErrorIs(t, err, context.Canceled)
}
