package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/cv-refiner/internal/changes"
	"github.com/spigell/cv-refiner/internal/cv"

	"go.uber.org/zap"
)

type Choice string

const (
	ChoiceApprove Choice = "approve"
	ChoiceReject  Choice = "reject"
	ChoiceDetail  Choice = "detail"
	ChoiceSteer   Choice = "steer"
)

type State string

const (
	StateReviewing State = "reviewing"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateSteering  State = "steering"
)

// Prompter is the interactive side of a review.
type Prompter interface {
	ShowSummary(report *changes.Report) error
	ShowDetails(report *changes.Report) error
	Choose() (Choice, error)
	Steering() (string, error)
}

// Outcome is the terminal state of a review and the CV it settled on.
type Outcome struct {
	State    State
	CV       *cv.CV
	Steering string
}

// Review lets a user approve, reject or steer an optimization result. Rejecting returns the
// restore point. Steering instructions are recorded on the outcome but not applied.
func (b *Builder) Review(ctx context.Context, optimized *cv.CV, report *changes.Report, p Prompter) (*Outcome, error) {
	if err := p.ShowSummary(report); err != nil {
		return nil, fmt.Errorf("show summary: %w", err)
	}

	state := StateReviewing
	for state == StateReviewing {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		choice, err := p.Choose()
		if err != nil {
			return nil, fmt.Errorf("review choice: %w", err)
		}

		switch choice {
		case ChoiceApprove:
			state = StateApproved
		case ChoiceReject:
			state = StateRejected
		case ChoiceDetail:
			if err := p.ShowDetails(report); err != nil {
				return nil, fmt.Errorf("show details: %w", err)
			}
		case ChoiceSteer:
			steering, err := p.Steering()
			if err != nil {
				return nil, fmt.Errorf("steering: %w", err)
			}
			if steering = strings.TrimSpace(steering); steering != "" {
				b.logger.Info("steering recorded, applying it is not supported yet",
					zap.Int("length", len(steering)),
				)
				return &Outcome{State: StateSteering, CV: optimized.Clone(), Steering: steering}, nil
			}
		default:
			b.logger.Warn("unknown review choice", zap.String("choice", string(choice)))
		}
	}

	b.logger.Info("review finished", zap.String("state", string(state)))

	if state == StateRejected {
		b.current = b.original.Clone()
		return &Outcome{State: state, CV: b.original.Clone()}, nil
	}
	return &Outcome{State: state, CV: optimized.Clone()}, nil
}
