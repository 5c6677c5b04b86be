// Package review implements the interactive terminal side of the builder review loop.
package review

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spigell/cv-refiner/internal/builder"
	"github.com/spigell/cv-refiner/internal/changes"

	"github.com/manifoldco/promptui"
)

const (
	PromptApprove = "[A] Approve changes and continue"
	PromptReject  = "[R] Reject changes and revert"
	PromptSteer   = "[S] Steer the optimization in a different direction"
	PromptDetail  = "[D] Show more detailed changes"
)

var choices = []struct {
	label  string
	choice builder.Choice
}{
	{PromptApprove, builder.ChoiceApprove},
	{PromptReject, builder.ChoiceReject},
	{PromptSteer, builder.ChoiceSteer},
	{PromptDetail, builder.ChoiceDetail},
}

const steeringHelp = `
Provide guidance to redirect the optimization:
Examples:
  - 'Keep all projects, trim experience instead'
  - 'Preserve education details, focus on condensing bullets'
  - 'Prioritize recent projects over older ones'
  - 'Emphasize impact metrics more than technical depth'
Your instructions (submit an empty line when done):
`

// Terminal asks the user through promptui and prints reports to Out.
type Terminal struct {
	Out    io.Writer
	Limit  int
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

var _ builder.Prompter = (*Terminal)(nil)

func New() *Terminal {
	return &Terminal{Out: os.Stdout, Limit: MaxDetailedChanges}
}

func (t *Terminal) ShowSummary(report *changes.Report) error {
	return RenderSummary(t.Out, report)
}

func (t *Terminal) ShowDetails(report *changes.Report) error {
	return RenderDetails(t.Out, report, t.Limit)
}

func (t *Terminal) Choose() (builder.Choice, error) {
	labels := make([]string, 0, len(choices))
	for _, c := range choices {
		labels = append(labels, c.label)
	}

	prompt := promptui.Select{
		Label:  "What would you like to do?",
		Items:  labels,
		Stdin:  t.Stdin,
		Stdout: t.Stdout,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return ChoiceAt(idx)
}

// ChoiceAt maps a menu position to a review choice.
func ChoiceAt(idx int) (builder.Choice, error) {
	if idx < 0 || idx >= len(choices) {
		return "", fmt.Errorf("invalid review choice: %d", idx)
	}
	return choices[idx].choice, nil
}

// Steering collects lines until an empty one is submitted.
func (t *Terminal) Steering() (string, error) {
	if _, err := io.WriteString(t.Out, steeringHelp); err != nil {
		return "", err
	}

	var lines []string
	for {
		prompt := promptui.Prompt{
			Label:  ">",
			Stdin:  t.Stdin,
			Stdout: t.Stdout,
		}

		line, err := prompt.Run()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}
