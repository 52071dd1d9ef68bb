package domain

import "fmt"

// StepKind tags one action in a workflow's step sequence. The stored
// configuration for a kind lives on the owning workflow; the sequencer
// dispatches on the tag with an exhaustive switch.
type StepKind string

const (
	StepDiscord StepKind = "Discord"
	StepSlack   StepKind = "Slack"
	StepNotion  StepKind = "Notion"
	StepEmail   StepKind = "Email"
	StepWait    StepKind = "Wait"
)

func ParseStepKind(s string) (StepKind, error) {
	switch StepKind(s) {
	case StepDiscord, StepSlack, StepNotion, StepEmail, StepWait:
		return StepKind(s), nil
	}
	return "", fmt.Errorf("unknown step kind: %q", s)
}

// ParseStepKinds parses an ordered step tag list, rejecting the whole
// sequence on the first unknown tag. A workflow with a corrupt sequence
// must not be partially executed.
func ParseStepKinds(tags []string) ([]StepKind, error) {
	steps := make([]StepKind, 0, len(tags))
	for _, t := range tags {
		kind, err := ParseStepKind(t)
		if err != nil {
			return nil, err
		}
		steps = append(steps, kind)
	}
	return steps, nil
}
