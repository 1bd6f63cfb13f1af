package entities

import (
	"fmt"
	"time"
)

// Scenario represents an independent browser test case
type Scenario struct {
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	Steps          []Step `json:"steps" yaml:"steps"`
	ForwardConsole bool   `json:"forward_console,omitempty" yaml:"forward_console"`
}

// Validate checks the scenario and all of its steps
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i, step := range s.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("scenario %q step %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}

// ScenarioStatus represents the status of a scenario run
type ScenarioStatus string

const (
	ScenarioStatusPending ScenarioStatus = "pending"
	ScenarioStatusRunning ScenarioStatus = "running"
	ScenarioStatusPassed  ScenarioStatus = "passed"
	ScenarioStatusFailed  ScenarioStatus = "failed"
)

// ScenarioResult represents one attempt of a scenario
type ScenarioResult struct {
	Scenario   string           `json:"scenario"`
	Attempt    int              `json:"attempt"`
	Status     ScenarioStatus   `json:"status"`
	Steps      []StepResult     `json:"steps"`
	Error      string           `json:"error,omitempty"`
	Console    []ConsoleMessage `json:"console,omitempty"`
	Screenshot string           `json:"screenshot,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	Duration   time.Duration    `json:"duration"`
}

// FailedStep returns the step that failed the attempt, if any
func (r ScenarioResult) FailedStep() (StepResult, bool) {
	for _, s := range r.Steps {
		if !s.Success {
			return s, true
		}
	}
	return StepResult{}, false
}

// Report represents a complete run over a target
type Report struct {
	Target     string           `json:"target"`
	Engine     string           `json:"engine"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []ScenarioResult `json:"results"`
	Consistent map[string]bool  `json:"consistent"`
}

// Passed reports whether every attempt passed and repeated attempts agree
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if res.Status != ScenarioStatusPassed {
			return false
		}
	}
	for _, ok := range r.Consistent {
		if !ok {
			return false
		}
	}
	return true
}
