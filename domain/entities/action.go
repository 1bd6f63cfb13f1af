package entities

import (
	"fmt"
	"time"
)

// StepType represents the type of step a scenario can perform
type StepType string

const (
	StepNavigate         StepType = "navigate"
	StepFill             StepType = "fill"
	StepClick            StepType = "click"
	StepExpectTitle      StepType = "expect_title"
	StepExpectURL        StepType = "expect_url"
	StepExpectVisible    StepType = "expect_visible"
	StepExpectValue      StepType = "expect_value"
	StepExpectTextAbsent StepType = "expect_text_absent"
)

// Step represents a single action or assertion of a scenario
type Step struct {
	Type        StepType      `json:"type" yaml:"type"`
	Locator     Locator       `json:"locator,omitempty" yaml:"locator"`
	Value       string        `json:"value,omitempty" yaml:"value"`     // text to fill, expected value, URL or path
	Pattern     string        `json:"pattern,omitempty" yaml:"pattern"` // regular expression for title and URL checks
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout"` // zero means the default expectation timeout
	Description string        `json:"description" yaml:"description"`
}

// Validate checks that the step carries the fields its type needs
func (s Step) Validate() error {
	switch s.Type {
	case StepNavigate:
		return nil
	case StepFill, StepClick, StepExpectVisible, StepExpectValue:
		return s.Locator.Validate()
	case StepExpectTitle:
		if s.Pattern == "" {
			return fmt.Errorf("%s step requires a pattern", s.Type)
		}
		return nil
	case StepExpectURL:
		if s.Pattern == "" && s.Value == "" {
			return fmt.Errorf("%s step requires a pattern or an exact URL", s.Type)
		}
		return nil
	case StepExpectTextAbsent:
		if s.Value == "" {
			return fmt.Errorf("%s step requires a text value", s.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown step type: %q", s.Type)
	}
}

// StepResult represents the outcome of a single step
type StepResult struct {
	Step     Step          `json:"step"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}
