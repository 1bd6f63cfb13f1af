package suite

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"codeexpert_e2e/application/expect"
	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"
)

// session is the state of one scenario attempt
type session struct {
	page   interfaces.Page
	expect *expect.Expecter
	base   *url.URL
	guard  interfaces.NavigationGuard
}

// resolve - resolves a step URL or path against the target
func (s *session) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	resolved := s.base.ResolveReference(u)
	if resolved.Path == "" {
		resolved.Path = "/"
	}
	return resolved.String(), nil
}

// executeStep - executes single step
func (s *session) executeStep(ctx context.Context, step entities.Step) error {
	switch step.Type {
	case entities.StepNavigate:
		target, err := s.resolve(step.Value)
		if err != nil {
			return err
		}
		if s.guard != nil {
			if err := s.guard.CheckNavigation(s.base.String(), target); err != nil {
				return err
			}
		}
		if err := s.page.Navigate(ctx, target); err != nil {
			return fmt.Errorf("%w: %s: %w", entities.ErrNavigation, target, err)
		}
		return nil

	case entities.StepFill:
		if err := s.page.Fill(ctx, step.Locator, step.Value); err != nil {
			return fmt.Errorf("fill %s: %w", step.Locator, err)
		}
		return nil

	case entities.StepClick:
		if err := s.page.Click(ctx, step.Locator); err != nil {
			return fmt.Errorf("click %s: %w", step.Locator, err)
		}
		return nil

	case entities.StepExpectTitle:
		pattern, err := regexp.Compile(step.Pattern)
		if err != nil {
			return fmt.Errorf("invalid title pattern: %w", err)
		}
		return s.expect.ToHaveTitle(ctx, pattern)

	case entities.StepExpectURL:
		if step.Pattern != "" {
			pattern, err := regexp.Compile(step.Pattern)
			if err != nil {
				return fmt.Errorf("invalid URL pattern: %w", err)
			}
			return s.expect.ToHaveURL(ctx, pattern)
		}
		want, err := s.resolve(step.Value)
		if err != nil {
			return err
		}
		return s.expect.ToHaveExactURL(ctx, want)

	case entities.StepExpectVisible:
		return s.expect.ToBeVisible(ctx, step.Locator, step.Timeout)

	case entities.StepExpectValue:
		return s.expect.ToHaveValue(ctx, step.Locator, step.Value)

	case entities.StepExpectTextAbsent:
		return s.expect.ToHaveCount(ctx, entities.ByText(step.Value), 0)

	default:
		return fmt.Errorf("unknown step type: %s", step.Type)
	}
}
