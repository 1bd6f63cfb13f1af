// Package suite runs browser scenarios against a Code Expert viewer.
package suite

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"codeexpert_e2e/application/expect"
	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options controls how scenarios are run
type Options struct {
	BaseURL       string
	ExpectTimeout time.Duration
	PollInterval  time.Duration
	Parallelism   int
	Repeat        int
}

type Runner struct {
	browser interfaces.Browser
	store   interfaces.ReportStore
	guard   interfaces.NavigationGuard
	logger  *logrus.Logger
	opts    Options
}

// NewRunner - creates new scenario runner. store and guard may be nil.
func NewRunner(browser interfaces.Browser, store interfaces.ReportStore, guard interfaces.NavigationGuard, logger *logrus.Logger, opts Options) *Runner {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	if opts.Repeat <= 0 {
		opts.Repeat = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{
		browser: browser,
		store:   store,
		guard:   guard,
		logger:  logger,
		opts:    opts,
	}
}

// Run - runs every scenario Repeat times, scenarios in parallel and attempts
// of one scenario in sequence. Scenario failures are reported in the result;
// the error is reserved for problems that prevent running at all.
func (r *Runner) Run(ctx context.Context, scenarios []entities.Scenario) (*entities.Report, error) {
	base, err := r.target()
	if err != nil {
		return nil, err
	}
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
	}

	report := &entities.Report{
		Target:     base.String(),
		Engine:     r.browser.Name(),
		StartedAt:  time.Now(),
		Consistent: make(map[string]bool, len(scenarios)),
	}

	results := make([][]entities.ScenarioResult, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallelism)
	for i, sc := range scenarios {
		i, sc := i, sc // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			for attempt := 1; attempt <= r.opts.Repeat; attempt++ {
				results[i] = append(results[i], r.runScenario(gctx, base, sc, attempt))
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, sc := range scenarios {
		report.Results = append(report.Results, results[i]...)
		report.Consistent[sc.Name] = consistent(results[i])
	}
	report.FinishedAt = time.Now()

	if r.store != nil {
		path, err := r.store.SaveReport(report)
		if err != nil {
			r.logger.Warnf("Failed to save report: %v", err)
		} else {
			r.logger.Infof("Report saved to %s", path)
		}
	}

	if ctx.Err() != nil {
		return report, fmt.Errorf("run canceled: %w", ctx.Err())
	}
	return report, nil
}

func (r *Runner) target() (*url.URL, error) {
	if r.guard != nil {
		if err := r.guard.CheckTarget(r.opts.BaseURL); err != nil {
			return nil, err
		}
	}
	base, err := url.Parse(r.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", r.opts.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", r.opts.BaseURL)
	}
	return base, nil
}

// runScenario - executes one attempt of a scenario on a fresh page
func (r *Runner) runScenario(ctx context.Context, base *url.URL, sc entities.Scenario, attempt int) (result entities.ScenarioResult) {
	log := r.logger.WithFields(logrus.Fields{"scenario": sc.Name, "attempt": attempt})
	result = entities.ScenarioResult{
		Scenario:  sc.Name,
		Attempt:   attempt,
		Status:    entities.ScenarioStatusRunning,
		StartedAt: time.Now(),
	}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	page, err := r.browser.NewPage(ctx)
	if err != nil {
		result.Status = entities.ScenarioStatusFailed
		result.Error = fmt.Sprintf("failed to open page: %v", err)
		log.Error(result.Error)
		return result
	}

	var (
		consoleMu sync.Mutex
		console   []entities.ConsoleMessage
	)
	if sc.ForwardConsole {
		page.OnConsole(func(msg entities.ConsoleMessage) {
			log.Infof("BROWSER LOG: %s", msg.Text)
			consoleMu.Lock()
			console = append(console, msg)
			consoleMu.Unlock()
		})
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warnf("Failed to close page: %v", err)
		}
		consoleMu.Lock()
		result.Console = append([]entities.ConsoleMessage(nil), console...)
		consoleMu.Unlock()
	}()

	sess := &session{
		page:   page,
		expect: expect.New(page, expect.WithTimeout(r.opts.ExpectTimeout), expect.WithInterval(r.opts.PollInterval)),
		base:   base,
		guard:  r.guard,
	}

	log.Infof("Starting scenario: %s", sc.Description)
	for i, step := range sc.Steps {
		start := time.Now()
		err := sess.executeStep(ctx, step)
		sr := entities.StepResult{Step: step, Success: err == nil, Duration: time.Since(start)}
		if err != nil {
			sr.Error = err.Error()
		}
		result.Steps = append(result.Steps, sr)

		if err != nil {
			result.Status = entities.ScenarioStatusFailed
			result.Error = fmt.Sprintf("step %d (%s): %v", i+1, step.Description, err)
			log.Errorf("Scenario failed: %s", result.Error)
			result.Screenshot = r.captureFailure(ctx, page, sc.Name, attempt, log)
			return result
		}
		log.Debugf("Step passed: %s", step.Description)
	}

	result.Status = entities.ScenarioStatusPassed
	log.Info("Scenario passed")
	return result
}

// captureFailure - stores a screenshot of the failing page
func (r *Runner) captureFailure(ctx context.Context, page interfaces.Page, name string, attempt int, log *logrus.Entry) string {
	if r.store == nil {
		return ""
	}
	data, err := page.Screenshot(ctx)
	if err != nil {
		log.Warnf("Failed to take screenshot: %v", err)
		return ""
	}
	path, err := r.store.SaveScreenshot(fmt.Sprintf("%s-%d", name, attempt), data)
	if err != nil {
		log.Warnf("Failed to save screenshot: %v", err)
		return ""
	}
	return path
}

// consistent reports whether every attempt ended with the same status
func consistent(results []entities.ScenarioResult) bool {
	for _, res := range results[1:] {
		if res.Status != results[0].Status {
			return false
		}
	}
	return true
}
