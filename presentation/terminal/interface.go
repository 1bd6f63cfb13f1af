package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeexpert_e2e/application/suite"
	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"
	"codeexpert_e2e/infrastructure/browser"
	"codeexpert_e2e/infrastructure/config"
	"codeexpert_e2e/infrastructure/security"
	"codeexpert_e2e/infrastructure/storage"

	"github.com/sirupsen/logrus"
)

// ErrScenariosFailed is returned by Run when the report is not green
var ErrScenariosFailed = errors.New("scenarios failed")

type TerminalInterface struct {
	runner      *suite.Runner
	browserCtrl interfaces.Browser
	scenarios   []entities.Scenario
	logger      *logrus.Logger
	out         io.Writer
}

// NewTerminalInterface - wires configuration, engine, storage and runner for the named scenarios
func NewTerminalInterface(names []string) (*TerminalInterface, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger()

	scenarios, err := suite.Select(defaultScenarios(cfg), names)
	if err != nil {
		return nil, err
	}

	guard := security.NewSecurityLayer(logger, cfg.AllowRemote)
	if err := guard.CheckTarget(cfg.BaseURL); err != nil {
		return nil, err
	}

	store, err := storage.NewReportStore(cfg.ArtifactsDir)
	if err != nil {
		return nil, err
	}

	browserCtrl, err := browser.New(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return newTerminalInterface(cfg, logger, browserCtrl, store, guard, scenarios, os.Stdout), nil
}

func newTerminalInterface(cfg *config.Config, logger *logrus.Logger, browserCtrl interfaces.Browser, store interfaces.ReportStore, guard interfaces.NavigationGuard, scenarios []entities.Scenario, out io.Writer) *TerminalInterface {
	runner := suite.NewRunner(browserCtrl, store, guard, logger, suite.Options{
		BaseURL:       cfg.BaseURL,
		ExpectTimeout: cfg.ExpectTimeout,
		Parallelism:   cfg.Parallelism,
		Repeat:        cfg.Repeat,
	})
	return &TerminalInterface{
		runner:      runner,
		browserCtrl: browserCtrl,
		scenarios:   scenarios,
		logger:      logger,
		out:         out,
	}
}

// defaultScenarios - built-in scenarios with the configured namespace and render timeout
func defaultScenarios(cfg *config.Config) []entities.Scenario {
	scenarios := suite.Defaults(cfg.Namespace)
	for i := range scenarios {
		for j, step := range scenarios[i].Steps {
			if step.Timeout == suite.RenderTimeout {
				scenarios[i].Steps[j].Timeout = cfg.RenderTimeout
			}
		}
	}
	return scenarios
}

// Run - runs the scenarios until done or interrupted and prints the report
func (t *TerminalInterface) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return t.run(ctx)
}

func (t *TerminalInterface) run(ctx context.Context) error {
	fmt.Fprintf(t.out, "Code Expert E2E (%s)\n", t.browserCtrl.Name())
	fmt.Fprintln(t.out, "=================")

	report, err := t.runner.Run(ctx, t.scenarios)
	if report != nil {
		PrintReport(t.out, report)
	}
	if err != nil {
		return err
	}
	if !report.Passed() {
		return ErrScenariosFailed
	}
	return nil
}

func (t *TerminalInterface) Close() error {
	return t.browserCtrl.Close()
}

// PrintReport - writes a human readable summary of the report
func PrintReport(w io.Writer, report *entities.Report) {
	fmt.Fprintf(w, "Target: %s\n\n", report.Target)

	passed := 0
	for _, res := range report.Results {
		mark := "PASS"
		if res.Status != entities.ScenarioStatusPassed {
			mark = "FAIL"
		} else {
			passed++
		}
		fmt.Fprintf(w, "%s  %s (attempt %d, %s)\n", mark, res.Scenario, res.Attempt, res.Duration.Round(time.Millisecond))

		for _, step := range res.Steps {
			if step.Success {
				fmt.Fprintf(w, "      ok    %s\n", step.Step.Description)
			} else {
				fmt.Fprintf(w, "      FAIL  %s\n", step.Step.Description)
				fmt.Fprintf(w, "            %s\n", step.Error)
			}
		}
		if len(res.Steps) == 0 && res.Error != "" {
			fmt.Fprintf(w, "      %s\n", res.Error)
		}
		if res.Screenshot != "" {
			fmt.Fprintf(w, "      screenshot: %s\n", res.Screenshot)
		}
	}

	var inconsistent []string
	for name, ok := range report.Consistent {
		if !ok {
			inconsistent = append(inconsistent, name)
		}
	}
	if len(inconsistent) > 0 {
		fmt.Fprintf(w, "\nInconsistent across repeats: %s\n", strings.Join(inconsistent, ", "))
	}
	fmt.Fprintf(w, "\n%d/%d passed\n", passed, len(report.Results))
}
