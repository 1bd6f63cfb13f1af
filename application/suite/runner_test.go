package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"
	"codeexpert_e2e/internal/fakepage"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost:9999"

type memoryStore struct {
	mu          sync.Mutex
	reports     []entities.Report
	screenshots map[string][]byte
}

func (m *memoryStore) SaveReport(report *entities.Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, *report)
	return "memory://report", nil
}

func (m *memoryStore) LoadReports() ([]entities.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports, nil
}

func (m *memoryStore) SaveScreenshot(name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screenshots == nil {
		m.screenshots = make(map[string][]byte)
	}
	m.screenshots[name] = data
	return "memory://" + name + ".png", nil
}

type denyGuard struct{ err error }

func (d denyGuard) CheckTarget(string) error            { return d.err }
func (d denyGuard) CheckNavigation(string, string) error { return nil }

func newTestRunner(b fakepage.Behavior, store *memoryStore, opts Options) (*Runner, *fakepage.Browser, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	if opts.BaseURL == "" {
		opts.BaseURL = baseURL
	}
	if opts.ExpectTimeout == 0 {
		opts.ExpectTimeout = 200 * time.Millisecond
	}
	opts.PollInterval = 10 * time.Millisecond
	browser := fakepage.NewBrowser(b)
	var reports interfaces.ReportStore
	if store != nil {
		reports = store
	}
	return NewRunner(browser, reports, nil, logger, opts), browser, hook
}

func TestInteractionPasses(t *testing.T) {
	runner, browser, _ := newTestRunner(fakepage.Behavior{}, nil, Options{})

	report, err := runner.Run(context.Background(), []entities.Scenario{Interaction("")})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, entities.ScenarioStatusPassed, res.Status, res.Error)
	assert.Len(t, res.Steps, len(Interaction("").Steps))
	assert.True(t, report.Passed())
	assert.Equal(t, "fake", report.Engine)

	pages := browser.Pages()
	require.Len(t, pages, 1)
	assert.True(t, pages[0].Closed())
	assert.Equal(t, []string{"http://localhost:9999/"}, pages[0].Navigations())
}

func TestInteractionEscapesNamespace(t *testing.T) {
	runner, _, _ := newTestRunner(fakepage.Behavior{}, nil, Options{})

	report, err := runner.Run(context.Background(), []entities.Scenario{Interaction("net/http core")})
	require.NoError(t, err)
	assert.Equal(t, entities.ScenarioStatusPassed, report.Results[0].Status, report.Results[0].Error)
}

func TestInteractionStopsAtFirstUnmetExpectation(t *testing.T) {
	store := &memoryStore{}
	runner, _, _ := newTestRunner(fakepage.Behavior{IgnoreFilter: true}, store, Options{})

	report, err := runner.Run(context.Background(), []entities.Scenario{Interaction("http-core")})
	require.NoError(t, err)

	res := report.Results[0]
	assert.Equal(t, entities.ScenarioStatusFailed, res.Status)
	require.Len(t, res.Steps, 8, "steps after the failing one must not run")

	failed, ok := res.FailedStep()
	require.True(t, ok)
	assert.Equal(t, entities.StepExpectURL, failed.Step.Type)
	assert.Contains(t, failed.Error, "ns=http-core")
	assert.Contains(t, res.Error, "URL carries the namespace")

	assert.Equal(t, "memory://interaction-1.png", res.Screenshot)
	assert.Contains(t, store.screenshots, "interaction-1")
	require.Len(t, store.reports, 1)
	assert.False(t, store.reports[0].Passed())
}

func TestInteractionMissingControls(t *testing.T) {
	runner, _, _ := newTestRunner(fakepage.Behavior{MissingControls: true}, nil, Options{})

	report, err := runner.Run(context.Background(), []entities.Scenario{Interaction("")})
	require.NoError(t, err)

	failed, ok := report.Results[0].FailedStep()
	require.True(t, ok)
	assert.Equal(t, FilterInput, failed.Step.Locator)
	assert.Contains(t, failed.Error, "#ns-filter to be visible")
}

func TestInteractionWrongTitle(t *testing.T) {
	runner, _, _ := newTestRunner(fakepage.Behavior{Title: "Index of /"}, nil, Options{})

	report, err := runner.Run(context.Background(), []entities.Scenario{Interaction("")})
	require.NoError(t, err)

	failed, ok := report.Results[0].FailedStep()
	require.True(t, ok)
	assert.Equal(t, entities.StepExpectTitle, failed.Step.Type)
}

func TestVisualizePasses(t *testing.T) {
	runner, browser, hook := newTestRunner(fakepage.Behavior{
		RenderDelay: 50 * time.Millisecond,
		Console:     []entities.ConsoleMessage{{Type: "log", Text: "mermaid rendered"}},
	}, nil, Options{})

	report, err := runner.Run(context.Background(), []entities.Scenario{Visualize("http-core")})
	require.NoError(t, err)

	res := report.Results[0]
	assert.Equal(t, entities.ScenarioStatusPassed, res.Status, res.Error)
	assert.Equal(t, []entities.ConsoleMessage{{Type: "log", Text: "mermaid rendered"}}, res.Console)
	assert.Equal(t, []string{"http://localhost:9999/?ns=http-core"}, browser.Pages()[0].Navigations())

	var forwarded bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "BROWSER LOG: mermaid rendered" {
			forwarded = true
			assert.Equal(t, VisualizeScenario, entry.Data["scenario"])
		}
	}
	assert.True(t, forwarded, "console output is forwarded to the log")
}

func TestVisualizeSyntaxError(t *testing.T) {
	runner, _, _ := newTestRunner(fakepage.Behavior{SyntaxError: true}, nil, Options{})

	report, err := runner.Run(context.Background(), []entities.Scenario{Visualize("")})
	require.NoError(t, err)

	res := report.Results[0]
	assert.Equal(t, entities.ScenarioStatusFailed, res.Status)
	failed, ok := res.FailedStep()
	require.True(t, ok)
	assert.Equal(t, entities.StepExpectTextAbsent, failed.Step.Type)
	assert.Contains(t, failed.Error, "Syntax error")
}

func TestVisualizeUsesRenderTimeout(t *testing.T) {
	// render takes longer than the default expectation timeout but
	// stays within the explicit render timeout of the svg step
	runner, _, _ := newTestRunner(fakepage.Behavior{RenderDelay: 400 * time.Millisecond}, nil, Options{})

	report, err := runner.Run(context.Background(), []entities.Scenario{Visualize("")})
	require.NoError(t, err)
	assert.Equal(t, entities.ScenarioStatusPassed, report.Results[0].Status, report.Results[0].Error)
}

func TestRepeatIsConsistent(t *testing.T) {
	store := &memoryStore{}
	runner, browser, _ := newTestRunner(fakepage.Behavior{}, store, Options{Repeat: 2, Parallelism: 2})

	report, err := runner.Run(context.Background(), Defaults(""))
	require.NoError(t, err)
	require.Len(t, report.Results, 4)
	assert.Len(t, browser.Pages(), 4, "every attempt gets its own page")

	for _, res := range report.Results {
		assert.Equal(t, entities.ScenarioStatusPassed, res.Status, "%s#%d: %s", res.Scenario, res.Attempt, res.Error)
	}
	assert.Equal(t, map[string]bool{InteractionScenario: true, VisualizeScenario: true}, report.Consistent)
	assert.Equal(t, 1, report.Results[0].Attempt)
	assert.Equal(t, 2, report.Results[1].Attempt)
	assert.Len(t, store.reports, 1)
}

func TestConsistent(t *testing.T) {
	passed := entities.ScenarioResult{Status: entities.ScenarioStatusPassed}
	failed := entities.ScenarioResult{Status: entities.ScenarioStatusFailed}

	assert.True(t, consistent([]entities.ScenarioResult{passed}))
	assert.True(t, consistent([]entities.ScenarioResult{failed, failed}))
	assert.False(t, consistent([]entities.ScenarioResult{passed, failed}))

	report := &entities.Report{
		Results:    []entities.ScenarioResult{passed, passed},
		Consistent: map[string]bool{"x": false},
	}
	assert.False(t, report.Passed())
}

func TestRunRejectsTarget(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	guardErr := errors.New("remote targets are not allowed")
	runner := NewRunner(fakepage.NewBrowser(fakepage.Behavior{}), nil, denyGuard{err: guardErr}, logger, Options{BaseURL: "http://example.com"})

	_, err := runner.Run(context.Background(), Defaults(""))
	require.ErrorIs(t, err, guardErr)
}

func TestRunRejectsInvalidInput(t *testing.T) {
	runner, _, _ := newTestRunner(fakepage.Behavior{}, nil, Options{BaseURL: "localhost"})
	_, err := runner.Run(context.Background(), Defaults(""))
	require.Error(t, err)

	runner, _, _ = newTestRunner(fakepage.Behavior{}, nil, Options{})
	_, err = runner.Run(context.Background(), []entities.Scenario{{Name: "empty"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no steps")
}

func TestNavigationFailure(t *testing.T) {
	runner, _, _ := newTestRunner(fakepage.Behavior{NavigateErr: fmt.Errorf("net::ERR_CONNECTION_REFUSED")}, nil, Options{})

	report, err := runner.Run(context.Background(), []entities.Scenario{Visualize("")})
	require.NoError(t, err)
	res := report.Results[0]
	assert.Equal(t, entities.ScenarioStatusFailed, res.Status)
	assert.True(t, strings.Contains(res.Error, entities.ErrNavigation.Error()), res.Error)
	assert.Contains(t, res.Error, "ERR_CONNECTION_REFUSED")
}

func TestSelect(t *testing.T) {
	all := Defaults("")

	got, err := Select(all, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = Select(all, []string{VisualizeScenario})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, VisualizeScenario, got[0].Name)

	_, err = Select(all, []string{"nope"})
	var unknown *UnknownScenarioError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)
}

func TestNamespacePattern(t *testing.T) {
	assert.Equal(t, `ns=http-core`, NamespacePattern("http-core"))
	assert.Equal(t, `ns=a\+b`, NamespacePattern("a b"))
}
