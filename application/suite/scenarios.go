package suite

import (
	"net/url"
	"regexp"
	"time"

	"codeexpert_e2e/domain/entities"
)

const (
	InteractionScenario = "interaction"
	VisualizeScenario   = "visualize"

	DefaultNamespace = "http-core"

	// RenderTimeout bounds how long the diagram may take to render on a
	// pre-filtered load.
	RenderTimeout = 10 * time.Second
)

// Viewer controls and containers.
var (
	FilterInput    = entities.ByCSS("#ns-filter")
	FilterButton   = entities.ByRole("button", "Filter")
	ClearButton    = entities.ByRole("button", "Clear")
	DiagramSVG     = entities.ByCSS(".mermaid svg").FirstMatch()
	AnySVG         = entities.ByCSS("svg").FirstMatch()
	SyntaxErrorMsg = "Syntax error"
)

// NamespacePattern returns the URL pattern produced by filtering on ns
func NamespacePattern(ns string) string {
	return "ns=" + regexp.QuoteMeta(url.QueryEscape(ns))
}

// Interaction - filter, diagram and clear round trip on the root page
func Interaction(ns string) entities.Scenario {
	if ns == "" {
		ns = DefaultNamespace
	}
	return entities.Scenario{
		Name:        InteractionScenario,
		Description: "UI interaction: filter controls, namespace filtering and clear",
		Steps: []entities.Step{
			{Type: entities.StepNavigate, Value: "/", Description: "load the page"},
			{Type: entities.StepExpectTitle, Pattern: "Code Expert", Description: "title mentions Code Expert"},
			{Type: entities.StepExpectVisible, Locator: FilterInput, Description: "filter input is visible"},
			{Type: entities.StepExpectVisible, Locator: FilterButton, Description: "Filter button is visible"},
			{Type: entities.StepExpectVisible, Locator: ClearButton, Description: "Clear button is visible"},
			{Type: entities.StepFill, Locator: FilterInput, Value: ns, Description: "type the namespace"},
			{Type: entities.StepClick, Locator: FilterButton, Description: "apply the filter"},
			{Type: entities.StepExpectURL, Pattern: NamespacePattern(ns), Description: "URL carries the namespace"},
			{Type: entities.StepExpectValue, Locator: FilterInput, Value: ns, Description: "input keeps the namespace"},
			{Type: entities.StepExpectVisible, Locator: DiagramSVG, Description: "diagram is rendered"},
			{Type: entities.StepClick, Locator: ClearButton, Description: "clear the filter"},
			{Type: entities.StepExpectURL, Value: "/", Description: "URL is back at the root"},
			{Type: entities.StepExpectValue, Locator: FilterInput, Value: "", Description: "input is empty"},
		},
	}
}

// Visualize - pre-filtered load renders a diagram without syntax errors
func Visualize(ns string) entities.Scenario {
	if ns == "" {
		ns = DefaultNamespace
	}
	return entities.Scenario{
		Name:           VisualizeScenario,
		Description:    "graph renders with namespace filter",
		ForwardConsole: true,
		Steps: []entities.Step{
			{Type: entities.StepNavigate, Value: "/?ns=" + url.QueryEscape(ns), Description: "load the page with the namespace applied"},
			{Type: entities.StepExpectTextAbsent, Value: SyntaxErrorMsg, Description: "no syntax error is shown"},
			{Type: entities.StepExpectVisible, Locator: AnySVG, Timeout: RenderTimeout, Description: "svg is rendered"},
		},
	}
}

// Defaults returns every built-in scenario
func Defaults(ns string) []entities.Scenario {
	return []entities.Scenario{Interaction(ns), Visualize(ns)}
}

// Select - returns the scenarios with the given names, all of them when names is empty
func Select(all []entities.Scenario, names []string) ([]entities.Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]entities.Scenario, len(all))
	for _, sc := range all {
		byName[sc.Name] = sc
	}
	selected := make([]entities.Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := byName[name]
		if !ok {
			return nil, &UnknownScenarioError{Name: name}
		}
		selected = append(selected, sc)
	}
	return selected, nil
}

// UnknownScenarioError is returned by Select for names that are not defined
type UnknownScenarioError struct {
	Name string
}

func (e *UnknownScenarioError) Error() string {
	return "unknown scenario: " + e.Name
}
