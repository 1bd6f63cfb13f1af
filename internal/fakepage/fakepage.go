// Package fakepage provides an in-memory interfaces.Page that behaves like the
// Code Expert viewer: a namespace filter input, Filter and Clear buttons and a
// mermaid container that receives an svg once a namespace is applied.
package fakepage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"
)

// Behavior toggles the ways the fake viewer can misbehave
type Behavior struct {
	Title           string
	SyntaxError     bool          // render "Syntax error" text instead of a diagram
	RenderDelay     time.Duration // delay between applying a namespace and the svg appearing
	IgnoreFilter    bool          // Filter button does not update the URL
	MissingControls bool          // filter controls are not rendered
	NavigateErr     error
	Console         []entities.ConsoleMessage // emitted on every navigation
}

// Page is a fake viewer page safe for concurrent use
type Page struct {
	mu         sync.Mutex
	behavior   Behavior
	url        string
	loaded     bool
	input      string
	diagram    bool
	renderedAt time.Time
	console    func(entities.ConsoleMessage)
	navigated  []string
	closed     bool
}

// New - creates new fake viewer page
func New(b Behavior) *Page {
	if b.Title == "" {
		b.Title = "Code Expert - Dependency Graph"
	}
	return &Page{behavior: b, url: "about:blank"}
}

var _ interfaces.Page = (*Page)(nil)

var (
	filterInput = entities.ByCSS("#ns-filter")
	filterBtn   = entities.ByRole("button", "Filter")
	clearBtn    = entities.ByRole("button", "Clear")
)

func (p *Page) Navigate(ctx context.Context, rawURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.behavior.NavigateErr != nil {
		return p.behavior.NavigateErr
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Path == "" {
		u.Path = "/"
	}
	p.url = u.String()
	p.loaded = true
	p.navigated = append(p.navigated, p.url)
	p.input = u.Query().Get("ns")
	p.applyNamespaceLocked()

	if p.console != nil {
		for _, msg := range p.behavior.Console {
			p.console(msg)
		}
	}
	return nil
}

func (p *Page) applyNamespaceLocked() {
	p.diagram = p.input != "" && !p.behavior.SyntaxError
	p.renderedAt = time.Now().Add(p.behavior.RenderDelay)
}

func (p *Page) rootLocked() string {
	u, err := url.Parse(p.url)
	if err != nil {
		return p.url
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return "", nil
	}
	return p.behavior.Title, nil
}

func (p *Page) Fill(ctx context.Context, loc entities.Locator, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.controlsLocked() || !same(loc, filterInput) {
		return fmt.Errorf("fill %s: %w", loc, entities.ErrElementNotFound)
	}
	p.input = text
	return nil
}

func (p *Page) Click(ctx context.Context, loc entities.Locator) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.controlsLocked() {
		return fmt.Errorf("click %s: %w", loc, entities.ErrElementNotFound)
	}
	switch {
	case same(loc, filterBtn):
		if p.behavior.IgnoreFilter {
			return nil
		}
		p.url = p.rootLocked() + "?ns=" + url.QueryEscape(p.input)
		p.applyNamespaceLocked()
	case same(loc, clearBtn):
		p.url = p.rootLocked()
		p.input = ""
		p.diagram = false
	default:
		return fmt.Errorf("click %s: %w", loc, entities.ErrElementNotFound)
	}
	return nil
}

func (p *Page) IsVisible(ctx context.Context, loc entities.Locator) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case same(loc, filterInput), same(loc, filterBtn), same(loc, clearBtn):
		return p.controlsLocked(), nil
	case loc.Kind == entities.LocatorCSS && strings.HasSuffix(loc.Value, "svg"):
		return p.diagram && !time.Now().Before(p.renderedAt), nil
	}
	return false, nil
}

func (p *Page) InputValue(ctx context.Context, loc entities.Locator) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.controlsLocked() || !same(loc, filterInput) {
		return "", fmt.Errorf("input value of %s: %w", loc, entities.ErrElementNotFound)
	}
	return p.input, nil
}

func (p *Page) Count(ctx context.Context, loc entities.Locator) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if loc.Kind == entities.LocatorText && loc.Value == "Syntax error" && p.behavior.SyntaxError && p.input != "" {
		return 1, nil
	}
	return 0, nil
}

func (p *Page) OnConsole(handler func(entities.ConsoleMessage)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.console = handler
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Navigations returns every URL passed to Navigate
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigated...)
}

// Closed reports whether Close was called
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) controlsLocked() bool {
	return p.loaded && !p.behavior.MissingControls
}

func same(a, b entities.Locator) bool {
	return a.Kind == b.Kind && a.Value == b.Value && a.Name == b.Name
}

// Browser hands out fake pages with a shared behavior
type Browser struct {
	mu       sync.Mutex
	behavior Behavior
	pages    []*Page
	closed   bool
}

// NewBrowser - creates new fake browser
func NewBrowser(b Behavior) *Browser {
	return &Browser{behavior: b}
}

var _ interfaces.Browser = (*Browser)(nil)

func (b *Browser) NewPage(ctx context.Context) (interfaces.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("browser closed")
	}
	p := New(b.behavior)
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *Browser) Name() string { return "fake" }

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Pages returns every page handed out so far
func (b *Browser) Pages() []*Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Page(nil), b.pages...)
}
