package browser

import (
	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// PlaywrightOptions configures the playwright engine
type PlaywrightOptions struct {
	BrowserType string // chromium, firefox or webkit
	Headless    bool
	NavTimeout  time.Duration
}

type playwrightController struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	name    string
	logger  *logrus.Logger
	opts    PlaywrightOptions
}

// NewPlaywrightController - starts playwright and launches the configured browser
func NewPlaywrightController(logger *logrus.Logger, opts PlaywrightOptions) (interfaces.Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var browserType playwright.BrowserType
	switch opts.BrowserType {
	case "", "chromium":
		browserType = pw.Chromium
	case "firefox":
		browserType = pw.Firefox
	case "webkit":
		browserType = pw.WebKit
	default:
		pw.Stop()
		return nil, fmt.Errorf("unknown browser type: %s", opts.BrowserType)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if browserType == pw.Chromium {
		launchOpts.Args = []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		}
	}

	browser, err := browserType.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	logger.Infof("Launched %s %s (headless=%t)", browserType.Name(), browser.Version(), opts.Headless)

	return &playwrightController{
		pw:      pw,
		browser: browser,
		name:    browserType.Name(),
		logger:  logger,
		opts:    opts,
	}, nil
}

func (b *playwrightController) Name() string {
	return "playwright/" + b.name
}

// NewPage - opens a page in a fresh browser context
func (b *playwrightController) NewPage(ctx context.Context) (interfaces.Page, error) {
	bctx, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		JavaScriptEnabled: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	navTimeout := b.opts.NavTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	page.SetDefaultNavigationTimeout(float64(navTimeout.Milliseconds()))

	p := &playwrightPage{page: page, context: bctx, navTimeout: navTimeout}
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		p.mu.Lock()
		handler := p.console
		p.mu.Unlock()
		if handler != nil {
			handler(entities.ConsoleMessage{Type: msg.Type(), Text: msg.Text()})
		}
	})
	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Dismiss()
	})
	return p, nil
}

// Close - closes the browser and stops the driver
func (b *playwrightController) Close() error {
	var closeErr error
	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to stop playwright: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to stop playwright: %w", err)
			}
		}
		b.pw = nil
	}
	return closeErr
}

type playwrightPage struct {
	page       playwright.Page
	context    playwright.BrowserContext
	navTimeout time.Duration

	mu      sync.Mutex
	console func(entities.ConsoleMessage)
}

func (p *playwrightPage) locator(loc entities.Locator) (playwright.Locator, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	var l playwright.Locator
	switch loc.Kind {
	case entities.LocatorCSS:
		l = p.page.Locator(loc.Value)
	case entities.LocatorRole:
		l = p.page.GetByRole(playwright.AriaRole(loc.Value), playwright.PageGetByRoleOptions{
			Name: loc.Name,
		})
	case entities.LocatorText:
		l = p.page.GetByText(loc.Value)
	}
	if loc.First {
		l = l.First()
	}
	return l, nil
}

const defaultActionTimeout = 30 * time.Second

// timeoutWithin - time left before ctx expires, capped at limit
func timeoutWithin(ctx context.Context, limit time.Duration) time.Duration {
	timeout := limit
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout < time.Millisecond {
		timeout = time.Millisecond
	}
	return timeout
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   millis(timeoutWithin(ctx, p.navTimeout)),
	})
	return err
}

func (p *playwrightPage) URL(ctx context.Context) (string, error) {
	return p.page.URL(), nil
}

func (p *playwrightPage) Title(ctx context.Context) (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) Fill(ctx context.Context, loc entities.Locator, text string) error {
	l, err := p.locator(loc)
	if err != nil {
		return err
	}
	if err := l.Fill(text, playwright.LocatorFillOptions{Timeout: millis(timeoutWithin(ctx, defaultActionTimeout))}); err != nil {
		return notFound(loc, err)
	}
	return nil
}

func (p *playwrightPage) Click(ctx context.Context, loc entities.Locator) error {
	l, err := p.locator(loc)
	if err != nil {
		return err
	}
	if err := l.Click(playwright.LocatorClickOptions{Timeout: millis(timeoutWithin(ctx, defaultActionTimeout))}); err != nil {
		return notFound(loc, err)
	}
	return nil
}

func (p *playwrightPage) IsVisible(ctx context.Context, loc entities.Locator) (bool, error) {
	l, err := p.locator(loc)
	if err != nil {
		return false, err
	}
	return l.IsVisible()
}

func (p *playwrightPage) InputValue(ctx context.Context, loc entities.Locator) (string, error) {
	l, err := p.locator(loc)
	if err != nil {
		return "", err
	}
	count, err := l.Count()
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", notFound(loc, nil)
	}
	return l.InputValue(playwright.LocatorInputValueOptions{Timeout: millis(timeoutWithin(ctx, defaultActionTimeout))})
}

func (p *playwrightPage) Count(ctx context.Context, loc entities.Locator) (int, error) {
	l, err := p.locator(loc)
	if err != nil {
		return 0, err
	}
	return l.Count()
}

func (p *playwrightPage) OnConsole(handler func(entities.ConsoleMessage)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.console = handler
}

func (p *playwrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

// Close - closes the page together with its browser context
func (p *playwrightPage) Close() error {
	if err := p.context.Close(); err != nil && !isClosedErr(err) {
		return fmt.Errorf("failed to close context: %w", err)
	}
	return nil
}

// isClosedErr - reports errors caused by closing something already gone
func isClosedErr(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}
