package browser

import (
	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// ChromedpOptions configures the chromedp engine
type ChromedpOptions struct {
	Headless     bool
	ChromeBinary string
	NavTimeout   time.Duration
}

type chromedpController struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logger        *logrus.Logger
	opts          ChromedpOptions
}

// NewChromedpController - starts a Chrome process driven over CDP
func NewChromedpController(logger *logrus.Logger, opts ChromedpOptions) (interfaces.Browser, error) {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(1280, 720),
	)
	if opts.ChromeBinary != "" {
		execOpts = append(execOpts, chromedp.ExecPath(opts.ChromeBinary))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Debugf),
		chromedp.WithErrorf(logger.Errorf),
	)

	// the first Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}
	logger.Infof("Launched chrome over CDP (headless=%t)", opts.Headless)

	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	return &chromedpController{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
		opts:          opts,
	}, nil
}

func (b *chromedpController) Name() string {
	return "chromedp"
}

// NewPage - opens a tab in a fresh browser context
func (b *chromedpController) NewPage(ctx context.Context) (interfaces.Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx, chromedp.WithNewBrowserContext())
	p := &chromedpPage{ctx: tabCtx, cancel: cancel, navTimeout: b.opts.NavTimeout}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			p.emit(entities.ConsoleMessage{Type: string(e.Type), Text: consoleText(e.Args)})
		}
	})

	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return p, nil
}

func (b *chromedpController) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}

type chromedpPage struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration

	mu      sync.Mutex
	console func(entities.ConsoleMessage)
}

func (p *chromedpPage) emit(msg entities.ConsoleMessage) {
	p.mu.Lock()
	handler := p.console
	p.mu.Unlock()
	if handler != nil {
		handler(msg)
	}
}

// run - runs actions on the tab, bounded by limit and by the caller's ctx
func (p *chromedpPage) run(ctx context.Context, limit time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeoutWithin(ctx, limit))
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, p.navTimeout, chromedp.Navigate(url))
}

func (p *chromedpPage) URL(ctx context.Context) (string, error) {
	var url string
	err := p.run(ctx, defaultActionTimeout, chromedp.Location(&url))
	return url, err
}

func (p *chromedpPage) Title(ctx context.Context) (string, error) {
	var title string
	err := p.run(ctx, defaultActionTimeout, chromedp.Title(&title))
	return title, err
}

func (p *chromedpPage) state(ctx context.Context, loc entities.Locator) (elementState, error) {
	q, err := toQuery(loc)
	if err != nil {
		return elementState{}, err
	}
	var st elementState
	if err := p.run(ctx, defaultActionTimeout, chromedp.Evaluate(stateScript(q), &st)); err != nil {
		return elementState{}, err
	}
	return st, nil
}

// selector - a chromedp selector and query option for loc
func selector(loc entities.Locator) (string, chromedp.QueryOption, error) {
	q, err := toQuery(loc)
	if err != nil {
		return "", nil, err
	}
	if q.CSS != "" {
		return q.CSS, chromedp.ByQuery, nil
	}
	return q.XPath, chromedp.BySearch, nil
}

func (p *chromedpPage) Fill(ctx context.Context, loc entities.Locator, text string) error {
	sel, by, err := selector(loc)
	if err != nil {
		return err
	}
	err = p.run(ctx, defaultActionTimeout,
		chromedp.WaitVisible(sel, by),
		chromedp.Clear(sel, by),
		chromedp.SendKeys(sel, text, by),
	)
	if err != nil {
		return notFound(loc, err)
	}
	return nil
}

func (p *chromedpPage) Click(ctx context.Context, loc entities.Locator) error {
	sel, by, err := selector(loc)
	if err != nil {
		return err
	}
	if err := p.run(ctx, defaultActionTimeout, chromedp.Click(sel, by)); err != nil {
		return notFound(loc, err)
	}
	return nil
}

func (p *chromedpPage) IsVisible(ctx context.Context, loc entities.Locator) (bool, error) {
	st, err := p.state(ctx, loc)
	if err != nil {
		return false, err
	}
	if err := st.strict(loc); err != nil {
		return false, err
	}
	return st.Visible, nil
}

func (p *chromedpPage) InputValue(ctx context.Context, loc entities.Locator) (string, error) {
	st, err := p.state(ctx, loc)
	if err != nil {
		return "", err
	}
	if st.Count == 0 {
		return "", notFound(loc, nil)
	}
	if err := st.strict(loc); err != nil {
		return "", err
	}
	return st.Value, nil
}

func (p *chromedpPage) Count(ctx context.Context, loc entities.Locator) (int, error) {
	q, err := toQuery(loc)
	if err != nil {
		return 0, err
	}
	var n int
	err = p.run(ctx, defaultActionTimeout, chromedp.Evaluate(fmt.Sprintf("(%s).length", findScript(q)), &n))
	return n, err
}

func (p *chromedpPage) OnConsole(handler func(entities.ConsoleMessage)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.console = handler
}

func (p *chromedpPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, defaultActionTimeout, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

// Close - closes the tab and its browser context
func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}

// consoleText - renders console arguments the way the browser console prints them
func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if len(arg.Value) > 0 {
			var s string
			if err := json.Unmarshal(arg.Value, &s); err == nil {
				parts = append(parts, s)
			} else {
				parts = append(parts, string(arg.Value))
			}
			continue
		}
		if arg.Description != "" {
			parts = append(parts, arg.Description)
			continue
		}
		parts = append(parts, string(arg.Type))
	}
	return strings.Join(parts, " ")
}
