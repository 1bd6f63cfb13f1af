package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/log"
)

const defaultDriverPort = 9515

// SeleniumOptions configures the selenium engine
type SeleniumOptions struct {
	DriverPath   string
	ChromeBinary string
	Headless     bool
	Port         int
	NavTimeout   time.Duration
}

type SeleniumController struct {
	service *selenium.Service
	logger  *logrus.Logger
	opts    SeleniumOptions
}

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
		return "", fmt.Errorf("chromedriver not found at %s", configured)
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("chromedriver not found. Please install it or set BROWSER_DRIVER_PATH environment variable")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
	}

	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}

// NewSeleniumController - starts a ChromeDriver service; every page gets its own session
func NewSeleniumController(logger *logrus.Logger, opts SeleniumOptions) (*SeleniumController, error) {
	driverPath, err := findChromeDriver(opts.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	logger.Infof("Using ChromeDriver at: %s", driverPath)

	opts.ChromeBinary = findChromeBinary(opts.ChromeBinary)
	if opts.ChromeBinary != "" {
		logger.Infof("Using Chrome binary at: %s", opts.ChromeBinary)
	}
	if opts.Port == 0 {
		opts.Port = defaultDriverPort
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}

	service, err := selenium.NewChromeDriverService(driverPath, opts.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	return &SeleniumController{
		service: service,
		logger:  logger,
		opts:    opts,
	}, nil
}

func (s *SeleniumController) Name() string {
	return "selenium"
}

// capabilities - chrome capabilities with browser console logging enabled
func (s *SeleniumController) capabilities() selenium.Capabilities {
	caps := selenium.Capabilities{
		"browserName": "chrome",
	}

	args := []string{
		"--disable-dev-shm-usage",
		"--no-sandbox",
		"--window-size=1280,720",
	}
	if s.opts.Headless {
		args = append(args, "--headless=new")
	}
	chromeCaps := chrome.Capabilities{Args: args}
	if s.opts.ChromeBinary != "" {
		chromeCaps.Path = s.opts.ChromeBinary
	}
	caps.AddChrome(chromeCaps)

	caps.SetLogLevel(log.Browser, log.All)
	caps["goog:loggingPrefs"] = map[string]string{string(log.Browser): string(log.All)}
	return caps
}

// NewPage - opens a new WebDriver session
func (s *SeleniumController) NewPage(ctx context.Context) (interfaces.Page, error) {
	wd, err := selenium.NewRemote(s.capabilities(), fmt.Sprintf("http://localhost:%d/wd/hub", s.opts.Port))
	if err != nil {
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set CHROME_BINARY_PATH environment variable. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}
	if err := wd.SetPageLoadTimeout(s.opts.NavTimeout); err != nil {
		s.logger.Warnf("Failed to set page load timeout: %v", err)
	}
	return &seleniumPage{wd: wd, logger: s.logger}, nil
}

func (s *SeleniumController) Close() error {
	if s.service == nil {
		return nil
	}
	err := s.service.Stop()
	s.service = nil
	return err
}

type seleniumPage struct {
	wd     selenium.WebDriver
	logger *logrus.Logger

	mu      sync.Mutex
	console func(entities.ConsoleMessage)
}

// flushConsole - delivers browser log entries collected since the last call
func (p *seleniumPage) flushConsole() {
	p.mu.Lock()
	handler := p.console
	p.mu.Unlock()
	if handler == nil {
		return
	}
	messages, err := p.wd.Log(log.Browser)
	if err != nil {
		p.logger.Debugf("Failed to read browser log: %v", err)
		return
	}
	for _, m := range messages {
		handler(entities.ConsoleMessage{Type: strings.ToLower(string(m.Level)), Text: m.Message})
	}
}

func (p *seleniumPage) find(loc entities.Locator) ([]selenium.WebElement, error) {
	q, err := toQuery(loc)
	if err != nil {
		return nil, err
	}
	if q.CSS != "" {
		return p.wd.FindElements(selenium.ByCSSSelector, q.CSS)
	}
	return p.wd.FindElements(selenium.ByXPATH, q.XPath)
}

// waitVisible - waits until the first match of loc is displayed
func (p *seleniumPage) waitVisible(ctx context.Context, loc entities.Locator) (selenium.WebElement, error) {
	var found selenium.WebElement
	err := p.wd.WaitWithTimeout(func(wd selenium.WebDriver) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		els, err := p.find(loc)
		if err != nil || len(els) == 0 {
			return false, nil
		}
		displayed, err := els[0].IsDisplayed()
		if err != nil || !displayed {
			return false, nil
		}
		found = els[0]
		return true, nil
	}, timeoutWithin(ctx, defaultActionTimeout))
	if err != nil {
		return nil, notFound(loc, err)
	}
	return found, nil
}

func (p *seleniumPage) Navigate(ctx context.Context, url string) error {
	defer p.flushConsole()
	return p.wd.Get(url)
}

func (p *seleniumPage) URL(ctx context.Context) (string, error) {
	return p.wd.CurrentURL()
}

func (p *seleniumPage) Title(ctx context.Context) (string, error) {
	return p.wd.Title()
}

func (p *seleniumPage) Fill(ctx context.Context, loc entities.Locator, text string) error {
	el, err := p.waitVisible(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", loc, err)
	}
	return el.SendKeys(text)
}

func (p *seleniumPage) Click(ctx context.Context, loc entities.Locator) error {
	el, err := p.waitVisible(ctx, loc)
	if err != nil {
		return err
	}
	defer p.flushConsole()
	return el.Click()
}

func (p *seleniumPage) IsVisible(ctx context.Context, loc entities.Locator) (bool, error) {
	p.flushConsole()
	els, err := p.find(loc)
	if err != nil {
		return false, err
	}
	if len(els) == 0 {
		return false, nil
	}
	if err := (elementState{Count: len(els)}).strict(loc); err != nil {
		return false, err
	}
	return els[0].IsDisplayed()
}

func (p *seleniumPage) InputValue(ctx context.Context, loc entities.Locator) (string, error) {
	els, err := p.find(loc)
	if err != nil {
		return "", err
	}
	if len(els) == 0 {
		return "", notFound(loc, nil)
	}
	if err := (elementState{Count: len(els)}).strict(loc); err != nil {
		return "", err
	}
	value, err := p.wd.ExecuteScript("return arguments[0].value;", []interface{}{els[0]})
	if err != nil {
		return "", err
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", nil
}

func (p *seleniumPage) Count(ctx context.Context, loc entities.Locator) (int, error) {
	els, err := p.find(loc)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

func (p *seleniumPage) OnConsole(handler func(entities.ConsoleMessage)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.console = handler
}

func (p *seleniumPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.wd.Screenshot()
}

// Close - ends the WebDriver session
func (p *seleniumPage) Close() error {
	p.flushConsole()
	return p.wd.Quit()
}
