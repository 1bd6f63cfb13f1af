package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeexpert_e2e/domain/interfaces"
	"codeexpert_e2e/infrastructure/config"

	"github.com/chromedp/cdproto/runtime"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ interfaces.Browser = (*playwrightController)(nil)
	_ interfaces.Page    = (*playwrightPage)(nil)
	_ interfaces.Browser = (*chromedpController)(nil)
	_ interfaces.Page    = (*chromedpPage)(nil)
	_ interfaces.Browser = (*SeleniumController)(nil)
	_ interfaces.Page    = (*seleniumPage)(nil)
)

func TestNewUnknownEngine(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	cfg := config.Default()
	cfg.Engine = "puppeteer"

	_, err := New(logger, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")
}

func TestTimeoutWithin(t *testing.T) {
	assert.Equal(t, 30*time.Second, timeoutWithin(context.Background(), 30*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got := timeoutWithin(ctx, 30*time.Second)
	assert.LessOrEqual(t, got, time.Second)
	assert.Greater(t, got, time.Duration(0))

	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()
	assert.Equal(t, time.Millisecond, timeoutWithin(expired, 30*time.Second))
}

func TestConsoleText(t *testing.T) {
	args := []*runtime.RemoteObject{
		{Type: runtime.TypeString, Value: []byte(`"BROWSER"`)},
		{Type: runtime.TypeNumber, Value: []byte(`42`)},
		{Type: runtime.TypeObject, Description: "Error: boom"},
		nil,
		{Type: runtime.TypeUndefined},
	}
	assert.Equal(t, "BROWSER 42 Error: boom undefined", consoleText(args))
	assert.Equal(t, "", consoleText(nil))
}

func TestFindChromeDriver(t *testing.T) {
	dir := t.TempDir()
	driver := filepath.Join(dir, "chromedriver")
	require.NoError(t, os.WriteFile(driver, []byte("#!/bin/sh\n"), 0755))

	got, err := findChromeDriver(driver)
	require.NoError(t, err)
	assert.Equal(t, driver, got)

	_, err = findChromeDriver(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFindChromeBinaryPrefersConfigured(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "chrome")
	require.NoError(t, os.WriteFile(bin, nil, 0755))
	assert.Equal(t, bin, findChromeBinary(bin))
}

func TestSeleniumCapabilities(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s := &SeleniumController{logger: logger, opts: SeleniumOptions{Headless: true, ChromeBinary: "/opt/chrome"}}

	caps := s.capabilities()
	assert.Equal(t, "chrome", caps["browserName"])
	assert.Equal(t, map[string]string{"browser": "ALL"}, caps["goog:loggingPrefs"])
	require.NoError(t, s.Close(), "closing without a service is a no-op")
}
