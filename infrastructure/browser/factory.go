// Package browser implements interfaces.Browser on top of playwright,
// chromedp and selenium.
package browser

import (
	"fmt"

	"codeexpert_e2e/domain/interfaces"
	"codeexpert_e2e/infrastructure/config"

	"github.com/sirupsen/logrus"
)

// New - starts the engine selected by the configuration
func New(logger *logrus.Logger, cfg *config.Config) (interfaces.Browser, error) {
	switch cfg.Engine {
	case config.EnginePlaywright:
		return NewPlaywrightController(logger, PlaywrightOptions{
			BrowserType: cfg.BrowserType,
			Headless:    cfg.Headless,
			NavTimeout:  cfg.NavTimeout,
		})
	case config.EngineChromedp:
		return NewChromedpController(logger, ChromedpOptions{
			Headless:     cfg.Headless,
			ChromeBinary: cfg.ChromeBinary,
			NavTimeout:   cfg.NavTimeout,
		})
	case config.EngineSelenium:
		return NewSeleniumController(logger, SeleniumOptions{
			DriverPath:   cfg.DriverPath,
			ChromeBinary: cfg.ChromeBinary,
			Headless:     cfg.Headless,
			NavTimeout:   cfg.NavTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown engine: %s", cfg.Engine)
	}
}
