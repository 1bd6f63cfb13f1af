package interfaces

import (
	"codeexpert_e2e/domain/entities"
	"context"
)

// Browser defines a running browser engine that hands out isolated pages
type Browser interface {
	// NewPage opens a page with its own isolated state
	NewPage(ctx context.Context) (Page, error)

	// Name returns the engine name used in reports
	Name() string

	// Close shuts the engine down
	Close() error
}

// Page defines the primitives scenarios and expectations are built from.
// Queries return the current state immediately; waiting is done by the caller.
type Page interface {
	// Navigate loads a URL and waits for the load event
	Navigate(ctx context.Context, url string) error

	// URL returns the current page URL
	URL(ctx context.Context) (string, error)

	// Title returns the current page title
	Title(ctx context.Context) (string, error)

	// Fill replaces the value of an input element
	Fill(ctx context.Context, loc entities.Locator, text string) error

	// Click clicks on an element
	Click(ctx context.Context, loc entities.Locator) error

	// IsVisible reports whether the element exists and is rendered
	IsVisible(ctx context.Context, loc entities.Locator) (bool, error)

	// InputValue returns the value of an input element
	InputValue(ctx context.Context, loc entities.Locator) (string, error)

	// Count returns the number of elements matching the locator
	Count(ctx context.Context, loc entities.Locator) (int, error)

	// OnConsole registers a handler for browser console messages
	OnConsole(handler func(entities.ConsoleMessage))

	// Screenshot captures the visible page as PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the page and its isolated state
	Close() error
}
