package expect

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/internal/fakepage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedPage(t *testing.T, b fakepage.Behavior, url string) *fakepage.Page {
	t.Helper()
	page := fakepage.New(b)
	require.NoError(t, page.Navigate(context.Background(), url))
	return page
}

func fast(page *fakepage.Page) *Expecter {
	return New(page, WithTimeout(200*time.Millisecond), WithInterval(10*time.Millisecond))
}

func TestToHaveTitle(t *testing.T) {
	ctx := context.Background()
	e := fast(loadedPage(t, fakepage.Behavior{}, "http://localhost:9999"))

	require.NoError(t, e.ToHaveTitle(ctx, regexp.MustCompile(`Code Expert`)))

	err := e.ToHaveTitle(ctx, regexp.MustCompile(`Grafana`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrExpectationNotMet))
	assert.Contains(t, err.Error(), "/Grafana/")
	assert.Contains(t, err.Error(), "Code Expert - Dependency Graph")
}

func TestToHaveURL(t *testing.T) {
	ctx := context.Background()
	e := fast(loadedPage(t, fakepage.Behavior{}, "http://localhost:9999/?ns=http-core"))

	require.NoError(t, e.ToHaveURL(ctx, regexp.MustCompile(`ns=http-core`)))
	require.NoError(t, e.ToHaveExactURL(ctx, "http://localhost:9999/?ns=http-core"))

	err := e.ToHaveExactURL(ctx, "http://localhost:9999/")
	var expErr *entities.ExpectationError
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, "http://localhost:9999/?ns=http-core", expErr.Actual)
	assert.Equal(t, 200*time.Millisecond, expErr.Timeout)
}

func TestToBeVisibleWaitsForRender(t *testing.T) {
	ctx := context.Background()
	e := fast(loadedPage(t, fakepage.Behavior{RenderDelay: 50 * time.Millisecond}, "http://localhost:9999/?ns=http-core"))

	require.NoError(t, e.ToBeVisible(ctx, entities.ByCSS(".mermaid svg"), 0))
}

func TestToBeVisibleExplicitTimeout(t *testing.T) {
	ctx := context.Background()
	e := fast(loadedPage(t, fakepage.Behavior{RenderDelay: 300 * time.Millisecond}, "http://localhost:9999/?ns=http-core"))

	// the default 200ms timeout is too short, an explicit one is not
	require.Error(t, e.ToBeVisible(ctx, entities.ByCSS("svg"), 0))
	require.NoError(t, e.ToBeVisible(ctx, entities.ByCSS("svg"), time.Second))
}

func TestToHaveValue(t *testing.T) {
	ctx := context.Background()
	page := loadedPage(t, fakepage.Behavior{}, "http://localhost:9999")
	e := fast(page)
	input := entities.ByCSS("#ns-filter")

	require.NoError(t, e.ToHaveValue(ctx, input, ""))
	require.NoError(t, page.Fill(ctx, input, "http-core"))
	require.NoError(t, e.ToHaveValue(ctx, input, "http-core"))

	err := e.ToHaveValue(ctx, entities.ByCSS("#missing"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrElementNotFound), "last lookup error is kept: %v", err)
}

func TestToHaveCount(t *testing.T) {
	ctx := context.Background()
	syntaxErr := entities.ByText("Syntax error")

	ok := fast(loadedPage(t, fakepage.Behavior{}, "http://localhost:9999/?ns=http-core"))
	require.NoError(t, ok.ToHaveCount(ctx, syntaxErr, 0))

	broken := fast(loadedPage(t, fakepage.Behavior{SyntaxError: true}, "http://localhost:9999/?ns=http-core"))
	err := broken.ToHaveCount(ctx, syntaxErr, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `text="Syntax error" to match 0 element(s)`)
}

func TestPollStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	page := loadedPage(t, fakepage.Behavior{}, "http://localhost:9999")
	e := New(page, WithTimeout(time.Minute), WithInterval(10*time.Millisecond))

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := e.ToBeVisible(ctx, entities.ByCSS("svg"), 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDefaults(t *testing.T) {
	e := New(fakepage.New(fakepage.Behavior{}), WithTimeout(0), WithInterval(-1))
	assert.Equal(t, DefaultTimeout, e.Timeout())
	assert.Equal(t, DefaultInterval, e.interval)
}
