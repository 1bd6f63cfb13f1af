package security

import (
	"testing"

	"codeexpert_e2e/domain/interfaces"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ interfaces.NavigationGuard = (*SecurityLayer)(nil)

func TestCheckTarget(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	local := NewSecurityLayer(logger, false)

	for _, target := range []string{
		"http://localhost:9999",
		"http://127.0.0.1:9999/",
		"http://[::1]:9999",
		"https://viewer.localhost",
	} {
		assert.NoError(t, local.CheckTarget(target), target)
	}

	err := local.CheckTarget("http://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E2E_ALLOW_REMOTE")

	assert.Error(t, local.CheckTarget("file:///tmp/index.html"))
	assert.Error(t, local.CheckTarget("http://"))

	remote := NewSecurityLayer(logger, true)
	require.NoError(t, remote.CheckTarget("http://example.com"))
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "example.com")
}

func TestCheckNavigation(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	guard := NewSecurityLayer(logger, false)
	base := "http://localhost:9999"

	assert.NoError(t, guard.CheckNavigation(base, "http://localhost:9999/?ns=http-core"))
	assert.NoError(t, guard.CheckNavigation("http://localhost", "http://LOCALHOST:80/"))
	assert.NoError(t, guard.CheckNavigation("https://localhost", "https://localhost:443/x"))

	assert.Error(t, guard.CheckNavigation(base, "http://localhost:9998/"))
	assert.Error(t, guard.CheckNavigation(base, "https://localhost:9999/"))
	assert.Error(t, guard.CheckNavigation(base, "http://evil.example/"))
	assert.Error(t, guard.CheckNavigation(base, "javascript:alert(1)"))
}
