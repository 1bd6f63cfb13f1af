package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// SecurityLayer keeps the browser on the configured target. Remote targets
// are refused unless explicitly allowed, and navigations may not leave the
// target origin.
type SecurityLayer struct {
	logger      *logrus.Logger
	allowRemote bool
}

func NewSecurityLayer(logger *logrus.Logger, allowRemote bool) *SecurityLayer {
	return &SecurityLayer{
		logger:      logger,
		allowRemote: allowRemote,
	}
}

func (s *SecurityLayer) CheckTarget(target string) error {
	u, err := parseHTTP(target)
	if err != nil {
		return err
	}
	if isLoopback(u.Hostname()) {
		return nil
	}
	if !s.allowRemote {
		return fmt.Errorf("refusing to run against non-local target %s (set E2E_ALLOW_REMOTE=true to allow)", u.Host)
	}
	s.logger.Warnf("Running against remote target: %s", u.Host)
	return nil
}

func (s *SecurityLayer) CheckNavigation(target, next string) error {
	base, err := parseHTTP(target)
	if err != nil {
		return err
	}
	u, err := parseHTTP(next)
	if err != nil {
		return err
	}
	if origin(base) != origin(u) {
		s.logger.Warnf("Blocked navigation from %s to %s", origin(base), origin(u))
		return fmt.Errorf("navigation to %s leaves target origin %s", next, origin(base))
	}
	return nil
}

func parseHTTP(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}

// origin - scheme and host with the default port made explicit
func origin(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return u.Scheme + "://" + net.JoinHostPort(strings.ToLower(u.Hostname()), port)
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
