// Package endpoint guards the base URLs remote cleaners are allowed to call.
package endpoint

import (
	"fmt"
	"net/url"
	"strings"
)

// Policy describes one remote API: the variable that overrides its base URL,
// the default URL and the hosts accepted when no allow-list is configured.
type Policy struct {
	Var          string
	DefaultURL   string
	DefaultHosts []string
}

var (
	OpenRouter = Policy{
		Var:          "OPENROUTER_BASE_URL",
		DefaultURL:   "https://openrouter.ai",
		DefaultHosts: []string{"openrouter.ai", "api.openrouter.ai"},
	}
	Gemini = Policy{
		Var:          "GEMINI_BASE_URL",
		DefaultURL:   "https://generativelanguage.googleapis.com",
		DefaultHosts: []string{"generativelanguage.googleapis.com"},
	}
)

func (p Policy) Normalize(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = p.DefaultURL
	}
	return strings.TrimRight(baseURL, "/")
}

// Validate accepts only absolute https URLs without credentials, query or
// fragment whose host is allowed.
func (p Policy) Validate(baseURL string, allowedHosts []string) error {
	baseURL = p.Normalize(baseURL)

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", p.Var, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: absolute URL with host is required", p.Var, baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid %s %q: userinfo is not allowed", p.Var, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid %s %q: query and fragment are not allowed", p.Var, baseURL)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("invalid %s %q: https is required", p.Var, baseURL)
	}

	host := strings.ToLower(u.Hostname())
	if _, ok := p.allowed(allowedHosts)[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not in %s", p.Var, baseURL, host, p.allowVar())
	}
	return nil
}

func (p Policy) allowVar() string {
	return strings.TrimSuffix(p.Var, "_BASE_URL") + "_ALLOWED_HOSTS"
}

func (p Policy) allowed(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		if v != "" {
			out[v] = struct{}{}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, h := range p.DefaultHosts {
		out[h] = struct{}{}
	}
	return out
}
