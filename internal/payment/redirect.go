// AngelaMos | 2026
// redirect.go

package payment

import (
	"net/url"
	"strings"
)

const defaultRedirect = "/dashboard"

// SafeRedirectPath keeps post-checkout redirects on the client's own
// origin. Anything that is not a plain absolute path becomes the
// dashboard.
func SafeRedirectPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") ||
		strings.Contains(raw, `\`) {
		return defaultRedirect
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return defaultRedirect
	}

	return raw
}
