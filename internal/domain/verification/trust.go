package verification

import (
	"net/url"
	"strings"
)

// DefaultTrustedDomains are the health authorities accepted as sources when
// no allowlist is configured.
var DefaultTrustedDomains = []string{
	"who.int",
	"cdc.gov",
	"mohfw.gov.in",
	"iapindia.org",
	"nhp.gov.in",
	"icmr.gov.in",
	"unicef.org",
}

// hostTrusted reports whether the URL's hostname contains any trusted domain.
// Unparseable URLs and URLs without a host are never trusted.
func hostTrusted(trusted []string, raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range trusted {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && strings.Contains(host, d) {
			return true
		}
	}
	return false
}
