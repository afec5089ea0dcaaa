package assistant

import (
	"net/url"
	"strings"
)

// OriginGuard validates a request's declared origin against a small static
// allow-list derived at startup. The check is pure: it never touches shared
// state, so it is safe on every request without coordination.
type OriginGuard struct {
	permissive bool
	allowed    map[string]struct{}
}

// NewOriginGuard builds the allow-list from the configured site URL plus the
// fixed localhost entries. In a permissive environment (local/dev) every
// origin passes, so ephemeral preview and tunnel hosts are not blocked.
func NewOriginGuard(env, siteURL string) *OriginGuard {
	g := &OriginGuard{
		permissive: strings.EqualFold(strings.TrimSpace(env), "local"),
		allowed: map[string]struct{}{
			"localhost": {},
			"127.0.0.1": {},
		},
	}
	if u, err := url.Parse(strings.TrimSpace(siteURL)); err == nil {
		if host := u.Hostname(); host != "" {
			g.allowed[strings.ToLower(host)] = struct{}{}
		}
	}
	return g
}

// Check decides whether the origin/referrer header value is acceptable.
// An absent header is allowed: same-origin and server-to-server calls do not
// send one. A present header must parse and its host must be allow-listed;
// parse failures reject.
func (g *OriginGuard) Check(originHeader string) (allowed bool, rejectedHost string) {
	if g.permissive {
		return true, ""
	}
	origin := strings.TrimSpace(originHeader)
	if origin == "" {
		return true, ""
	}
	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		return false, origin
	}
	host := strings.ToLower(u.Hostname())
	if _, ok := g.allowed[host]; ok {
		return true, ""
	}
	return false, host
}
