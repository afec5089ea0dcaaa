package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginGuardPermissiveEnvironmentAllowsEverything(t *testing.T) {
	g := NewOriginGuard("local", "https://meridianmoto.com")

	for _, origin := range []string{
		"",
		"https://meridianmoto.com",
		"https://evil.example",
		"not a url at all",
	} {
		allowed, _ := g.Check(origin)
		assert.True(t, allowed, "local env must allow %q", origin)
	}
}

func TestOriginGuardProduction(t *testing.T) {
	g := NewOriginGuard("production", "https://meridianmoto.com")

	cases := []struct {
		origin  string
		allowed bool
	}{
		{"", true}, // same-origin and server-to-server calls send no header
		{"https://meridianmoto.com", true},
		{"https://MERIDIANMOTO.COM", true},
		{"http://meridianmoto.com:8443", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:5173", true},
		{"https://evil.example", false},
		{"https://meridianmoto.com.evil.example", false},
		{"://bad", false},
	}
	for _, tc := range cases {
		allowed, _ := g.Check(tc.origin)
		assert.Equal(t, tc.allowed, allowed, "origin %q", tc.origin)
	}
}

func TestOriginGuardReportsRejectedHost(t *testing.T) {
	g := NewOriginGuard("production", "https://meridianmoto.com")

	allowed, host := g.Check("https://attacker.example/path")
	assert.False(t, allowed)
	assert.Equal(t, "attacker.example", host)
}

func TestOriginGuardReferrerWithPathStillMatchesHost(t *testing.T) {
	// The handler falls back to Referer, which carries a path.
	g := NewOriginGuard("production", "https://meridianmoto.com")
	allowed, _ := g.Check("https://meridianmoto.com/models/voyager-900")
	assert.True(t, allowed)
}
