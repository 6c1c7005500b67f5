// pkg/routes/rules.go
package routes

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules is the declarative routing policy the classifier is built from.
// Defaults cover the platform's own surfaces; deployments may override the
// whole policy with a YAML file.
type Rules struct {
	// Prefixes exempt from tenant routing (platform surfaces, framework
	// assets, the not-found page itself).
	SkipPrefixes []string `yaml:"skip_prefixes"`
	// Prefixes requiring an authenticated session. Always also exempt from
	// tenant routing; auth is gated before any rewrite.
	ProtectedPrefixes []string `yaml:"protected_prefixes"`
	// File extensions served as static assets, matched on the final path
	// segment. Enumerated, not inferred.
	StaticExtensions []string `yaml:"static_extensions"`
}

// DefaultRules is the canonical policy. Checkout is deliberately absent from
// the skip list: checkout pages belong to the storefront and are
// tenant-scoped.
func DefaultRules() Rules {
	return Rules{
		SkipPrefixes: []string{
			"/_next",
			"/static",
			"/assets",
			"/api",
			"/login",
			"/signup",
			"/auth",
			"/onboarding",
			"/store-not-found",
		},
		ProtectedPrefixes: []string{
			"/dashboard",
			"/settings",
			"/team",
			"/projects",
			"/products-management",
		},
		StaticExtensions: []string{
			".ico", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".avif",
			".css", ".js", ".mjs", ".map",
			".woff", ".woff2", ".ttf", ".otf", ".eot",
			".txt", ".xml", ".pdf", ".webmanifest",
		},
	}
}

// LoadRules reads a YAML policy file. Empty path returns the defaults; any
// list left empty in the file falls back to its default, so partial overrides
// stay safe.
func LoadRules(path string) (Rules, error) {
	def := DefaultRules()
	if path == "" {
		return def, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}
	if len(r.SkipPrefixes) == 0 {
		r.SkipPrefixes = def.SkipPrefixes
	}
	if len(r.ProtectedPrefixes) == 0 {
		r.ProtectedPrefixes = def.ProtectedPrefixes
	}
	if len(r.StaticExtensions) == 0 {
		r.StaticExtensions = def.StaticExtensions
	}
	return r, nil
}
