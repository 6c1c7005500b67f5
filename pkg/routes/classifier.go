// pkg/routes/classifier.go
package routes

import (
	"path"
	"strings"
)

// Classification is the per-request verdict on a URL path. Derived fresh on
// every request; never persisted.
type Classification struct {
	SkipTenantRouting bool
	RequiresAuth      bool
	StaticAsset       bool
}

// prefixRule pairs a path prefix with the classification it implies. Rules
// live in one ordered table so precedence is a property of the data, not of
// code order.
type prefixRule struct {
	prefix string
	class  Classification
}

// Classifier answers routing questions about paths. Pure and safe for
// concurrent use after construction.
type Classifier struct {
	table      []prefixRule
	staticExts map[string]struct{}
}

// NewClassifier compiles a rule set into an ordered prefix table. Protected
// prefixes come first: a path that is both protected and skipped must report
// RequiresAuth, since the dispatcher gates auth before tenant routing.
func NewClassifier(rules Rules) *Classifier {
	c := &Classifier{staticExts: map[string]struct{}{}}
	for _, p := range rules.ProtectedPrefixes {
		c.table = append(c.table, prefixRule{prefix: p, class: Classification{SkipTenantRouting: true, RequiresAuth: true}})
	}
	for _, p := range rules.SkipPrefixes {
		c.table = append(c.table, prefixRule{prefix: p, class: Classification{SkipTenantRouting: true}})
	}
	for _, ext := range rules.StaticExtensions {
		c.staticExts[strings.ToLower(ext)] = struct{}{}
	}
	return c
}

// Classify walks the ordered table; the first matching rule wins. Static
// assets are detected by the final segment's extension and always skip tenant
// routing.
func (c *Classifier) Classify(pathname string) Classification {
	for _, rule := range c.table {
		if matchesPrefix(pathname, rule.prefix) {
			return rule.class
		}
	}
	if ext := strings.ToLower(path.Ext(pathname)); ext != "" {
		if _, ok := c.staticExts[ext]; ok {
			return Classification{SkipTenantRouting: true, StaticAsset: true}
		}
	}
	return Classification{}
}

// matchesPrefix is a segment-aware prefix test: /team matches /team and
// /team/x but not /teammates.
func matchesPrefix(pathname, prefix string) bool {
	if !strings.HasPrefix(pathname, prefix) {
		return false
	}
	return len(pathname) == len(prefix) || pathname[len(prefix)] == '/'
}
