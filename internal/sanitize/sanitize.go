// Package sanitize cleans user-supplied HTML before it reaches storage.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

func init() {
	ugcPolicy.AllowImages()
	// Force links to open in new tab
	ugcPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	// Add noopener or noreferrer and follow security best practices
	ugcPolicy.RequireNoReferrerOnLinks(true)
}

// HTML sanitizes rich content, allowing the usual user-generated markup while
// stripping scripts, event handlers and unsafe URLs.
func HTML(s string) string {
	return ugcPolicy.Sanitize(s)
}

// Text strips all markup; used for titles and other plain-text fields.
func Text(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
