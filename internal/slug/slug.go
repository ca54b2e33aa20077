// Package slug derives URL-safe dataset identifiers from titles.
package slug

import (
	"strings"

	"github.com/google/uuid"
)

// maxLen bounds the slug so compound ids stay comfortably inside key limits.
const maxLen = 40

// FromTitle lowercases the title, collapses every run of characters outside
// [a-z0-9] into a single hyphen, and truncates to maxLen.
func FromTitle(title string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		} else {
			pending = true
		}
	}

	s := b.String()
	if len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	return s
}

// WithRandomSuffix appends a short random suffix to sidestep a slug
// collision. The suffixed slug is not checked again; a further collision
// surfaces as a create conflict downstream.
func WithRandomSuffix(s string) string {
	return s + "-" + uuid.NewString()[:5]
}
