// Package slug generates URL-safe identifiers from listing titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Option configures slug generation.
type Option func(*config)

type config struct {
	maxLength int
	separator string
}

// MaxLength truncates the slug to at most n runes. Zero means no limit.
func MaxLength(n int) Option {
	return func(c *config) { c.maxLength = n }
}

// Separator sets the word separator. Default is "-".
func Separator(s string) Option {
	return func(c *config) { c.separator = s }
}

// Make converts s into a lowercase URL-safe slug. Accented characters are
// folded to their ASCII base form so "Café Déco" becomes "cafe-deco".
func Make(s string, opts ...Option) string {
	cfg := &config{separator: "-"}
	for _, opt := range opts {
		opt(cfg)
	}

	// Decompose and strip combining marks to fold accents to ASCII.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	lastSep := true // suppress leading separator
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				b.WriteString(cfg.separator)
				lastSep = true
			}
		}
	}

	out := strings.TrimSuffix(b.String(), cfg.separator)

	if cfg.maxLength > 0 {
		runes := []rune(out)
		if len(runes) > cfg.maxLength {
			out = strings.TrimSuffix(string(runes[:cfg.maxLength]), cfg.separator)
		}
	}

	return out
}
