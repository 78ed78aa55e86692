// AngelaMos | 2026
// code.go

package attribution

import (
	"regexp"
	"strings"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,64}$`)

// reservedWords are top-level path segments that a vanity link can never
// claim.
var reservedWords = map[string]struct{}{
	"_next":       {},
	"about":       {},
	"academy":     {},
	"admin":       {},
	"api":         {},
	"apply":       {},
	"assets":      {},
	"auth":        {},
	"book":        {},
	"calendar":    {},
	"contact":     {},
	"dashboard":   {},
	"favicon.ico": {},
	"forbidden":   {},
	"help":        {},
	"login":       {},
	"logout":      {},
	"metrics":     {},
	"not-found":   {},
	"privacy":     {},
	"public":      {},
	"r":           {},
	"register":    {},
	"robots.txt":  {},
	"settings":    {},
	"sign-in":     {},
	"sign-up":     {},
	"signin":      {},
	"signup":      {},
	"sitemap.xml": {},
	"start":       {},
	"static":      {},
	"store":       {},
	"terms":       {},
	"v1":          {},
}

// IsReserved reports whether code is a reserved path word, ignoring case.
func IsReserved(code string) bool {
	_, ok := reservedWords[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// ValidCode reports whether code is well formed and not reserved. Codes
// failing this check are treated as unknown, never as errors.
func ValidCode(code string) bool {
	return codePattern.MatchString(code) && !IsReserved(code)
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
