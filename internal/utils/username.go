package utils

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yukikurage/event-platform-api/internal/constants"
)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameBase derives the username stem for an externally provisioned user:
// the email local-part followed by the tail of the external id.
func UsernameBase(email, externalID string) string {
	local := NormalizeEmail(email)
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}
	local = keepUsernameRunes(local)
	if local == "" {
		local = "user"
	}

	suffix := strings.ToLower(keepUsernameRunes(externalID))
	suffix = strings.NewReplacer(".", "", "_", "").Replace(suffix)
	if len(suffix) > constants.UsernameSuffixLen {
		suffix = suffix[len(suffix)-constants.UsernameSuffixLen:]
	}
	if suffix == "" {
		return local
	}
	return local + "_" + suffix
}

// UsernameCandidate returns the n-th candidate for base; 0 is base itself.
func UsernameCandidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + strconv.Itoa(n)
}

func keepUsernameRunes(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_') {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
