package table

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Secrets holds the salt and pepper for the keyed one-way field transform.
// The zero value disables encryption without failing the run, so a
// better-configured later run can still encrypt retroactively.
type Secrets struct {
	Salt   string
	Pepper string
}

// Configured reports whether encryption material is present.
func (s Secrets) Configured() bool {
	return s.Salt != "" && s.Pepper != ""
}

// Transform applies the keyed one-way transform to a single field value.
func (s Secrets) Transform(value string) string {
	sum := sha256.Sum256([]byte(s.Salt + value + s.Pepper))

	return hex.EncodeToString(sum[:])
}

// UsernamePattern rewrites raw identities so multiple spellings collapse to
// one pseudonym before encryption.
type UsernamePattern struct {
	Pattern *regexp.Regexp
	Replace string
}

// canonicalize applies the pattern rewrites in order, then case-folds.
func canonicalize(value string, patterns []UsernamePattern) string {
	for _, p := range patterns {
		value = p.Pattern.ReplaceAllString(value, p.Replace)
	}

	return strings.ToLower(value)
}
