// Package shortid mints the URL-safe identifiers that appear in short links.
package shortid

import (
	"crypto/rand"
	"regexp"
)

// Length of generated identifiers. 64^8 values makes collisions negligible
// at this scale; the store's unique constraint is the backstop.
const Length = 8

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Generate returns a random identifier of Length characters drawn from the
// URL-safe alphabet.
func Generate() string {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform source is broken
		panic(err)
	}

	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}

	return string(buf)
}

// ValidSlug reports whether a caller-supplied slug can be used as an
// identifier: non-empty, letters, digits, hyphen and underscore only.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}
