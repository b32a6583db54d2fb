// Package masker encodes link identifiers into filenames that disguise a
// short link as a generic shared document or photo.
package masker

import (
	"errors"
	"fmt"
	"regexp"
)

// PrefixLength is the number of identifier characters kept by the file
// encoding. The encoding is deliberately lossy: two identifiers sharing a
// prefix map to the same filename, and resolution picks the oldest match.
// An identifier shorter than PrefixLength yields a filename ParseFileName
// will not accept, so its file URL always resolves to the not-found page;
// the photo and plain URLs still work.
const PrefixLength = 4

var (
	// ErrNoMatch is returned when a filename does not follow a masked pattern.
	ErrNoMatch = errors.New("filename does not match a masked pattern")

	filePattern  = regexp.MustCompile(`^shared-document-(.{4})\.html$`)
	photoPattern = regexp.MustCompile(`^view-(.+)\.html$`)
)

// FileName encodes the first PrefixLength characters of the identifier into
// the shared-document filename.
func FileName(id string) string {
	prefix := id
	if len(prefix) > PrefixLength {
		prefix = prefix[:PrefixLength]
	}
	return fmt.Sprintf("shared-document-%s.html", prefix)
}

// PhotoName encodes the full identifier into the photo filename. Unlike
// FileName this is lossless.
func PhotoName(id string) string {
	return fmt.Sprintf("view-%s.html", id)
}

// ParseFileName recovers the identifier prefix from a shared-document
// filename.
func ParseFileName(name string) (string, error) {
	m := filePattern.FindStringSubmatch(name)
	if m == nil {
		return "", ErrNoMatch
	}
	return m[1], nil
}

// ParsePhotoName recovers the full identifier from a photo filename.
func ParsePhotoName(name string) (string, error) {
	m := photoPattern.FindStringSubmatch(name)
	if m == nil {
		return "", ErrNoMatch
	}
	return m[1], nil
}
