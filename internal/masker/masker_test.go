package masker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "shared-document-abcd.html", FileName("abcdefgh"))
	assert.Equal(t, "shared-document-ab.html", FileName("ab"))
}

func TestFileNameShortSlugDoesNotRoundTrip(t *testing.T) {
	// an identifier shorter than PrefixLength encodes to a filename the
	// parser rejects, so its file URL is dead
	_, err := ParseFileName(FileName("ab"))
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestPhotoName(t *testing.T) {
	assert.Equal(t, "view-abcdefgh.html", PhotoName("abcdefgh"))
}

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		err    error
	}{
		{"shared-document-abcd.html", "abcd", nil},
		{"shared-document-a_-1.html", "a_-1", nil},
		{"shared-document-abc.html", "", ErrNoMatch},
		{"shared-document-abcde.html", "", ErrNoMatch},
		{"view-abcd.html", "", ErrNoMatch},
		{"random.html", "", ErrNoMatch},
		{"", "", ErrNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, err := ParseFileName(tt.name)
			assert.Equal(t, tt.prefix, prefix)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParsePhotoName(t *testing.T) {
	tests := []struct {
		name string
		id   string
		err  error
	}{
		{"view-abcdefgh.html", "abcdefgh", nil},
		{"view-x.html", "x", nil},
		{"view-.html", "", ErrNoMatch},
		{"shared-document-abcd.html", "", ErrNoMatch},
		{"", "", ErrNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParsePhotoName(tt.name)
			assert.Equal(t, tt.id, id)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	id := "q1W2e3R4"

	prefix, err := ParseFileName(FileName(id))
	assert.NoError(t, err)
	assert.Equal(t, id[:PrefixLength], prefix)

	full, err := ParsePhotoName(PhotoName(id))
	assert.NoError(t, err)
	assert.Equal(t, id, full)
}
