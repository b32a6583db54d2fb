package service

import (
	"context"
	"strings"
	"testing"

	"github.com/emrgen/linktrace/internal/shortid"
	"github.com/emrgen/linktrace/internal/store"
	"github.com/emrgen/linktrace/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkService_Create(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc := NewLinkService(store.NewGormStore(tester.TestDB()), nil)

	tests := []struct {
		name  string
		input CreateLinkInput
		err   error
	}{
		{
			name:  "generated id",
			input: CreateLinkInput{Name: "Test"},
		},
		{
			name:  "with destination",
			input: CreateLinkInput{Name: "Test", CustomURL: "https://example.com/page"},
		},
		{
			name:  "with slug",
			input: CreateLinkInput{Name: "Test", CustomSlug: "my-link_1"},
		},
		{
			name:  "missing name",
			input: CreateLinkInput{Name: "  "},
			err:   ErrNameRequired,
		},
		{
			name:  "bad slug",
			input: CreateLinkInput{Name: "Test", CustomSlug: "has space"},
			err:   ErrInvalidSlug,
		},
		{
			name:  "relative url",
			input: CreateLinkInput{Name: "Test", CustomURL: "/just/a/path"},
			err:   ErrInvalidURL,
		},
		{
			name:  "ftp url",
			input: CreateLinkInput{Name: "Test", CustomURL: "ftp://example.com/file"},
			err:   ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := svc.Create(context.TODO(), tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, link)

			if tt.input.CustomSlug != "" {
				assert.Equal(t, tt.input.CustomSlug, link.ID)
				require.NotNil(t, link.CustomSlug)
			} else {
				assert.Len(t, link.ID, shortid.Length)
				assert.True(t, shortid.ValidSlug(link.ID))
				assert.Nil(t, link.CustomSlug)
			}

			// a fresh link has no visits
			_, visits, err := svc.GetWithVisits(context.TODO(), link.ID)
			require.NoError(t, err)
			assert.Empty(t, visits)
		})
	}
}

func TestLinkService_CreateSlugTaken(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc := NewLinkService(store.NewGormStore(tester.TestDB()), nil)

	_, err := svc.Create(context.TODO(), CreateLinkInput{Name: "First", CustomSlug: "taken"})
	require.NoError(t, err)

	before, err := svc.List(context.TODO())
	require.NoError(t, err)

	_, err = svc.Create(context.TODO(), CreateLinkInput{Name: "Second", CustomSlug: "taken"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	// the rejected creation must not mutate the store
	after, err := svc.List(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))

	link, _, err := svc.GetWithVisits(context.TODO(), "taken")
	require.NoError(t, err)
	assert.Equal(t, "First", link.Name)
}

func TestLinkService_List(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc := NewLinkService(store.NewGormStore(tester.TestDB()), nil)

	for _, name := range []string{"one", "two", "three"} {
		_, err := svc.Create(context.TODO(), CreateLinkInput{Name: name})
		require.NoError(t, err)
	}

	links, err := svc.List(context.TODO())
	require.NoError(t, err)
	require.Len(t, links, 3)

	// newest first
	for i := 1; i < len(links); i++ {
		assert.False(t, links[i-1].CreatedAt.Before(links[i].CreatedAt))
	}
}

func TestLinkService_Delete(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	links := NewLinkService(st, nil)
	visits := NewVisitService(st, nil, true)

	link, err := links.Create(context.TODO(), CreateLinkInput{Name: "Doomed"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := visits.Record(context.TODO(), link.ID, RecordInput{LocationDenied: true})
		require.NoError(t, err)
	}

	count, err := st.CountVisits(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	err = links.Delete(context.TODO(), link.ID)
	require.NoError(t, err)

	// the cascade removed every visit of the link
	count, err = st.CountVisits(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, _, err = links.GetWithVisits(context.TODO(), link.ID)
	assert.ErrorIs(t, err, ErrLinkNotFound)

	err = links.Delete(context.TODO(), link.ID)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinkService_ResolveFilePrefix(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc := NewLinkService(store.NewGormStore(tester.TestDB()), nil)

	first, err := svc.Create(context.TODO(), CreateLinkInput{Name: "first", CustomSlug: "abcd1111"})
	require.NoError(t, err)
	_, err = svc.Create(context.TODO(), CreateLinkInput{Name: "second", CustomSlug: "abcd2222"})
	require.NoError(t, err)

	// two identifiers share the 4-char prefix; resolution is deterministic
	// and picks the first in creation order
	link, err := svc.ResolveFilePrefix(context.TODO(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, first.ID, link.ID)

	// resolution is stable across calls
	again, err := svc.ResolveFilePrefix(context.TODO(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, link.ID, again.ID)

	_, err = svc.ResolveFilePrefix(context.TODO(), "zzzz")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinkService_Resolve(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc := NewLinkService(store.NewGormStore(tester.TestDB()), nil)

	link, err := svc.Create(context.TODO(), CreateLinkInput{Name: "Test", CustomURL: "https://example.com"})
	require.NoError(t, err)

	got, err := svc.Resolve(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	assert.True(t, got.HasDestination())

	_, err = svc.Resolve(context.TODO(), "missing1")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestURLsFor(t *testing.T) {
	urls := URLsFor("https://short.example/", "abcdefgh")

	assert.Equal(t, "https://short.example/t/abcdefgh", urls.URL)
	assert.Equal(t, "https://short.example/file/shared-document-abcd.html", urls.Masked.File)
	assert.Equal(t, "https://short.example/photo/view-abcdefgh.html", urls.Masked.Photo)

	assert.True(t, strings.HasSuffix(urls.Masked.Photo, "/photo/view-abcdefgh.html"))
}
