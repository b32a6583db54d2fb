package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/emrgen/linktrace/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "linktrace.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))

	return NewGormStore(db)
}

func addLink(t *testing.T, s Store, id string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, s.CreateLink(context.Background(), &model.Link{
		ID:        id,
		Name:      id,
		CreatedAt: createdAt,
	}))
}

func TestFindLinkByIDPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	addLink(t, s, "abcd1111", base)
	addLink(t, s, "abcd2222", base.Add(time.Minute))
	addLink(t, s, "ab_d3333", base.Add(2*time.Minute))

	t.Run("oldest match wins", func(t *testing.T) {
		link, err := s.FindLinkByIDPrefix(ctx, "abcd")
		require.NoError(t, err)
		assert.Equal(t, "abcd1111", link.ID)
	})

	t.Run("underscore is literal", func(t *testing.T) {
		link, err := s.FindLinkByIDPrefix(ctx, "ab_d")
		require.NoError(t, err)
		assert.Equal(t, "ab_d3333", link.ID)
	})

	t.Run("all-underscore prefix matches nothing", func(t *testing.T) {
		_, err := s.FindLinkByIDPrefix(ctx, "____")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("percent is literal", func(t *testing.T) {
		_, err := s.FindLinkByIDPrefix(ctx, "%")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("unknown prefix", func(t *testing.T) {
		_, err := s.FindLinkByIDPrefix(ctx, "zzzz")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})
}
