package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/emrgen/linktrace/internal/model"
	"gorm.io/gorm"
)

// likeEscaper neutralizes the LIKE wildcards in a pattern fragment. The
// identifier alphabet includes "_", which LIKE would otherwise treat as a
// single-character wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateLink(ctx context.Context, link *model.Link) error {
	err := g.db.WithContext(ctx).Create(link).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateID
	}
	return err
}

func (g *GormStore) GetLink(ctx context.Context, id string) (*model.Link, error) {
	var link model.Link
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (g *GormStore) ListLinks(ctx context.Context) ([]*model.Link, error) {
	var links []*model.Link
	err := g.db.WithContext(ctx).Order("created_at desc, id desc").Find(&links).Error
	return links, err
}

// FindLinkByIDPrefix scans in created_at ASC, id ASC order so that prefix
// collisions always resolve to the same link.
func (g *GormStore) FindLinkByIDPrefix(ctx context.Context, prefix string) (*model.Link, error) {
	var link model.Link
	err := g.db.WithContext(ctx).
		Where(`id LIKE ? ESCAPE '\'`, likeEscaper.Replace(prefix)+"%").
		Order("created_at asc, id asc").
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (g *GormStore) LinkExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.Link{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (g *GormStore) DeleteLink(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Link{}).Error
}

func (g *GormStore) CreateVisit(ctx context.Context, visit *model.Visit) error {
	return g.db.WithContext(ctx).Create(visit).Error
}

func (g *GormStore) ListVisits(ctx context.Context, linkID string) ([]*model.Visit, error) {
	var visits []*model.Visit
	err := g.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("visited_at desc, id desc").
		Find(&visits).Error
	return visits, err
}

func (g *GormStore) CountVisits(ctx context.Context, linkID string) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.Visit{}).Where("link_id = ?", linkID).Count(&count).Error
	return count, err
}

func (g *GormStore) DeleteVisits(ctx context.Context, linkID string) error {
	return g.db.WithContext(ctx).Where("link_id = ?", linkID).Delete(&model.Visit{}).Error
}

func (g *GormStore) DeleteVisitsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := g.db.WithContext(ctx).Where("visited_at < ?", cutoff).Delete(&model.Visit{})
	return res.RowsAffected, res.Error
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
