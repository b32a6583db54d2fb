package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/emrgen/linktrace/internal/cache"
	"github.com/emrgen/linktrace/internal/masker"
	"github.com/emrgen/linktrace/internal/model"
	"github.com/emrgen/linktrace/internal/shortid"
	"github.com/emrgen/linktrace/internal/store"
	"github.com/sirupsen/logrus"
)

// NewLinkService creates a new LinkService. cache may be nil; every lookup
// then goes straight to the store.
func NewLinkService(store store.Store, cache *cache.Redis) *LinkService {
	return &LinkService{
		store: store,
		cache: cache,
	}
}

// LinkService owns the link lifecycle: identifier allocation, creation,
// listing, resolution and cascading deletes.
type LinkService struct {
	store store.Store
	cache *cache.Redis
}

// CreateLinkInput carries the caller-supplied fields of a new link.
type CreateLinkInput struct {
	Name       string
	CustomURL  string
	CustomSlug string
}

// DerivedURLs are the presentation URLs computed for a link from a base
// origin: the plain short link and its two masked variants.
type DerivedURLs struct {
	URL    string     `json:"url"`
	Masked MaskedURLs `json:"masked_urls"`
}

type MaskedURLs struct {
	File  string `json:"file"`
	Photo string `json:"photo"`
}

// URLsFor computes the derived presentation URLs of an identifier.
func URLsFor(base, id string) DerivedURLs {
	base = strings.TrimRight(base, "/")
	return DerivedURLs{
		URL: base + "/t/" + id,
		Masked: MaskedURLs{
			File:  base + "/file/" + masker.FileName(id),
			Photo: base + "/photo/" + masker.PhotoName(id),
		},
	}
}

// Create validates the input, allocates the identifier and persists the
// link. A requested slug that is already present yields ErrSlugTaken without
// touching the store. The generated-id path does a check-then-insert; the
// store's primary key constraint settles the race if two creations collide.
func (l *LinkService) Create(ctx context.Context, in CreateLinkInput) (*model.Link, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	customURL := strings.TrimSpace(in.CustomURL)
	if customURL != "" && !validDestination(customURL) {
		return nil, ErrInvalidURL
	}

	link := &model.Link{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if customURL != "" {
		link.CustomURL = &customURL
	}

	if slug := strings.TrimSpace(in.CustomSlug); slug != "" {
		if !shortid.ValidSlug(slug) {
			return nil, ErrInvalidSlug
		}

		exists, err := l.store.LinkExists(ctx, slug)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrSlugTaken
		}

		link.ID = slug
		link.CustomSlug = &slug
	} else {
		link.ID = shortid.Generate()

		exists, err := l.store.LinkExists(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			// 64^8 values make this close to unreachable; take one more draw
			link.ID = shortid.Generate()
		}
	}

	err := l.store.CreateLink(ctx, link)
	if errors.Is(err, store.ErrDuplicateID) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, err
	}

	logrus.Infof("created link %s (name=%q, destination=%v)", link.ID, link.Name, link.HasDestination())

	l.cacheSet(ctx, link)

	return link, nil
}

// List returns all links, newest first.
func (l *LinkService) List(ctx context.Context) ([]*model.Link, error) {
	return l.store.ListLinks(ctx)
}

// GetWithVisits returns a link and its visits, newest visit first.
func (l *LinkService) GetWithVisits(ctx context.Context, id string) (*model.Link, []*model.Visit, error) {
	link, err := l.store.GetLink(ctx, id)
	if errors.Is(err, store.ErrLinkNotFound) {
		return nil, nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	visits, err := l.store.ListVisits(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return link, visits, nil
}

// Delete removes a link and all of its visits as one transaction.
func (l *LinkService) Delete(ctx context.Context, id string) error {
	err := l.store.Transaction(ctx, func(tx store.Store) error {
		_, err := tx.GetLink(ctx, id)
		if err != nil {
			return err
		}

		if err := tx.DeleteVisits(ctx, id); err != nil {
			return err
		}

		return tx.DeleteLink(ctx, id)
	})
	if errors.Is(err, store.ErrLinkNotFound) {
		return ErrLinkNotFound
	}
	if err != nil {
		return err
	}

	logrus.Infof("deleted link %s and its visits", id)

	l.cacheDelete(ctx, id)

	return nil
}

// Resolve maps an identifier to its link, consulting the cache before the
// store.
func (l *LinkService) Resolve(ctx context.Context, id string) (*model.Link, error) {
	if l.cache != nil {
		link, err := l.cache.GetLink(ctx, id)
		if err != nil {
			logrus.Warnf("link cache read failed for %s: %v", id, err)
		}
		if link != nil {
			return link, nil
		}
	}

	link, err := l.store.GetLink(ctx, id)
	if errors.Is(err, store.ErrLinkNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	l.cacheSet(ctx, link)

	return link, nil
}

// ResolveFilePrefix maps a masked-file prefix to the first matching link in
// creation order. Two identifiers sharing a prefix resolve to the older one;
// the encoding is lossy and this ambiguity is documented behavior.
func (l *LinkService) ResolveFilePrefix(ctx context.Context, prefix string) (*model.Link, error) {
	link, err := l.store.FindLinkByIDPrefix(ctx, prefix)
	if errors.Is(err, store.ErrLinkNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (l *LinkService) cacheSet(ctx context.Context, link *model.Link) {
	if l.cache == nil {
		return
	}
	if err := l.cache.SetLink(ctx, link); err != nil {
		logrus.Warnf("link cache write failed for %s: %v", link.ID, err)
	}
}

func (l *LinkService) cacheDelete(ctx context.Context, id string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.DeleteLink(ctx, id); err != nil {
		logrus.Warnf("link cache delete failed for %s: %v", id, err)
	}
}

// validDestination accepts absolute http/https URLs only.
func validDestination(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
