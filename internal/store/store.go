package store

import (
	"context"
	"errors"
	"time"

	"github.com/emrgen/linktrace/internal/model"
)

var (
	// ErrLinkNotFound is returned when no link exists for an identifier.
	ErrLinkNotFound = errors.New("link not found")
	// ErrDuplicateID is returned when an insert collides with an existing identifier.
	ErrDuplicateID = errors.New("link id already exists")
)

type Store interface {
	LinkStore
	VisitStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type LinkStore interface {
	// CreateLink inserts a new link. Returns ErrDuplicateID when the
	// identifier is already taken.
	CreateLink(ctx context.Context, link *model.Link) error
	// GetLink retrieves a link by identifier.
	GetLink(ctx context.Context, id string) (*model.Link, error)
	// ListLinks returns all links, newest first.
	ListLinks(ctx context.Context) ([]*model.Link, error)
	// FindLinkByIDPrefix returns the first link whose identifier starts with
	// prefix, scanning in creation order. Prefix collisions resolve to the
	// oldest match.
	FindLinkByIDPrefix(ctx context.Context, prefix string) (*model.Link, error)
	// LinkExists reports whether a link with the identifier exists.
	LinkExists(ctx context.Context, id string) (bool, error)
	// DeleteLink removes a link by identifier.
	DeleteLink(ctx context.Context, id string) error
}

type VisitStore interface {
	// CreateVisit inserts a new visit.
	CreateVisit(ctx context.Context, visit *model.Visit) error
	// ListVisits returns the visits of a link, newest first.
	ListVisits(ctx context.Context, linkID string) ([]*model.Visit, error)
	// CountVisits returns the number of visits recorded for a link.
	CountVisits(ctx context.Context, linkID string) (int64, error)
	// DeleteVisits removes all visits of a link.
	DeleteVisits(ctx context.Context, linkID string) error
	// DeleteVisitsBefore removes visits older than the cutoff across all
	// links. Used by the retention pruner.
	DeleteVisitsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
