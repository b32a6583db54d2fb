package service

import (
	"context"
	"time"

	"github.com/emrgen/linktrace/internal/geoip"
	"github.com/emrgen/linktrace/internal/model"
	"github.com/emrgen/linktrace/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewVisitService creates a new VisitService. requireLink controls whether
// track requests for unknown identifiers are rejected; the strict policy is
// the default.
func NewVisitService(store store.Store, geo geoip.Resolver, requireLink bool) *VisitService {
	return &VisitService{
		store:       store,
		geo:         geo,
		requireLink: requireLink,
	}
}

// VisitService records visits: it runs the location fallback policy and
// persists one immutable visit row per track event.
type VisitService struct {
	store       store.Store
	geo         geoip.Resolver
	requireLink bool
}

// RecordInput carries everything a track request knows about the visitor.
type RecordInput struct {
	Latitude       *float64
	Longitude      *float64
	LocationDenied bool
	IP             string
	UserAgent      string
}

// Record resolves the visitor's location and persists the visit.
//
// The fallback ordering: browser coordinates when both are present,
// otherwise an IP lookup when an address is available, otherwise unknown.
// Location-provider failures never fail the recording; only a missing link
// (under the strict policy) or a store failure does.
func (v *VisitService) Record(ctx context.Context, linkID string, in RecordInput) (*model.Visit, *geoip.Location, error) {
	if v.requireLink {
		exists, err := v.store.LinkExists(ctx, linkID)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			return nil, nil, ErrLinkNotFound
		}
	}

	location := v.resolveLocation(ctx, in)

	visit := &model.Visit{
		ID:        uuid.New().String(),
		LinkID:    linkID,
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
		Source:    location.Source,
		VisitedAt: time.Now().UTC(),
	}
	if in.IP != "" {
		ip := in.IP
		visit.IPAddress = &ip
	}
	if in.UserAgent != "" {
		ua := in.UserAgent
		visit.UserAgent = &ua
	}
	// city-level fields carry provenance: they are only set when the
	// coordinates came from the IP lookup
	if location.Source == model.SourceIP {
		if location.City != "" {
			city := location.City
			visit.City = &city
		}
		if location.Region != "" {
			region := location.Region
			visit.Region = &region
		}
		if location.Country != "" {
			country := location.Country
			visit.Country = &country
		}
	}

	if err := v.store.CreateVisit(ctx, visit); err != nil {
		return nil, nil, err
	}

	logrus.Infof("recorded visit %s for link %s (source=%s)", visit.ID, linkID, visit.Source)

	return visit, location, nil
}

// resolveLocation runs the two-tier strategy. Denial or absence of browser
// coordinates falls through to the IP lookup; everything failing yields the
// unknown location, never an error.
func (v *VisitService) resolveLocation(ctx context.Context, in RecordInput) *geoip.Location {
	if in.Latitude != nil && in.Longitude != nil {
		return geoip.FromBrowser(*in.Latitude, *in.Longitude)
	}

	if v.geo != nil && in.IP != "" {
		location, err := v.geo.FromIP(ctx, in.IP)
		if err != nil {
			logrus.Warnf("ip location lookup errored: %v", err)
		}
		if location != nil {
			return location
		}
	}

	return geoip.Unknown()
}
