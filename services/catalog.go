package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ecotrail/api-go/geo"
	"github.com/ecotrail/api-go/logging"
	"github.com/ecotrail/api-go/models"
	"github.com/ecotrail/api-go/store"
	"github.com/ecotrail/api-go/types"
)

// ImageResolver turns a stored image key into a URL clients can fetch.
type ImageResolver interface {
	ImageURL(ctx context.Context, key string) (string, error)
}

// Catalog answers read-only questions about sites, services and eco-actions.
type Catalog struct {
	store  store.Store
	images ImageResolver
	now    func() time.Time
}

// NewCatalog returns a Catalog. images may be nil, in which case sites are
// reported without an image URL.
func NewCatalog(s store.Store, images ImageResolver) *Catalog {
	return &Catalog{store: s, images: images, now: time.Now}
}

func (c *Catalog) WithClock(now func() time.Time) *Catalog {
	c.now = now
	return c
}

func checkRadius(radiusKm float64) error {
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		return ValidationError("radius must be greater than 0")
	}
	return nil
}

func serviceCoordinate(s models.Service) (geo.Coordinate, bool) {
	return s.Coordinate(), true
}

func siteCoordinate(s models.Site) (geo.Coordinate, bool) {
	return s.Coordinate(), true
}

// NearbyServices returns the services strictly within radiusKm of ref,
// closest first.
func (c *Catalog) NearbyServices(ctx context.Context, ref geo.Coordinate, radiusKm float64) ([]types.ServiceWithDistance, error) {
	if err := checkRadius(radiusKm); err != nil {
		return nil, err
	}
	if !ref.Valid() {
		return nil, ValidationError(types.MsgCoordinatesMissing)
	}

	all, err := c.store.ListServices(ctx)
	if err != nil {
		return nil, InternalError(err)
	}

	matches := geo.WithinRadius(ref, all, radiusKm, serviceCoordinate)
	out := make([]types.ServiceWithDistance, len(matches))
	for i, m := range matches {
		s := m.Item
		out[i] = types.ServiceWithDistance{
			ID:          s.ID,
			Name:        s.Name,
			Type:        s.Type,
			Description: s.Description,
			Distance:    m.DistanceKm,
			EcoFriendly: s.EcoFriendly,
			Latitude:    s.Latitude,
			Longitude:   s.Longitude,
		}
	}
	return out, nil
}

// NearbySites returns the sites strictly within radiusKm of ref, closest
// first.
func (c *Catalog) NearbySites(ctx context.Context, ref geo.Coordinate, radiusKm float64) ([]types.SiteWithDistance, error) {
	if err := checkRadius(radiusKm); err != nil {
		return nil, err
	}
	if !ref.Valid() {
		return nil, ValidationError(types.MsgCoordinatesMissing)
	}

	all, err := c.store.ListSites(ctx)
	if err != nil {
		return nil, InternalError(err)
	}

	matches := geo.WithinRadius(ref, all, radiusKm, siteCoordinate)
	out := make([]types.SiteWithDistance, len(matches))
	for i, m := range matches {
		s := m.Item
		out[i] = types.SiteWithDistance{
			ID:        s.ID,
			Name:      s.Name,
			Type:      s.Type,
			EcoScore:  s.EcoScore,
			Distance:  m.DistanceKm,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		}
	}
	return out, nil
}

// SiteNearbyServices searches services around the position of a site.
func (c *Catalog) SiteNearbyServices(ctx context.Context, siteID uint, radiusKm float64) ([]types.ServiceWithDistance, error) {
	site, err := c.site(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if !site.Coordinate().Valid() {
		logging.Ctx(ctx).Warn().Uint("site_id", site.ID).Msg("site has invalid coordinates")
		return []types.ServiceWithDistance{}, nil
	}
	return c.NearbyServices(ctx, site.Coordinate(), radiusKm)
}

func (c *Catalog) site(ctx context.Context, id uint) (*models.Site, error) {
	site, err := c.store.Site(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFoundError(types.MsgSiteNotFound)
	}
	if err != nil {
		return nil, InternalError(err)
	}
	return site, nil
}

// SiteDetails returns a site with its image key resolved to a URL.
func (c *Catalog) SiteDetails(ctx context.Context, siteID uint) (types.SiteDetails, error) {
	site, err := c.site(ctx, siteID)
	if err != nil {
		return types.SiteDetails{}, err
	}

	details := types.SiteDetails{
		ID:          site.ID,
		Name:        site.Name,
		Description: site.Description,
		Type:        site.Type,
		EcoScore:    site.EcoScore,
		Latitude:    site.Latitude,
		Longitude:   site.Longitude,
	}
	if site.Image != "" && c.images != nil {
		url, err := c.images.ImageURL(ctx, site.Image)
		if err != nil {
			// a broken image link must not hide the site
			logging.Ctx(ctx).Warn().Err(err).Uint("site_id", site.ID).Msg("failed to resolve site image")
		} else {
			details.ImageURL = &url
		}
	}
	return details, nil
}

func (c *Catalog) Sites(ctx context.Context) ([]models.Site, error) {
	sites, err := c.store.ListSites(ctx)
	if err != nil {
		return nil, InternalError(err)
	}
	return nonNil(sites), nil
}

// EcoFriendlySites returns the sites with an eco-score of at least 4.
func (c *Catalog) EcoFriendlySites(ctx context.Context) ([]models.Site, error) {
	sites, err := c.store.SitesWithMinEcoScore(ctx, types.EcoFriendlyMinScore)
	if err != nil {
		return nil, InternalError(err)
	}
	return nonNil(sites), nil
}

func (c *Catalog) Services(ctx context.Context) ([]models.Service, error) {
	services, err := c.store.ListServices(ctx)
	if err != nil {
		return nil, InternalError(err)
	}
	return nonNil(services), nil
}

func (c *Catalog) ServicesByType(ctx context.Context) ([]store.TypeCount, error) {
	counts, err := c.store.CountServicesByType(ctx)
	if err != nil {
		return nil, InternalError(err)
	}
	return nonNil(counts), nil
}

func (c *Catalog) EcoActions(ctx context.Context) ([]models.EcoAction, error) {
	actions, err := c.store.ListEcoActions(ctx)
	if err != nil {
		return nil, InternalError(err)
	}
	return nonNil(actions), nil
}

// PopularActions ranks every eco-action by its completions over the last
// seven days.
func (c *Catalog) PopularActions(ctx context.Context) ([]types.PopularAction, error) {
	counts, err := c.store.CompletionsSince(ctx, c.now().Add(-types.PopularActionsWindow))
	if err != nil {
		return nil, InternalError(err)
	}
	out := make([]types.PopularAction, len(counts))
	for i, ac := range counts {
		out[i] = types.PopularAction{EcoAction: ac.Action, CompletionCount: ac.Count}
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
