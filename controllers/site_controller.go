package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecotrail/api-go/geo"
	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/types"
)

type SiteController struct {
	Catalog       *services.Catalog
	Dispatcher    *services.Dispatcher
	DefaultRadius float64
}

func NewSiteController(catalog *services.Catalog, dispatcher *services.Dispatcher, defaultRadius float64) *SiteController {
	if defaultRadius <= 0 {
		defaultRadius = types.DefaultSearchRadiusKm
	}
	return &SiteController{Catalog: catalog, Dispatcher: dispatcher, DefaultRadius: defaultRadius}
}

// ListSites godoc
// @Summary List touristic sites
// @Tags sites
// @Produce json
// @Success 200 {array} models.Site
// @Router /sites/ [get]
func (sc *SiteController) ListSites(c *gin.Context) {
	sites, err := sc.Catalog.Sites(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sites)
}

// GetSite godoc
// @Summary Site details with its image URL
// @Tags sites
// @Produce json
// @Param id path int true "Site ID"
// @Success 200 {object} types.SiteDetails
// @Failure 404 {object} map[string]string
// @Router /sites/{id}/ [get]
func (sc *SiteController) GetSite(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res := sc.Dispatcher.Dispatch(c.Request.Context(), services.AnonymousSession(), services.FetchSiteDetails{SiteID: id})
	switch r := res.(type) {
	case services.SiteDetailsResult:
		c.JSON(http.StatusOK, r.Site)
	case services.ErrorResult:
		respondResult(c, r)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// NearbySites godoc
// @Summary Sites within a radius of a position, closest first
// @Tags sites
// @Produce json
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param radius query number false "Radius in km" default(5)
// @Success 200 {array} types.SiteWithDistance
// @Router /sites/nearby/ [get]
func (sc *SiteController) NearbySites(c *gin.Context) {
	var q positionQuery
	if !bindQuery(c, &q) {
		return
	}
	if q.Latitude == nil || q.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.MsgCoordinatesMissing})
		return
	}
	radius := sc.DefaultRadius
	if q.Radius != nil {
		radius = *q.Radius
	}

	sites, err := sc.Catalog.NearbySites(c.Request.Context(), geo.Coordinate{Latitude: *q.Latitude, Longitude: *q.Longitude}, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sites)
}

// NearbyServices godoc
// @Summary Services within a radius of a site, closest first
// @Tags sites
// @Produce json
// @Param id path int true "Site ID"
// @Param radius query number false "Radius in km" default(5)
// @Success 200 {array} types.ServiceWithDistance
// @Router /sites/{id}/nearby_services/ [get]
func (sc *SiteController) NearbyServices(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var q radiusQuery
	if !bindQuery(c, &q) {
		return
	}
	radius := sc.DefaultRadius
	if q.Radius != nil {
		radius = *q.Radius
	}

	list, err := sc.Catalog.SiteNearbyServices(c.Request.Context(), id, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// EcoFriendlySites godoc
// @Summary Sites with an eco-score of 4 or more
// @Tags sites
// @Produce json
// @Success 200 {array} models.Site
// @Router /sites/eco_friendly/ [get]
func (sc *SiteController) EcoFriendlySites(c *gin.Context) {
	sites, err := sc.Catalog.EcoFriendlySites(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sites)
}
