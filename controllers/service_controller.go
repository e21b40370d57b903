package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecotrail/api-go/services"
)

type ServiceController struct {
	Catalog    *services.Catalog
	Dispatcher *services.Dispatcher
}

func NewServiceController(catalog *services.Catalog, dispatcher *services.Dispatcher) *ServiceController {
	return &ServiceController{Catalog: catalog, Dispatcher: dispatcher}
}

func (sc *ServiceController) ListServices(c *gin.Context) {
	list, err := sc.Catalog.Services(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// NearbyServices runs the same search as the get_services channel action.
func (sc *ServiceController) NearbyServices(c *gin.Context) {
	var q positionQuery
	if !bindQuery(c, &q) {
		return
	}

	cmd := services.SearchNearby{Latitude: q.Latitude, Longitude: q.Longitude, Radius: q.Radius}
	switch r := sc.Dispatcher.Dispatch(c.Request.Context(), services.AnonymousSession(), cmd).(type) {
	case services.ServicesListResult:
		c.JSON(http.StatusOK, nonNilServices(r))
	case services.ErrorResult:
		respondResult(c, r)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ServicesByType returns the number of services of each type.
func (sc *ServiceController) ServicesByType(c *gin.Context) {
	counts, err := sc.Catalog.ServicesByType(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func nonNilServices(r services.ServicesListResult) interface{} {
	if r.Services == nil {
		return []struct{}{}
	}
	return r.Services
}
