package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecotrail/api-go/services"
)

type EcoActionController struct {
	Catalog *services.Catalog
}

func NewEcoActionController(catalog *services.Catalog) *EcoActionController {
	return &EcoActionController{Catalog: catalog}
}

func (ec *EcoActionController) ListEcoActions(c *gin.Context) {
	actions, err := ec.Catalog.EcoActions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

// PopularActions godoc
// @Summary Eco-actions ranked by completions over the last seven days
// @Tags eco-actions
// @Produce json
// @Success 200 {array} types.PopularAction
// @Router /eco-actions/popular_actions/ [get]
func (ec *EcoActionController) PopularActions(c *gin.Context) {
	actions, err := ec.Catalog.PopularActions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}
