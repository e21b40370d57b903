package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/types"
)

type LeaderboardController struct {
	Ledger *services.Ledger
}

type LeaderboardQuery struct {
	TimeFilter string `form:"timeFilter" binding:"omitempty,oneof=all_time weekly"`
	Page       int    `form:"page,default=1" binding:"min=1"`
	PageSize   int    `form:"pageSize,default=10" binding:"min=1,max=50"`
}

func NewLeaderboardController(ledger *services.Ledger) *LeaderboardController {
	return &LeaderboardController{Ledger: ledger}
}

// GetLeaderboard godoc
// @Summary Profiles ranked by eco-points
// @Tags leaderboard
// @Produce json
// @Param timeFilter query string false "all_time or weekly"
// @Param page query int false "Page, from 1"
// @Param pageSize query int false "Page size, at most 50"
// @Success 200 {object} PagedResponse
// @Router /leaderboard/ [get]
func (lc *LeaderboardController) GetLeaderboard(c *gin.Context) {
	var query LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Default to all_time if not specified
	if query.TimeFilter == "" {
		query.TimeFilter = types.LeaderboardAllTime
	}

	entries, total, err := lc.Ledger.Leaderboard(c.Request.Context(), query.TimeFilter, query.Page, query.PageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PagedResponse{
		Success:    true,
		Data:       entries,
		Meta:       gin.H{"time_filter": query.TimeFilter},
		Pagination: newPageMeta(query.Page, query.PageSize, total),
	})
}
