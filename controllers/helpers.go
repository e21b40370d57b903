package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ecotrail/api-go/logging"
	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/types"
)

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindParse, services.KindAlreadyCompleted:
		return http.StatusBadRequest
	case services.KindAuth:
		return http.StatusUnauthorized
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status its kind maps to.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	if kind == services.KindInternal {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(statusForKind(kind), gin.H{"error": services.MessageOf(err)})
}

// respondResult writes an ErrorResult the same way respondError writes an
// error.
func respondResult(c *gin.Context, r services.ErrorResult) {
	if r.Kind == services.KindInternal {
		c.JSON(http.StatusInternalServerError, gin.H{"error": r.Message})
		return
	}
	c.JSON(statusForKind(r.Kind), gin.H{"error": r.Message})
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// radiusQuery is the optional radius query parameter, in kilometers.
type radiusQuery struct {
	Radius *float64 `form:"radius"`
}

type positionQuery struct {
	Latitude  *float64 `form:"latitude"`
	Longitude *float64 `form:"longitude"`
	Radius    *float64 `form:"radius"`
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.MsgInvalidFormat})
		return false
	}
	return true
}
