package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecotrail/api-go/models"
	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/types"
	"github.com/ecotrail/api-go/utils"
)

type ProfileController struct {
	Ledger     *services.Ledger
	Dispatcher *services.Dispatcher
}

type CompleteActionInput struct {
	ActionID uint `json:"action_id"`
}

func NewProfileController(ledger *services.Ledger, dispatcher *services.Dispatcher) *ProfileController {
	return &ProfileController{Ledger: ledger, Dispatcher: dispatcher}
}

// visibleProfile loads the profile named in the path. Users only see their
// own profile; admins see all of them.
func (pc *ProfileController) visibleProfile(c *gin.Context) (*models.UserProfile, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	user := utils.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": types.MsgUnauthenticated})
		return nil, false
	}

	profile, err := pc.Ledger.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if profile.UserID != user.UserID && !user.IsAdmin() {
		c.JSON(http.StatusNotFound, gin.H{"error": types.MsgProfileNotFound})
		return nil, false
	}
	return profile, true
}

// CompleteAction godoc
// @Summary Complete an eco-action, at most once per day
// @Tags profiles
// @Accept json
// @Produce json
// @Param id path int true "Profile ID"
// @Param input body CompleteActionInput true "Action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /profiles/{id}/complete_action/ [post]
func (pc *ProfileController) CompleteAction(c *gin.Context) {
	profile, ok := pc.visibleProfile(c)
	if !ok {
		return
	}

	var input CompleteActionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": types.MsgInvalidFormat})
		return
	}

	sess := services.UserSession(profile.UserID)
	res := pc.Dispatcher.Dispatch(c.Request.Context(), sess, services.CompleteAction{ActionID: input.ActionID})
	switch r := res.(type) {
	case services.ActionResult:
		if r.Outcome.Status == services.StatusAlreadyCompleted {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": types.MsgAlreadyCompleted})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        string(r.Outcome.Status),
			"points_earned": r.Outcome.PointsEarned,
			"total_points":  r.Outcome.Points,
			"level":         r.Outcome.Level,
			"level_up":      r.Outcome.LevelUp,
		})
	case services.ErrorResult:
		c.JSON(statusForKind(r.Kind), gin.H{"status": "error", "message": r.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error"})
	}
}

// ActionHistory returns the completions of a profile, newest first.
func (pc *ProfileController) ActionHistory(c *gin.Context) {
	profile, ok := pc.visibleProfile(c)
	if !ok {
		return
	}
	history, err := pc.Ledger.History(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// Statistics godoc
// @Summary Points, level and completion counts of a profile
// @Tags profiles
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {object} types.ProfileStatistics
// @Router /profiles/{id}/statistics/ [get]
func (pc *ProfileController) Statistics(c *gin.Context) {
	profile, ok := pc.visibleProfile(c)
	if !ok {
		return
	}
	stats, err := pc.Ledger.Statistics(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
