package types

import (
	"time"

	"github.com/ecotrail/api-go/models"
)

// Messages returned to clients.
const (
	MsgWelcome            = "Connecté au service de tourisme écologique"
	MsgInvalidFormat      = "Format de données invalide"
	MsgCoordinatesMissing = "Latitude et longitude requises"
	MsgUnauthenticated    = "Utilisateur non authentifié"
	MsgSiteNotFound       = "Site non trouvé"
	MsgProfileNotFound    = "Profil utilisateur non trouvé"
	MsgActionNotFound     = "Action non trouvée"
	MsgAlreadyCompleted   = "Action déjà complétée aujourd'hui"
	MsgUnknownAction      = "Action non reconnue"
	MsgErrorPrefix        = "Erreur: "
)

const (
	DefaultSearchRadiusKm = 5.0
	EcoFriendlyMinScore   = 4
	PopularActionsWindow  = 7 * 24 * time.Hour
	PointsPerLevelUnit    = 100
)

// ServiceWithDistance is a service annotated with its distance to the search
// point, in kilometers rounded to two decimals.
type ServiceWithDistance struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Type        models.ServiceType `json:"type"`
	Description string             `json:"description"`
	Distance    float64            `json:"distance"`
	EcoFriendly bool               `json:"eco_friendly"`
	Latitude    float64            `json:"latitude"`
	Longitude   float64            `json:"longitude"`
}

type SiteWithDistance struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Type      models.SiteType `json:"type"`
	EcoScore  int             `json:"eco_score"`
	Distance  float64         `json:"distance"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
}

type SiteDetails struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        models.SiteType `json:"type"`
	EcoScore    int             `json:"eco_score"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	ImageURL    *string         `json:"image_url"`
}

type PopularAction struct {
	models.EcoAction
	CompletionCount int64 `json:"completion_count"`
}

type ActionCount struct {
	ActionID   uint   `json:"action_id"`
	ActionName string `json:"action_name"`
	Count      int64  `json:"count"`
}

type ProfileStatistics struct {
	TotalPoints      int          `json:"total_points"`
	Level            int          `json:"level"`
	TotalActions     int64        `json:"total_actions"`
	ActionsThisWeek  int64        `json:"actions_this_week"`
	MostCommonAction *ActionCount `json:"most_common_action"`
}

// ActionResultData is the payload of a successful action_result frame.
type ActionResultData struct {
	Status       string `json:"status"`
	Points       int    `json:"points"`
	Level        int    `json:"level"`
	LevelUp      bool   `json:"level_up"`
	PointsEarned int    `json:"points_earned"`
	ActionName   string `json:"action_name"`
}

// ActionErrorData is the payload of an action_result frame for a refused
// completion.
type ActionErrorData struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	LeaderboardAllTime = "all_time"
	LeaderboardWeekly  = "weekly"
)

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	ProfileID uint   `json:"profile_id"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Points    int64  `json:"points"`
}
