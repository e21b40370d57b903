// Package store persists sites, services, eco-actions and user progression.
//
// Two implementations share the same semantics: GormStore (PostgreSQL) and
// MemoryStore (tests and local development). Both guarantee that at most one
// UserAction exists per (profile, action, calendar day) and report a second
// insert as ErrConflict.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ecotrail/api-go/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
)

// ActionCount pairs an eco-action with a number of completions.
type ActionCount struct {
	Action models.EcoAction
	Count  int64
}

// TypeCount is the number of services of one type.
type TypeCount struct {
	Type  models.ServiceType `json:"type"`
	Count int64              `json:"count"`
}

// LeaderboardEntry is one profile ranked by points.
type LeaderboardEntry struct {
	ProfileID uint
	UserID    uint
	Username  string
	Points    int64
}

// Tx is the store as seen from inside a transaction. Implementations lock the
// profile returned by ProfileForUpdate until the transaction ends.
type Tx interface {
	ProfileForUpdate(ctx context.Context, userID uint) (*models.UserProfile, error)
	EcoAction(ctx context.Context, id uint) (*models.EcoAction, error)
	HasCompletion(ctx context.Context, profileID, actionID uint, day time.Time) (bool, error)
	UpdateProgress(ctx context.Context, profileID uint, points, level int) error
	CreateUserAction(ctx context.Context, ua *models.UserAction) error
}

// Store is the full persistence surface used by the application.
type Store interface {
	// InTx runs fn in a transaction. A non-nil error from fn rolls back.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	ListSites(ctx context.Context) ([]models.Site, error)
	Site(ctx context.Context, id uint) (*models.Site, error)
	SitesWithMinEcoScore(ctx context.Context, minScore int) ([]models.Site, error)

	ListServices(ctx context.Context) ([]models.Service, error)
	CountServicesByType(ctx context.Context) ([]TypeCount, error)

	ListEcoActions(ctx context.Context) ([]models.EcoAction, error)
	EcoAction(ctx context.Context, id uint) (*models.EcoAction, error)
	// CompletionsSince returns every eco-action with its number of
	// completions at or after since, most completed first, ties by id.
	CompletionsSince(ctx context.Context, since time.Time) ([]ActionCount, error)

	Profile(ctx context.Context, id uint) (*models.UserProfile, error)
	ProfileByUser(ctx context.Context, userID uint) (*models.UserProfile, error)
	// UserActions returns the completions of a profile, newest first.
	UserActions(ctx context.Context, profileID uint) ([]models.UserAction, error)
	// CountUserActions counts completions at or after since; a zero since
	// counts all of them.
	CountUserActions(ctx context.Context, profileID uint, since time.Time) (int64, error)
	// MostCompletedAction returns nil when the profile completed nothing.
	MostCompletedAction(ctx context.Context, profileID uint) (*ActionCount, error)

	// Leaderboard ranks profiles by points, highest first, ties by profile
	// id. A zero since ranks by total eco-points; otherwise by the points of
	// actions completed at or after since. The total is the number of profiles.
	Leaderboard(ctx context.Context, since time.Time, offset, limit int) ([]LeaderboardEntry, int64, error)

	// CreateUser inserts the user and its profile atomically.
	CreateUser(ctx context.Context, user *models.User) error
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}
