package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecotrail/api-go/logging"
	"github.com/ecotrail/api-go/metrics"
	"github.com/ecotrail/api-go/models"
	"github.com/ecotrail/api-go/store"
	"github.com/ecotrail/api-go/types"
)

type Status string

const (
	StatusSuccess          Status = "success"
	StatusAlreadyCompleted Status = "already_completed"
)

// Outcome is the result of CompleteAction. For StatusAlreadyCompleted only
// ActionName, Points and Level are set and nothing was written.
type Outcome struct {
	Status       Status
	Points       int
	Level        int
	LevelUp      bool
	PointsEarned int
	ActionName   string
}

// errDailyConflict aborts the transaction when the unique index rejects a
// completion that passed the existence check.
var errDailyConflict = errors.New("completion already recorded for this day")

// Ledger awards eco-points and keeps levels in sync with them.
type Ledger struct {
	store store.Store
	now   func() time.Time
}

func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s, now: time.Now}
}

// WithClock replaces the clock used for calendar days and rolling windows.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// CompleteAction credits actionID to the profile of userID, at most once per
// calendar day of the ledger clock. The existence check and the insert run
// in one transaction holding the profile row lock.
func (l *Ledger) CompleteAction(ctx context.Context, userID, actionID uint) (Outcome, error) {
	now := l.now()
	var out Outcome
	var actionName string
	var lockedPoints, lockedLevel int

	err := l.store.InTx(ctx, func(tx store.Tx) error {
		profile, err := tx.ProfileForUpdate(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(types.MsgProfileNotFound)
		}
		if err != nil {
			return InternalError(err)
		}
		lockedPoints, lockedLevel = profile.EcoPoints, profile.Level

		action, err := tx.EcoAction(ctx, actionID)
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(types.MsgActionNotFound)
		}
		if err != nil {
			return InternalError(err)
		}
		actionName = action.Name

		done, err := tx.HasCompletion(ctx, profile.ID, action.ID, now)
		if err != nil {
			return InternalError(err)
		}
		if done {
			out = Outcome{
				Status:     StatusAlreadyCompleted,
				Points:     profile.EcoPoints,
				Level:      profile.Level,
				ActionName: action.Name,
			}
			return nil
		}

		points := profile.EcoPoints + action.Points
		level := LevelFor(points)
		if err := tx.UpdateProgress(ctx, profile.ID, points, level); err != nil {
			return InternalError(err)
		}

		err = tx.CreateUserAction(ctx, &models.UserAction{
			UserProfileID: profile.ID,
			EcoActionID:   action.ID,
			CompletedAt:   now,
		})
		if errors.Is(err, store.ErrConflict) {
			return errDailyConflict
		}
		if err != nil {
			return InternalError(err)
		}

		out = Outcome{
			Status:       StatusSuccess,
			Points:       points,
			Level:        level,
			LevelUp:      level > profile.Level,
			PointsEarned: action.Points,
			ActionName:   action.Name,
		}
		return nil
	})

	if errors.Is(err, errDailyConflict) {
		metrics.RecordCompletionConflict()
		logging.Ctx(ctx).Info().
			Uint("user_id", userID).
			Uint("action_id", actionID).
			Msg("concurrent completion rejected by daily index")
		out = Outcome{
			Status:     StatusAlreadyCompleted,
			Points:     lockedPoints,
			Level:      lockedLevel,
			ActionName: actionName,
		}
		if p, perr := l.store.ProfileByUser(ctx, userID); perr != nil {
			logging.Ctx(ctx).Warn().
				Err(perr).
				Uint("user_id", userID).
				Msg("could not reload profile after completion conflict")
		} else {
			out.Points, out.Level = p.EcoPoints, p.Level
		}
		err = nil
	}
	if err != nil {
		metrics.RecordCompletion("error")
		return Outcome{}, err
	}

	metrics.RecordCompletion(string(out.Status))
	if out.Status == StatusSuccess {
		logging.Ctx(ctx).Info().
			Uint("user_id", userID).
			Uint("action_id", actionID).
			Int("points", out.Points).
			Int("level", out.Level).
			Bool("level_up", out.LevelUp).
			Msg("eco action completed")
	}
	return out, nil
}

// ProfileForUser resolves the profile of userID.
func (l *Ledger) ProfileForUser(ctx context.Context, userID uint) (*models.UserProfile, error) {
	p, err := l.store.ProfileByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFoundError(types.MsgProfileNotFound)
	}
	if err != nil {
		return nil, InternalError(err)
	}
	return p, nil
}

func (l *Ledger) Profile(ctx context.Context, id uint) (*models.UserProfile, error) {
	p, err := l.store.Profile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFoundError(types.MsgProfileNotFound)
	}
	if err != nil {
		return nil, InternalError(err)
	}
	return p, nil
}

// Statistics summarizes a profile. ActionsThisWeek uses a rolling seven day
// window ending now.
func (l *Ledger) Statistics(ctx context.Context, profile *models.UserProfile) (types.ProfileStatistics, error) {
	stats := types.ProfileStatistics{
		TotalPoints: profile.EcoPoints,
		Level:       profile.Level,
	}

	total, err := l.store.CountUserActions(ctx, profile.ID, time.Time{})
	if err != nil {
		return stats, InternalError(err)
	}
	stats.TotalActions = total

	week, err := l.store.CountUserActions(ctx, profile.ID, l.now().Add(-types.PopularActionsWindow))
	if err != nil {
		return stats, InternalError(err)
	}
	stats.ActionsThisWeek = week

	most, err := l.store.MostCompletedAction(ctx, profile.ID)
	if err != nil {
		return stats, InternalError(err)
	}
	if most != nil {
		stats.MostCommonAction = &types.ActionCount{
			ActionID:   most.Action.ID,
			ActionName: most.Action.Name,
			Count:      most.Count,
		}
	}
	return stats, nil
}

// Leaderboard returns one page of profiles ranked by points. The weekly
// period only counts completions of the last seven days.
func (l *Ledger) Leaderboard(ctx context.Context, period string, page, pageSize int) ([]types.LeaderboardEntry, int64, error) {
	if page < 1 || pageSize < 1 {
		return nil, 0, ValidationError("page and page size must be positive")
	}

	var since time.Time
	switch period {
	case "", types.LeaderboardAllTime:
	case types.LeaderboardWeekly:
		since = l.now().Add(-types.PopularActionsWindow)
	default:
		return nil, 0, ValidationError(fmt.Sprintf("unknown leaderboard period %q", period))
	}

	offset := (page - 1) * pageSize
	rows, total, err := l.store.Leaderboard(ctx, since, offset, pageSize)
	if err != nil {
		return nil, 0, InternalError(err)
	}

	entries := make([]types.LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = types.LeaderboardEntry{
			Rank:      offset + i + 1,
			ProfileID: r.ProfileID,
			UserID:    r.UserID,
			Username:  r.Username,
			Points:    r.Points,
		}
	}
	return entries, total, nil
}

// History lists the completions of a profile, newest first.
func (l *Ledger) History(ctx context.Context, profile *models.UserProfile) ([]models.UserAction, error) {
	actions, err := l.store.UserActions(ctx, profile.ID)
	if err != nil {
		return nil, InternalError(err)
	}
	if actions == nil {
		actions = []models.UserAction{}
	}
	return actions, nil
}
