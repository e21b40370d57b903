package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecotrail/api-go/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// GormStore is the PostgreSQL-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func (s *GormStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) ProfileForUpdate(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var p models.UserProfile
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (t *gormTx) EcoAction(ctx context.Context, id uint) (*models.EcoAction, error) {
	return findEcoAction(t.db.WithContext(ctx), id)
}

func (t *gormTx) HasCompletion(ctx context.Context, profileID, actionID uint, day time.Time) (bool, error) {
	var n int64
	err := t.db.WithContext(ctx).Model(&models.UserAction{}).
		Where("user_profile_id = ? AND eco_action_id = ? AND completed_on = ?", profileID, actionID, models.CalendarDay(day)).
		Count(&n).Error
	if err != nil {
		return false, translateError(err)
	}
	return n > 0, nil
}

func (t *gormTx) UpdateProgress(ctx context.Context, profileID uint, points, level int) error {
	res := t.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("id = ?", profileID).
		Updates(map[string]interface{}{
			"eco_points": points,
			"level":      level,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) CreateUserAction(ctx context.Context, ua *models.UserAction) error {
	ua.CompletedOn = models.CalendarDay(ua.CompletedAt)
	return translateError(t.db.WithContext(ctx).Omit(clause.Associations).Create(ua).Error)
}

func findEcoAction(db *gorm.DB, id uint) (*models.EcoAction, error) {
	var a models.EcoAction
	if err := db.First(&a, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (s *GormStore) ListSites(ctx context.Context) ([]models.Site, error) {
	var sites []models.Site
	err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&sites).Error
	return sites, translateError(err)
}

func (s *GormStore) Site(ctx context.Context, id uint) (*models.Site, error) {
	var site models.Site
	if err := s.db.WithContext(ctx).First(&site, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &site, nil
}

func (s *GormStore) SitesWithMinEcoScore(ctx context.Context, minScore int) ([]models.Site, error) {
	var sites []models.Site
	err := s.db.WithContext(ctx).
		Where("eco_score >= ?", minScore).
		Order("eco_score DESC, id ASC").
		Find(&sites).Error
	return sites, translateError(err)
}

func (s *GormStore) ListServices(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	err := s.db.WithContext(ctx).Order("id ASC").Find(&services).Error
	return services, translateError(err)
}

func (s *GormStore) CountServicesByType(ctx context.Context) ([]TypeCount, error) {
	var counts []TypeCount
	err := s.db.WithContext(ctx).Model(&models.Service{}).
		Select("type, COUNT(id) AS count").
		Group("type").
		Order("type ASC").
		Scan(&counts).Error
	return counts, translateError(err)
}

func (s *GormStore) ListEcoActions(ctx context.Context) ([]models.EcoAction, error) {
	var actions []models.EcoAction
	err := s.db.WithContext(ctx).Order("id ASC").Find(&actions).Error
	return actions, translateError(err)
}

func (s *GormStore) EcoAction(ctx context.Context, id uint) (*models.EcoAction, error) {
	return findEcoAction(s.db.WithContext(ctx), id)
}

type actionCountRow struct {
	ID          uint
	Name        string
	Description string
	Points      int
	CreatedAt   time.Time
	Count       int64
}

func (r actionCountRow) toActionCount() ActionCount {
	return ActionCount{
		Action: models.EcoAction{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Points:      r.Points,
			CreatedAt:   r.CreatedAt,
		},
		Count: r.Count,
	}
}

func (s *GormStore) CompletionsSince(ctx context.Context, since time.Time) ([]ActionCount, error) {
	var rows []actionCountRow
	err := s.db.WithContext(ctx).Model(&models.EcoAction{}).
		Select("eco_actions.id, eco_actions.name, eco_actions.description, eco_actions.points, eco_actions.created_at, COUNT(user_actions.id) AS count").
		Joins("LEFT JOIN user_actions ON user_actions.eco_action_id = eco_actions.id AND user_actions.completed_at >= ?", since).
		Group("eco_actions.id").
		Order("count DESC, eco_actions.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	out := make([]ActionCount, len(rows))
	for i, r := range rows {
		out[i] = r.toActionCount()
	}
	return out, nil
}

func (s *GormStore) Profile(ctx context.Context, id uint) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (s *GormStore) ProfileByUser(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (s *GormStore) UserActions(ctx context.Context, profileID uint) ([]models.UserAction, error) {
	var actions []models.UserAction
	err := s.db.WithContext(ctx).
		Where("user_profile_id = ?", profileID).
		Order("completed_at DESC, id DESC").
		Find(&actions).Error
	return actions, translateError(err)
}

func (s *GormStore) CountUserActions(ctx context.Context, profileID uint, since time.Time) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.UserAction{}).Where("user_profile_id = ?", profileID)
	if !since.IsZero() {
		q = q.Where("completed_at >= ?", since)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (s *GormStore) MostCompletedAction(ctx context.Context, profileID uint) (*ActionCount, error) {
	var rows []actionCountRow
	err := s.db.WithContext(ctx).Table("user_actions").
		Select("eco_actions.id, eco_actions.name, eco_actions.description, eco_actions.points, eco_actions.created_at, COUNT(user_actions.id) AS count").
		Joins("JOIN eco_actions ON eco_actions.id = user_actions.eco_action_id").
		Where("user_actions.user_profile_id = ?", profileID).
		Group("eco_actions.id").
		Order("count DESC, eco_actions.id ASC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ac := rows[0].toActionCount()
	return &ac, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return translateError(err)
		}
		user.Profile = models.UserProfile{UserID: user.ID, Level: 1}
		if err := tx.Create(&user.Profile).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}

func (s *GormStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (s *GormStore) Leaderboard(ctx context.Context, since time.Time, offset, limit int) ([]LeaderboardEntry, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.UserProfile{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	q := db.Table("user_profiles").
		Joins("JOIN users ON users.id = user_profiles.user_id")
	if since.IsZero() {
		q = q.Select("user_profiles.id AS profile_id, user_profiles.user_id, users.username, user_profiles.eco_points AS points")
	} else {
		q = q.Select("user_profiles.id AS profile_id, user_profiles.user_id, users.username, COALESCE(SUM(eco_actions.points), 0) AS points").
			Joins("LEFT JOIN user_actions ON user_actions.user_profile_id = user_profiles.id AND user_actions.completed_at >= ?", since).
			Joins("LEFT JOIN eco_actions ON eco_actions.id = user_actions.eco_action_id").
			Group("user_profiles.id, user_profiles.user_id, users.username")
	}

	var entries []LeaderboardEntry
	err := q.Order("points DESC, user_profiles.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return entries, total, nil
}
