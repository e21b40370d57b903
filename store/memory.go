package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ecotrail/api-go/models"
)

type dailyKey struct {
	profileID uint
	actionID  uint
	day       string
}

func newDailyKey(profileID, actionID uint, t time.Time) dailyKey {
	return dailyKey{profileID: profileID, actionID: actionID, day: models.CalendarDay(t).Format(time.DateOnly)}
}

// MemoryStore keeps everything in process memory. Transactions are
// serialized on a single mutex, which gives them the isolation the gorm store
// gets from row locks.
type MemoryStore struct {
	mu sync.Mutex

	lastID map[string]uint

	users       map[uint]models.User
	profiles    map[uint]models.UserProfile
	sites       map[uint]models.Site
	services    map[uint]models.Service
	actions     map[uint]models.EcoAction
	userActions []models.UserAction
	daily       map[dailyKey]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lastID:   make(map[string]uint),
		users:    make(map[uint]models.User),
		profiles: make(map[uint]models.UserProfile),
		sites:    make(map[uint]models.Site),
		services: make(map[uint]models.Service),
		actions:  make(map[uint]models.EcoAction),
		daily:    make(map[dailyKey]struct{}),
	}
}

// nextID must be called with mu held.
func (s *MemoryStore) nextID(table string) uint {
	s.lastID[table]++
	return s.lastID[table]
}

// AddSite stores site, assigning an ID when it has none.
func (s *MemoryStore) AddSite(site models.Site) models.Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	if site.ID == 0 {
		site.ID = s.nextID("sites")
	}
	if site.CreatedAt.IsZero() {
		site.CreatedAt = time.Now()
	}
	s.sites[site.ID] = site
	return site
}

// AddService stores svc, assigning an ID when it has none.
func (s *MemoryStore) AddService(svc models.Service) models.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == 0 {
		svc.ID = s.nextID("services")
	}
	s.services[svc.ID] = svc
	return svc
}

// AddEcoAction stores a, assigning an ID when it has none.
func (s *MemoryStore) AddEcoAction(a models.EcoAction) models.EcoAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextID("eco_actions")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.actions[a.ID] = a
	return a
}

// DeleteSite removes a site and its services.
func (s *MemoryStore) DeleteSite(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sites, id)
	for sid, svc := range s.services {
		if svc.SiteID == id {
			delete(s.services, sid)
		}
	}
}

// RecordUserAction inserts a completion directly, bypassing the ledger.
func (s *MemoryStore) RecordUserAction(ua models.UserAction) (models.UserAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := newDailyKey(ua.UserProfileID, ua.EcoActionID, ua.CompletedAt)
	if _, dup := s.daily[key]; dup {
		return ua, fmt.Errorf("%w: idx_user_action_daily", ErrConflict)
	}
	ua.ID = s.nextID("user_actions")
	ua.CompletedOn = models.CalendarDay(ua.CompletedAt)
	s.daily[key] = struct{}{}
	s.userActions = append(s.userActions, ua)
	return ua, nil
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		s:        s,
		progress: make(map[uint]models.UserProfile),
		daily:    make(map[dailyKey]struct{}),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// memoryTx stages writes and applies them on commit. Its methods run with
// the store mutex already held.
type memoryTx struct {
	s        *MemoryStore
	progress map[uint]models.UserProfile
	created  []models.UserAction
	daily    map[dailyKey]struct{}
}

func (t *memoryTx) ProfileForUpdate(ctx context.Context, userID uint) (*models.UserProfile, error) {
	for _, p := range t.s.profiles {
		if p.UserID == userID {
			if staged, ok := t.progress[p.ID]; ok {
				p = staged
			}
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memoryTx) EcoAction(ctx context.Context, id uint) (*models.EcoAction, error) {
	a, ok := t.s.actions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (t *memoryTx) HasCompletion(ctx context.Context, profileID, actionID uint, day time.Time) (bool, error) {
	key := newDailyKey(profileID, actionID, day)
	if _, ok := t.s.daily[key]; ok {
		return true, nil
	}
	_, ok := t.daily[key]
	return ok, nil
}

func (t *memoryTx) UpdateProgress(ctx context.Context, profileID uint, points, level int) error {
	p, ok := t.s.profiles[profileID]
	if !ok {
		return ErrNotFound
	}
	p.EcoPoints = points
	p.Level = level
	p.UpdatedAt = time.Now()
	t.progress[profileID] = p
	return nil
}

func (t *memoryTx) CreateUserAction(ctx context.Context, ua *models.UserAction) error {
	key := newDailyKey(ua.UserProfileID, ua.EcoActionID, ua.CompletedAt)
	if _, dup := t.s.daily[key]; dup {
		return fmt.Errorf("%w: idx_user_action_daily", ErrConflict)
	}
	if _, dup := t.daily[key]; dup {
		return fmt.Errorf("%w: idx_user_action_daily", ErrConflict)
	}
	ua.CompletedOn = models.CalendarDay(ua.CompletedAt)
	t.daily[key] = struct{}{}
	t.created = append(t.created, *ua)
	return nil
}

func (t *memoryTx) commit() {
	for id, p := range t.progress {
		t.s.profiles[id] = p
	}
	for _, ua := range t.created {
		ua.ID = t.s.nextID("user_actions")
		t.s.userActions = append(t.s.userActions, ua)
	}
	for k := range t.daily {
		t.s.daily[k] = struct{}{}
	}
}

func (s *MemoryStore) ListSites(ctx context.Context) ([]models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Site, 0, len(s.sites))
	for _, site := range s.sites {
		out = append(out, site)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Site(ctx context.Context, id uint) (*models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.sites[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &site, nil
}

func (s *MemoryStore) SitesWithMinEcoScore(ctx context.Context, minScore int) ([]models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Site
	for _, site := range s.sites {
		if site.EcoScore >= minScore {
			out = append(out, site)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EcoScore != out[j].EcoScore {
			return out[i].EcoScore > out[j].EcoScore
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ListServices(ctx context.Context) ([]models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CountServicesByType(ctx context.Context) ([]TypeCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.ServiceType]int64)
	for _, svc := range s.services {
		counts[svc.Type]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (s *MemoryStore) ListEcoActions(ctx context.Context) ([]models.EcoAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedActions(), nil
}

func (s *MemoryStore) sortedActions() []models.EcoAction {
	out := make([]models.EcoAction, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) EcoAction(ctx context.Context, id uint) (*models.EcoAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func sortActionCounts(counts []ActionCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Action.ID < counts[j].Action.ID
	})
}

func (s *MemoryStore) CompletionsSince(ctx context.Context, since time.Time) ([]ActionCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	perAction := make(map[uint]int64)
	for _, ua := range s.userActions {
		if !ua.CompletedAt.Before(since) {
			perAction[ua.EcoActionID]++
		}
	}
	actions := s.sortedActions()
	out := make([]ActionCount, len(actions))
	for i, a := range actions {
		out[i] = ActionCount{Action: a, Count: perAction[a.ID]}
	}
	sortActionCounts(out)
	return out, nil
}

func (s *MemoryStore) Profile(ctx context.Context, id uint) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) ProfileByUser(ctx context.Context, userID uint) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserActions(ctx context.Context, profileID uint) ([]models.UserAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserAction
	for _, ua := range s.userActions {
		if ua.UserProfileID == profileID {
			out = append(out, ua)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CountUserActions(ctx context.Context, profileID uint, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, ua := range s.userActions {
		if ua.UserProfileID == profileID && (since.IsZero() || !ua.CompletedAt.Before(since)) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) MostCompletedAction(ctx context.Context, profileID uint) (*ActionCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	perAction := make(map[uint]int64)
	for _, ua := range s.userActions {
		if ua.UserProfileID == profileID {
			perAction[ua.EcoActionID]++
		}
	}
	if len(perAction) == 0 {
		return nil, nil
	}
	counts := make([]ActionCount, 0, len(perAction))
	for id, n := range perAction {
		counts = append(counts, ActionCount{Action: s.actions[id], Count: n})
	}
	sortActionCounts(counts)
	return &counts[0], nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: username", ErrConflict)
		}
	}
	now := time.Now()
	user.ID = s.nextID("users")
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.Profile = models.UserProfile{
		ID:        s.nextID("user_profiles"),
		UserID:    user.ID,
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.profiles[user.Profile.ID] = user.Profile
	stored := *user
	stored.Profile = models.UserProfile{}
	s.users[user.ID] = stored
	return nil
}

func (s *MemoryStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Leaderboard(ctx context.Context, since time.Time, offset, limit int) ([]LeaderboardEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	windowPoints := make(map[uint]int64)
	if !since.IsZero() {
		for _, ua := range s.userActions {
			if !ua.CompletedAt.Before(since) {
				windowPoints[ua.UserProfileID] += int64(s.actions[ua.EcoActionID].Points)
			}
		}
	}

	entries := make([]LeaderboardEntry, 0, len(s.profiles))
	for _, p := range s.profiles {
		e := LeaderboardEntry{
			ProfileID: p.ID,
			UserID:    p.UserID,
			Username:  s.users[p.UserID].Username,
			Points:    int64(p.EcoPoints),
		}
		if !since.IsZero() {
			e.Points = windowPoints[p.ID]
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].ProfileID < entries[j].ProfileID
	})

	total := int64(len(entries))
	if offset >= len(entries) {
		return []LeaderboardEntry{}, total, nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, total, nil
}
