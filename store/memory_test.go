package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ecotrail/api-go/models"
)

func newUser(t *testing.T, s *MemoryStore, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Password: "x"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestMemoryCreateUserCreatesProfile(t *testing.T) {
	s := NewMemoryStore()
	u := newUser(t, s, "alice")

	p, err := s.ProfileByUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("ProfileByUser: %v", err)
	}
	if p.Level != 1 || p.EcoPoints != 0 {
		t.Errorf("new profile = %+v, want level 1 and 0 points", p)
	}
	if u.Role != models.RoleUser {
		t.Errorf("role = %q, want %q", u.Role, models.RoleUser)
	}

	err = s.CreateUser(context.Background(), &models.User{Username: "alice"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate username: got %v, want ErrConflict", err)
	}
}

func TestMemoryTxRollsBackOnError(t *testing.T) {
	s := NewMemoryStore()
	u := newUser(t, s, "bob")
	a := s.AddEcoAction(models.EcoAction{Name: "Tri", Points: 10})
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx Tx) error {
		p, err := tx.ProfileForUpdate(ctx, u.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateProgress(ctx, p.ID, 10, 1); err != nil {
			return err
		}
		if err := tx.CreateUserAction(ctx, &models.UserAction{UserProfileID: p.ID, EcoActionID: a.ID, CompletedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}

	p, _ := s.ProfileByUser(ctx, u.ID)
	if p.EcoPoints != 0 {
		t.Errorf("points after rollback = %d, want 0", p.EcoPoints)
	}
	if n, _ := s.CountUserActions(ctx, p.ID, time.Time{}); n != 0 {
		t.Errorf("user actions after rollback = %d, want 0", n)
	}
}

func TestMemoryDailyUniqueness(t *testing.T) {
	s := NewMemoryStore()
	u := newUser(t, s, "carol")
	a := s.AddEcoAction(models.EcoAction{Name: "Vélo", Points: 20})
	ctx := context.Background()
	p, _ := s.ProfileByUser(ctx, u.ID)

	morning := time.Date(2024, 5, 10, 8, 0, 0, 0, time.Local)
	evening := time.Date(2024, 5, 10, 22, 0, 0, 0, time.Local)
	nextDay := time.Date(2024, 5, 11, 8, 0, 0, 0, time.Local)

	if _, err := s.RecordUserAction(models.UserAction{UserProfileID: p.ID, EcoActionID: a.ID, CompletedAt: morning}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := s.RecordUserAction(models.UserAction{UserProfileID: p.ID, EcoActionID: a.ID, CompletedAt: evening}); !errors.Is(err, ErrConflict) {
		t.Errorf("same day insert: got %v, want ErrConflict", err)
	}
	if _, err := s.RecordUserAction(models.UserAction{UserProfileID: p.ID, EcoActionID: a.ID, CompletedAt: nextDay}); err != nil {
		t.Errorf("next day insert: %v", err)
	}

	err := s.InTx(ctx, func(tx Tx) error {
		done, err := tx.HasCompletion(ctx, p.ID, a.ID, evening)
		if err != nil {
			return err
		}
		if !done {
			t.Error("HasCompletion = false for a recorded day")
		}
		return tx.CreateUserAction(ctx, &models.UserAction{UserProfileID: p.ID, EcoActionID: a.ID, CompletedAt: evening})
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("tx insert on recorded day: got %v, want ErrConflict", err)
	}
}

func TestMemoryQueries(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	u := newUser(t, s, "dave")
	p, _ := s.ProfileByUser(ctx, u.ID)

	s.AddSite(models.Site{Name: "Louvre", Type: models.SiteTypeMuseum, EcoScore: 3})
	forest := s.AddSite(models.Site{Name: "Forêt", Type: models.SiteTypeNature, EcoScore: 5})
	s.AddSite(models.Site{Name: "Arc", Type: models.SiteTypeMonument, EcoScore: 4})
	s.AddService(models.Service{Name: "Gîte", Type: models.ServiceTypeHotel, SiteID: forest.ID})
	s.AddService(models.Service{Name: "Bistrot", Type: models.ServiceTypeRestaurant, SiteID: forest.ID})
	s.AddService(models.Service{Name: "Auberge", Type: models.ServiceTypeHotel, SiteID: forest.ID})

	eco, _ := s.SitesWithMinEcoScore(ctx, 4)
	if len(eco) != 2 || eco[0].Name != "Forêt" || eco[1].Name != "Arc" {
		t.Errorf("SitesWithMinEcoScore = %+v", eco)
	}

	byType, _ := s.CountServicesByType(ctx)
	if len(byType) != 2 || byType[0].Type != models.ServiceTypeHotel || byType[0].Count != 2 {
		t.Errorf("CountServicesByType = %+v", byType)
	}

	a1 := s.AddEcoAction(models.EcoAction{Name: "Tri", Points: 10})
	a2 := s.AddEcoAction(models.EcoAction{Name: "Vélo", Points: 20})
	now := time.Now()
	for i := 0; i < 3; i++ {
		s.RecordUserAction(models.UserAction{UserProfileID: p.ID, EcoActionID: a2.ID, CompletedAt: now.AddDate(0, 0, -i)})
	}
	s.RecordUserAction(models.UserAction{UserProfileID: p.ID, EcoActionID: a1.ID, CompletedAt: now.AddDate(0, 0, -10)})

	popular, _ := s.CompletionsSince(ctx, now.AddDate(0, 0, -7))
	if len(popular) != 2 || popular[0].Action.ID != a2.ID || popular[0].Count != 3 || popular[1].Count != 0 {
		t.Errorf("CompletionsSince = %+v", popular)
	}

	most, _ := s.MostCompletedAction(ctx, p.ID)
	if most == nil || most.Action.ID != a2.ID || most.Count != 3 {
		t.Errorf("MostCompletedAction = %+v", most)
	}

	history, _ := s.UserActions(ctx, p.ID)
	if len(history) != 4 || !history[0].CompletedAt.Equal(now) {
		t.Errorf("UserActions not newest first: %+v", history)
	}

	s.DeleteSite(forest.ID)
	if services, _ := s.ListServices(ctx); len(services) != 0 {
		t.Errorf("services survived site deletion: %+v", services)
	}
}

func TestMemoryMostCompletedActionEmpty(t *testing.T) {
	s := NewMemoryStore()
	most, err := s.MostCompletedAction(context.Background(), 42)
	if err != nil || most != nil {
		t.Errorf("MostCompletedAction = %+v, %v; want nil, nil", most, err)
	}
}

func TestMemoryLeaderboard(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")
	carol := newUser(t, s, "carol")
	a := s.AddEcoAction(models.EcoAction{Name: "Tri", Points: 40})

	setPoints := func(u *models.User, points int) {
		err := s.InTx(ctx, func(tx Tx) error {
			p, err := tx.ProfileForUpdate(ctx, u.ID)
			if err != nil {
				return err
			}
			return tx.UpdateProgress(ctx, p.ID, points, 1)
		})
		if err != nil {
			t.Fatalf("UpdateProgress: %v", err)
		}
	}
	setPoints(alice, 300)
	setPoints(bob, 50)
	setPoints(carol, 50)

	s.RecordUserAction(models.UserAction{UserProfileID: bob.Profile.ID, EcoActionID: a.ID, CompletedAt: now})
	s.RecordUserAction(models.UserAction{UserProfileID: bob.Profile.ID, EcoActionID: a.ID, CompletedAt: now.AddDate(0, 0, -1)})
	s.RecordUserAction(models.UserAction{UserProfileID: alice.Profile.ID, EcoActionID: a.ID, CompletedAt: now.AddDate(0, 0, -30)})

	all, total, err := s.Leaderboard(ctx, time.Time{}, 0, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("got %d entries (total %d), want 3", len(all), total)
	}
	if all[0].Username != "alice" || all[1].Username != "bob" || all[2].Username != "carol" {
		t.Errorf("all time order = %+v, want alice, bob, carol", all)
	}

	weekly, _, _ := s.Leaderboard(ctx, now.AddDate(0, 0, -7), 0, 10)
	if weekly[0].Username != "bob" || weekly[0].Points != 80 || weekly[1].Points != 0 {
		t.Errorf("weekly = %+v, want bob first with 80 points", weekly)
	}

	page, _, _ := s.Leaderboard(ctx, time.Time{}, 2, 2)
	if len(page) != 1 || page[0].Username != "carol" {
		t.Errorf("second page = %+v, want carol only", page)
	}
	empty, _, _ := s.Leaderboard(ctx, time.Time{}, 10, 2)
	if empty == nil || len(empty) != 0 {
		t.Errorf("page past the end = %#v, want empty slice", empty)
	}
}
