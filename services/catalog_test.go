package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/ecotrail/api-go/geo"
	"github.com/ecotrail/api-go/models"
	"github.com/ecotrail/api-go/store"
)

func TestCatalogNearbySitesSkipsCorruptCoordinates(t *testing.T) {
	s := store.NewMemoryStore()
	s.AddSite(models.Site{Name: "Corrupt", Latitude: math.NaN(), Longitude: 2.35, EcoScore: 3})
	s.AddSite(models.Site{Name: "Out of range", Latitude: 120, Longitude: 2.35, EcoScore: 3})
	s.AddSite(models.Site{Name: "Tour", Latitude: 48.8584, Longitude: 2.2945, EcoScore: 2})
	s.AddSite(models.Site{Name: "Notre-Dame", Latitude: 48.8530, Longitude: 2.3499, EcoScore: 4})

	c := NewCatalog(s, nil)
	got, err := c.NearbySites(context.Background(), geo.Coordinate{Latitude: 48.8566, Longitude: 2.3522}, 10)
	if err != nil {
		t.Fatalf("NearbySites: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Notre-Dame" || got[1].Name != "Tour" {
		t.Errorf("NearbySites = %+v", got)
	}
}

func TestCatalogSiteNearbyServices(t *testing.T) {
	s := store.NewMemoryStore()
	site := s.AddSite(models.Site{Name: "Lac", Latitude: 45.9, Longitude: 6.1, EcoScore: 5})
	s.AddService(models.Service{Name: "Refuge", Latitude: 45.91, Longitude: 6.1, SiteID: site.ID})
	s.AddService(models.Service{Name: "Hôtel", Latitude: 46.5, Longitude: 6.1, SiteID: site.ID})

	c := NewCatalog(s, nil)
	got, err := c.SiteNearbyServices(context.Background(), site.ID, 5)
	if err != nil {
		t.Fatalf("SiteNearbyServices: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Refuge" || got[0].Distance != 1.11 {
		t.Errorf("SiteNearbyServices = %+v", got)
	}

	if _, err := c.SiteNearbyServices(context.Background(), 999, 5); !IsKind(err, KindNotFound) {
		t.Errorf("unknown site: got %v", err)
	}
	if _, err := c.SiteNearbyServices(context.Background(), site.ID, -2); !IsKind(err, KindValidation) {
		t.Errorf("negative radius: got %v", err)
	}
}

func TestCatalogEcoFriendlySites(t *testing.T) {
	s := store.NewMemoryStore()
	for i, score := range []int{1, 4, 3, 5, 4} {
		s.AddSite(models.Site{Name: string(rune('A' + i)), EcoScore: score})
	}

	got, err := NewCatalog(s, nil).EcoFriendlySites(context.Background())
	if err != nil {
		t.Fatalf("EcoFriendlySites: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d sites, want 3", len(got))
	}
	for _, site := range got {
		if site.EcoScore < 4 {
			t.Errorf("site %s has eco score %d", site.Name, site.EcoScore)
		}
	}
}

func TestCatalogPopularActions(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)

	u := &models.User{Username: "zoe", Password: "x"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	pid := u.Profile.ID

	tri := s.AddEcoAction(models.EcoAction{Name: "Tri", Points: 5})
	velo := s.AddEcoAction(models.EcoAction{Name: "Vélo", Points: 10})
	gourde := s.AddEcoAction(models.EcoAction{Name: "Gourde", Points: 3})

	s.RecordUserAction(models.UserAction{UserProfileID: pid, EcoActionID: velo.ID, CompletedAt: now.AddDate(0, 0, -1)})
	s.RecordUserAction(models.UserAction{UserProfileID: pid, EcoActionID: velo.ID, CompletedAt: now.AddDate(0, 0, -2)})
	s.RecordUserAction(models.UserAction{UserProfileID: pid, EcoActionID: gourde.ID, CompletedAt: now})
	for i := 8; i < 12; i++ {
		s.RecordUserAction(models.UserAction{UserProfileID: pid, EcoActionID: tri.ID, CompletedAt: now.AddDate(0, 0, -i)})
	}

	got, err := NewCatalog(s, nil).WithClock(func() time.Time { return now }).PopularActions(ctx)
	if err != nil {
		t.Fatalf("PopularActions: %v", err)
	}
	want := []struct {
		name  string
		count int64
	}{{"Vélo", 2}, {"Gourde", 1}, {"Tri", 0}}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].CompletionCount != w.count {
			t.Errorf("popular[%d] = %s/%d, want %s/%d", i, got[i].Name, got[i].CompletionCount, w.name, w.count)
		}
	}
}
