//go:build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/ecotrail/api-go/config"
	"github.com/ecotrail/api-go/models"
	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/store"
)

func startPostgres(t *testing.T, ctx context.Context) *gorm.DB {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "ecotrail",
			"POSTGRES_PASSWORD": "ecotrail",
			"POSTGRES_DB":       "ecotrail",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}

	db, err := config.InitDB(config.DatabaseConfig{
		URL: fmt.Sprintf("postgres://ecotrail:ecotrail@%s:%s/ecotrail?sslmode=disable", host, port.Port()),
	})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return db
}

func TestGormStoreDailyCompletion_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	db := startPostgres(t, ctx)
	s := store.NewGormStore(db)

	action := models.EcoAction{Name: "Ramasser des déchets", Points: 150}
	if err := db.Create(&action).Error; err != nil {
		t.Fatalf("seed action: %v", err)
	}
	user := models.User{Username: "alice", Password: "x", Role: models.RoleUser}
	if err := s.CreateUser(ctx, &user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Profile.ID == 0 || user.Profile.Level != 1 {
		t.Fatalf("profile not created with the user: %+v", user.Profile)
	}

	dup := models.User{Username: "alice", Password: "y"}
	if err := s.CreateUser(ctx, &dup); err == nil {
		t.Fatal("expected conflict for duplicate username")
	}

	ledger := services.NewLedger(s)

	const workers = 16
	var wg sync.WaitGroup
	outcomes := make(chan services.Outcome, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := ledger.CompleteAction(ctx, user.ID, action.ID)
			if err != nil {
				errs <- err
				return
			}
			outcomes <- out
		}()
	}
	wg.Wait()
	close(outcomes)
	close(errs)

	for err := range errs {
		t.Errorf("CompleteAction: %v", err)
	}
	successes := 0
	for out := range outcomes {
		if out.Status == services.StatusSuccess {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want 1", successes)
	}

	profile, err := s.ProfileByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ProfileByUser: %v", err)
	}
	if profile.EcoPoints != 150 || profile.Level != 1 {
		t.Errorf("profile = %d points level %d, want 150 points level 1", profile.EcoPoints, profile.Level)
	}

	n, err := s.CountUserActions(ctx, profile.ID, time.Time{})
	if err != nil {
		t.Fatalf("CountUserActions: %v", err)
	}
	if n != 1 {
		t.Errorf("user actions = %d, want 1", n)
	}

	err = s.InTx(ctx, func(tx store.Tx) error {
		return tx.CreateUserAction(ctx, &models.UserAction{
			UserProfileID: profile.ID,
			EcoActionID:   action.ID,
			CompletedAt:   time.Now(),
		})
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("second insert on the same day: err = %v, want ErrConflict", err)
	}

	entries, total, err := s.Leaderboard(ctx, time.Now().Add(-time.Hour), 0, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if total != 1 || len(entries) != 1 || entries[0].Points != 150 || entries[0].Username != "alice" {
		t.Errorf("leaderboard = %+v (total %d)", entries, total)
	}
}
