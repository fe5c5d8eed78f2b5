package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-roster/internal/domain/draft"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
	"github.com/riskibarqy/fantasy-roster/internal/infrastructure/repository/memory"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const integrationLeagueID = memory.LeagueIDClassic

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in -short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("roster"),
		tcpostgres.WithUsername("roster"),
		tcpostgres.WithPassword("roster"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")

	m, err := migrate.New("file://"+filepath.ToSlash(migrationsDir(t)), dsn)
	require.NoError(t, err, "create migrator")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}
	_, _ = m.Close()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	require.NoError(t, err, "connect postgres")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, BootstrapSeed(ctx, db), "bootstrap seed")
	return db
}

func migrationsDir(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "db", "migrations")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find module root")
		}
		dir = parent
	}
}

func TestOwnershipStore_ConcurrentInsertHasOneWinner(t *testing.T) {
	db := setupTestDB(t)
	store := NewOwnershipStore(db)
	ctx := t.Context()

	teams := []string{"classic-garuda", "classic-macan", "classic-bajul", "classic-serdadu"}
	var wins, rejected atomic.Int32
	var wg conc.WaitGroup
	for _, teamID := range teams {
		wg.Go(func() {
			err := store.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
				if err := tx.LockTeam(ctx, integrationLeagueID, teamID); err != nil {
					return err
				}
				return tx.InsertRecord(ctx, ownership.Record{
					LeagueID:    integrationLeagueID,
					PlayerID:    "idn-fwd-01",
					TeamID:      teamID,
					Acquisition: ownership.AcquisitionAdd,
					AssignedAt:  time.Now(),
				})
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ownership.ErrAlreadyOwned):
				rejected.Add(1)
			default:
				t.Errorf("unexpected insert error: %v", err)
			}
		})
	}
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
	require.EqualValues(t, len(teams)-1, rejected.Load())

	owned, err := store.ListOwnedPlayerIDs(ctx, integrationLeagueID)
	require.NoError(t, err)
	require.Equal(t, []string{"idn-fwd-01"}, owned)
}

func TestOwnershipStore_ReservationBoundary(t *testing.T) {
	db := setupTestDB(t)
	store := NewOwnershipStore(db)
	ctx := t.Context()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	put := func(teamID string, at time.Time) bool {
		var ok bool
		err := store.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
			var err error
			ok, err = tx.PutReservation(ctx, draft.Reservation{
				LeagueID:   integrationLeagueID,
				PlayerID:   "idn-mid-02",
				TeamID:     teamID,
				ReservedAt: at,
				ExpiresAt:  at.Add(draft.DefaultReservationTTL),
			}, at)
			return err
		})
		require.NoError(t, err)
		return ok
	}

	require.True(t, put("classic-garuda", now))
	require.False(t, put("classic-macan", now.Add(draft.DefaultReservationTTL-time.Microsecond)))
	require.True(t, put("classic-macan", now.Add(draft.DefaultReservationTTL)))

	var removed int
	err := store.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		var err error
		removed, err = tx.DeleteExpiredReservations(ctx, now.Add(2*draft.DefaultReservationTTL))
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, removed)
}

func TestOwnershipStore_NestedRollsBackOnlySavepoint(t *testing.T) {
	db := setupTestDB(t)
	store := NewOwnershipStore(db)
	ctx := t.Context()

	err := store.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		require.NoError(t, tx.InsertRecord(ctx, ownership.Record{
			LeagueID: integrationLeagueID, PlayerID: "idn-def-01", TeamID: "classic-garuda",
			Acquisition: ownership.AcquisitionWaiver, AssignedAt: time.Now(),
		}))

		nestedErr := tx.Nested(ctx, func(ctx context.Context) error {
			return tx.InsertRecord(ctx, ownership.Record{
				LeagueID: integrationLeagueID, PlayerID: "idn-def-01", TeamID: "classic-macan",
				Acquisition: ownership.AcquisitionWaiver, AssignedAt: time.Now(),
			})
		})
		require.ErrorIs(t, nestedErr, ownership.ErrAlreadyOwned)

		return tx.InsertRecord(ctx, ownership.Record{
			LeagueID: integrationLeagueID, PlayerID: "idn-def-02", TeamID: "classic-macan",
			Acquisition: ownership.AcquisitionWaiver, AssignedAt: time.Now(),
		})
	})
	require.NoError(t, err)

	roster, err := store.ListRoster(ctx, integrationLeagueID, "classic-macan")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, "idn-def-02", roster[0].PlayerID)
}

func TestOwnershipStore_TryLockKeyIsExclusive(t *testing.T) {
	db := setupTestDB(t)
	store := NewOwnershipStore(db)
	ctx := t.Context()
	key := waiver.LockKey(integrationLeagueID)

	held := make(chan struct{})
	release := make(chan struct{})
	var wg conc.WaitGroup
	wg.Go(func() {
		_ = store.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
			ok, err := tx.TryLockKey(ctx, key)
			if err != nil || !ok {
				t.Errorf("first holder: ok=%v err=%v", ok, err)
			}
			close(held)
			<-release
			return nil
		})
	})

	<-held
	err := store.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		ok, err := tx.TryLockKey(ctx, key)
		require.NoError(t, err)
		require.False(t, ok, "second unit must not acquire a held key")
		return nil
	})
	require.NoError(t, err)
	close(release)
	wg.Wait()

	err = store.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		ok, err := tx.TryLockKey(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, "key is released at commit")
		return nil
	})
	require.NoError(t, err)
}

func TestOwnershipStore_DueClaimsFollowPriority(t *testing.T) {
	db := setupTestDB(t)
	store := NewOwnershipStore(db)
	ctx := t.Context()
	now := time.Date(2026, 3, 14, 3, 0, 0, 0, time.UTC)

	claims := []waiver.Claim{
		{ID: "claim-1", TeamID: "classic-garuda", PlayerID: "idn-mid-03", CreatedAt: now.Add(-3 * time.Hour), ProcessAt: now},
		{ID: "claim-2", TeamID: "classic-macan", PlayerID: "idn-mid-03", CreatedAt: now.Add(-2 * time.Hour), ProcessAt: now},
		{ID: "claim-3", TeamID: "classic-bajul", PlayerID: "idn-mid-04", CreatedAt: now.Add(-time.Hour), ProcessAt: now.Add(time.Minute)},
	}

	err := store.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		for _, teamID := range []string{"classic-macan", "classic-garuda", "classic-bajul"} {
			if _, err := tx.EnsurePriority(ctx, integrationLeagueID, teamID); err != nil {
				return err
			}
		}
		for _, claim := range claims {
			claim.LeagueID = integrationLeagueID
			claim.Status = waiver.StatusPending
			if err := tx.InsertClaim(ctx, claim); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		due, err := tx.ListDueClaims(ctx, integrationLeagueID, now, 10)
		require.NoError(t, err)
		require.Len(t, due, 2, "claim-3 is not due yet")
		require.Equal(t, "claim-2", due[0].ID, "macan holds priority 1")
		require.Equal(t, "claim-1", due[1].ID)

		back, err := tx.MoveToBack(ctx, integrationLeagueID, "classic-macan")
		require.NoError(t, err)
		require.Equal(t, 4, back)

		require.NoError(t, tx.MarkClaim(ctx, "claim-2", waiver.StatusProcessed, "", now))
		require.Error(t, tx.MarkClaim(ctx, "claim-2", waiver.StatusFailed, "roster_full", now))
		return nil
	})
	require.NoError(t, err)

	priorities, err := store.ListPriorities(ctx, integrationLeagueID)
	require.NoError(t, err)
	require.Equal(t, "classic-garuda", priorities[0].TeamID)
	require.Equal(t, "classic-macan", priorities[len(priorities)-1].TeamID)

	processed, err := store.ListClaims(ctx, integrationLeagueID, waiver.StatusProcessed)
	require.NoError(t, err)
	require.Len(t, processed, 1)
	require.NotNil(t, processed[0].ProcessedAt)
}
