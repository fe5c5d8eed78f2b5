package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/fantasy-roster/internal/config"
	"github.com/riskibarqy/fantasy-roster/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
	"github.com/riskibarqy/fantasy-roster/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/fantasy-roster/internal/infrastructure/redis"
	cacherepo "github.com/riskibarqy/fantasy-roster/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-roster/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-roster/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fantasy-roster/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/fantasy-roster/internal/platform/cache"
	idgen "github.com/riskibarqy/fantasy-roster/internal/platform/id"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
	"github.com/riskibarqy/fantasy-roster/internal/usecase"
)

// Services is the wired use case layer shared by the api and worker binaries.
type Services struct {
	League      *usecase.LeagueService
	Roster      *usecase.RosterService
	Move        *usecase.MoveService
	Draft       *usecase.DraftService
	Waiver      *usecase.WaiverService
	Maintenance *usecase.MaintenanceService

	closers []func() error
}

// Close releases storage and redis connections in reverse open order.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

type storage struct {
	leagueRepo league.Repository
	teamRepo   team.Repository
	playerRepo player.Repository
	store      interface {
		ownership.Transactor
		ownership.Reader
		waiver.Repository
	}
	runRepo jobscheduler.Repository
}

func NewServices(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	svc := &Services{}
	st, err := buildStorage(ctx, cfg, logger, svc)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		st.leagueRepo = cacherepo.NewLeagueRepository(st.leagueRepo, store)
		st.teamRepo = cacherepo.NewTeamRepository(st.teamRepo, store)
		st.playerRepo = cacherepo.NewPlayerRepository(st.playerRepo, store)
	}

	var (
		locker   waiver.Locker      = memory.NewKeyLocker()
		notifier ownership.Notifier = ownership.NoopNotifier{}
	)
	if cfg.RedisEnabled {
		client, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			TLSEnabled: cfg.RedisTLSEnabled,
		})
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.closers = append(svc.closers, client.Close)
		locker = redis.NewLocker(client)
		notifier = redis.NewNotifier(client, cfg.AnubisCircuitConfig())
		logger.Info("redis enabled", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	} else {
		logger.Info("redis disabled", "reason", "REDIS_ENABLED=false", "waiver_locker", "in-process")
	}

	ids := idgen.NewUUIDGenerator()
	svc.League = usecase.NewLeagueService(st.leagueRepo, st.teamRepo)
	svc.Roster = usecase.NewRosterService(st.leagueRepo, st.teamRepo, st.playerRepo, st.store)
	svc.Move = usecase.NewMoveService(st.leagueRepo, st.teamRepo, st.playerRepo, st.store, notifier, ids, logger)
	svc.Draft = usecase.NewDraftService(st.leagueRepo, st.teamRepo, st.playerRepo, st.store, notifier, ids, cfg.DraftReservationTTL, logger)
	svc.Waiver = usecase.NewWaiverService(
		st.leagueRepo,
		st.teamRepo,
		st.playerRepo,
		st.store,
		locker,
		st.store,
		notifier,
		ids,
		usecase.WaiverConfig{
			LockTTL:    cfg.WaiverLockTTL,
			BatchSize:  cfg.WaiverBatchSize,
			ClaimDelay: cfg.WaiverClaimDelay,
		},
		logger,
	)
	svc.Maintenance = usecase.NewMaintenanceService(st.leagueRepo, svc.Waiver, svc.Draft, st.runRepo, ids, cfg.WaiverWorkers, logger)

	return svc, nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logging.Logger, svc *Services) (storage, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return storage{}, err
		}
		svc.closers = append(svc.closers, db.Close)

		if cfg.DBBootstrapSeed {
			if err := postgres.BootstrapSeed(ctx, db); err != nil {
				return storage{}, fmt.Errorf("bootstrap seed: %w", err)
			}
		}
		logger.Info("storage ready", "driver", config.StoragePostgres, "db_name", dbNameFromURL(cfg.DBURL), "seeded", cfg.DBBootstrapSeed)

		return storage{
			leagueRepo: postgres.NewLeagueRepository(db),
			teamRepo:   postgres.NewTeamRepository(db),
			playerRepo: postgres.NewPlayerRepository(db),
			store:      postgres.NewOwnershipStore(db),
			runRepo:    postgres.NewJobRunRepository(db),
		}, nil
	default:
		logger.Info("storage ready", "driver", config.StorageMemory)

		return storage{
			leagueRepo: memory.NewLeagueRepository(memory.SeedLeagues()),
			teamRepo:   memory.NewTeamRepository(memory.SeedTeams()),
			playerRepo: memory.NewPlayerRepository(memory.SeedPlayers()),
			store:      memory.NewOwnershipStore(),
			runRepo:    memory.NewJobRunRepository(),
		}, nil
	}
}

func NewHTTPServer(cfg config.Config, svc *Services, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if svc == nil {
		return nil, fmt.Errorf("services are required")
	}

	anubisClient := anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		anubis.Config{
			BaseURL:        cfg.AnubisBaseURL,
			IntrospectPath: cfg.AnubisIntrospectURL,
			AdminKey:       cfg.AnubisAdminKey,
			Circuit:        cfg.AnubisCircuitConfig(),
		},
		logger,
	)

	handler := httpapi.NewHandler(svc.League, svc.Roster, svc.Move, svc.Draft, svc.Waiver, svc.Maintenance, logger)
	router := httpapi.NewRouter(handler, anubisClient, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
