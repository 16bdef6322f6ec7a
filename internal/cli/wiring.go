package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"exam-service/internal/app"
	"exam-service/internal/config"
	"exam-service/internal/domain"
	"exam-service/internal/identity"
	"exam-service/internal/infra/memory"
	"exam-service/internal/infra/postgres"
	pgmigrations "exam-service/internal/infra/postgres/migrations"
	"exam-service/internal/infra/redis"
	"exam-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

// services holds the wired application components for one process.
type services struct {
	catalog  *app.ExamCatalog
	bank     *app.QuestionBank
	recorder *app.AttemptRecorder
	attempts *app.AttemptService
	auth     *identity.Service
	closers  []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// loadConfig reads the config file, falling back to defaults when it does not exist.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config %s not found, using defaults", path)
		return config.Default(), nil
	}
	return cfg, err
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	svc := &services{}

	store, err := openStore(ctx, cfg, svc)
	if err != nil {
		svc.Close()
		return nil, err
	}

	cacheTTL := config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute)
	var cache app.QuestionCache = memory.NewQuestionCache(cacheTTL)
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closers = append(svc.closers, func() { client.Close() })
		cache = redis.NewQuestionCache(client, cacheTTL)
	}

	accounts := make([]identity.Account, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		role, err := domain.ParseRole(u.Role)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("auth user %q: %w", u.Username, err)
		}
		accounts = append(accounts, identity.Account{Username: u.Username, PasswordHash: u.PasswordHash, Role: role})
	}

	svc.bank = app.NewQuestionBank(store, cache)
	svc.catalog = app.NewExamCatalog(store, svc.bank)
	svc.recorder = app.NewAttemptRecorder(store)
	svc.attempts = app.NewAttemptService(svc.catalog, svc.bank, app.NewScoringEngine(cfg.Scoring.PassThreshold), svc.recorder)
	svc.auth = identity.NewService(accounts, cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 8*time.Hour))
	return svc, nil
}

func openStore(ctx context.Context, cfg config.Config, svc *services) (app.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverPostgres:
		if err := migrate(ctx, cfg.Postgres.URL); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		svc.closers = append(svc.closers, pool.Close)
		return postgres.NewStore(pool), nil
	default:
		store, err := sqlite.Open(ctx, cfg.Storage.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		svc.closers = append(svc.closers, func() { store.Close() })
		return store, nil
	}
}

func migrate(ctx context.Context, dsn string) error {
	applied, err := pgmigrations.Apply(ctx, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if len(applied) == 0 {
		log.Printf("migrations up to date")
		return nil
	}
	log.Printf("migrations applied: %v", applied)
	return nil
}
