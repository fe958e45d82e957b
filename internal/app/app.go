package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/qaportal/internal/auth"
	"github.com/geocoder89/qaportal/internal/cache"
	"github.com/geocoder89/qaportal/internal/config"
	"github.com/geocoder89/qaportal/internal/db"
	"github.com/geocoder89/qaportal/internal/domain/user"
	httpx "github.com/geocoder89/qaportal/internal/http"
	"github.com/geocoder89/qaportal/internal/observability"
	"github.com/geocoder89/qaportal/internal/qa"
	"github.com/geocoder89/qaportal/internal/redisclient"
	"github.com/geocoder89/qaportal/internal/repo/memory"
	"github.com/geocoder89/qaportal/internal/repo/postgres"
	"github.com/geocoder89/qaportal/internal/repo/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// UserStore is what every store driver provides for accounts.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	ListByRole(ctx context.Context, role string) ([]user.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Stores is one opened store driver.
type Stores struct {
	Users     UserStore
	Questions qa.QuestionStore
	Ping      func(ctx context.Context) error
	Database  string
	Close     func()
}

type App struct {
	Router   *gin.Engine
	Registry *prometheus.Registry
	Stores   Stores
	Auth     *auth.Service
	QA       *qa.Service

	closers []func()
}

// New opens the configured store, seeds it and wires the HTTP routes.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	a := &App{Registry: reg}

	stores, err := OpenStores(ctx, cfg, prom, log)
	if err != nil {
		return nil, err
	}
	a.Stores = stores
	a.closers = append(a.closers, stores.Close)

	if err := Seed(ctx, cfg, stores, log); err != nil {
		a.Close()
		return nil, err
	}

	a.Auth = auth.NewService(stores.Users,
		auth.WithBootstrapAdmins(cfg.IsBootstrapAdmin),
		auth.WithLogger(log),
	)
	a.QA = qa.NewService(stores.Questions, stores.Users, qa.WithLogger(log))

	a.Router = httpx.NewRouter(log, cfg, httpx.Deps{
		Auth:      a.Auth,
		Questions: a.QA,
		Admins:    a.QA,
		Cache:     a.responseCache(ctx, cfg, log),
		Prom:      prom,
		Gatherer:  reg,
		Ping:      stores.Ping,
		Database:  stores.Database,
	})

	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// responseCache returns nil when caching is off. A redis outage at startup also
// turns caching off; a per-process cache would not see other instances' writes.
func (a *App) responseCache(ctx context.Context, cfg config.Config, log *slog.Logger) cache.Store {
	switch cfg.CacheDriver {
	case config.CacheRedis:
		rc, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("redis unavailable, response cache disabled", "err", err)
			return nil
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		log.Info("response cache: redis", "addr", cfg.RedisAddr)
		return cache.NewRedis(rc.Raw(), cfg.CacheTTL, log)

	case config.CacheMemory:
		log.Info("response cache: in-process")
		return cache.New(cfg.CacheTTL)

	default:
		return nil
	}
}

func OpenStores(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (Stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return Stores{}, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return Stores{}, fmt.Errorf("migrate: %w", err)
		}
		log.Info("store: postgres", "max_conns", cfg.DBMaxConns)

		return Stores{
			Users:     postgres.NewUsersRepo(pool, prom),
			Questions: postgres.NewQuestionsRepo(pool, prom),
			Ping:      pool.Ping,
			Database:  "PostgreSQL",
			Close:     pool.Close,
		}, nil

	case config.StoreSQLite:
		gdb, err := sqlite.Open(cfg.SQLitePath, cfg.Env == "dev")
		if err != nil {
			return Stores{}, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info("store: sqlite", "path", cfg.SQLitePath)

		return Stores{
			Users:     sqlite.NewUsersRepo(gdb, prom),
			Questions: sqlite.NewQuestionsRepo(gdb, prom),
			Ping:      func(ctx context.Context) error { return sqlite.Ping(ctx, gdb) },
			Database:  "SQLite",
			Close:     func() { _ = sqlite.Close(gdb) },
		}, nil

	case config.StoreMemory:
		users := memory.NewUsersRepo()
		log.Warn("store: memory, data is lost on restart")

		return Stores{
			Users:     users,
			Questions: memory.NewQuestionsRepo(users),
			Ping:      users.Ping,
			Database:  "in-memory",
			Close:     func() {},
		}, nil
	}

	return Stores{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// Seed creates the configured admin account and, when asked, the default questions.
func Seed(ctx context.Context, cfg config.Config, stores Stores, log *slog.Logger) error {
	admin, err := db.EnsureAdminUser(ctx, stores.Users, cfg)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if admin.ID == "" {
		return nil
	}
	log.Info("admin account ready", "email", admin.Email)

	if !admin.IsAdmin() {
		log.Warn("ADMIN_EMAIL belongs to a non-admin account, skipping question seed", "email", admin.Email)
		return nil
	}

	if !cfg.SeedQuestions {
		return nil
	}

	n, err := db.SeedQuestions(ctx, stores.Questions, admin)
	if err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	if n > 0 {
		log.Info("default questions seeded", "count", n)
	}
	return nil
}
