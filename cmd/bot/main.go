package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	appdb "github.com/jellyrequest/jellyrequest/db"
	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/db"
	"github.com/jellyrequest/jellyrequest/internal/handlers"
	"github.com/jellyrequest/jellyrequest/internal/jellyfin"
	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/ledger"
	"github.com/jellyrequest/jellyrequest/internal/logger"
	"github.com/jellyrequest/jellyrequest/internal/provision"
	"github.com/jellyrequest/jellyrequest/internal/server"
	"github.com/jellyrequest/jellyrequest/internal/sweep"
	"github.com/jellyrequest/jellyrequest/internal/telegram"
	"github.com/jellyrequest/jellyrequest/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrateCommand(os.Args[2:])
		return
	}

	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBPool,
			ledger.NewService,

			provideJellyfinClient,
			provideJellyseerrClient,
			provideResolver,
			provideBot,
			provideProvisioner,
			provideDeprovisioner,
			provideSweeper,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAccountsHandler),
			provideServer,
		),
		fx.Invoke(
			applyMigrations,
			startBot,
			startSweeper,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func runMigrateCommand(args []string) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	command := "up"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	migrations, err := fs.Sub(appdb.MigrationsFS, "migrations")
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrations fs: %v\n", err)
		os.Exit(1)
	}
	if err := db.RunMigrate(logger.L, cfg.Postgres, migrations, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", command, err)
		os.Exit(1)
	}
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

func provideJellyfinClient(log *slog.Logger, cfg config.Config) (*jellyfin.Client, error) {
	return jellyfin.NewClient(log, cfg.Jellyfin.BaseURL, cfg.Jellyfin.APIKey,
		time.Duration(cfg.Jellyfin.TimeoutSeconds)*time.Second)
}

func provideJellyseerrClient(log *slog.Logger, cfg config.Config) (*jellyseerr.Client, error) {
	return jellyseerr.NewClient(log, cfg.Jellyseerr.BaseURL, cfg.Jellyseerr.APIKey,
		time.Duration(cfg.Jellyseerr.TimeoutSeconds)*time.Second)
}

func provideResolver(log *slog.Logger, media *jellyfin.Client, requests *jellyseerr.Client) *provision.Resolver {
	return provision.NewResolver(log, media, requests)
}

func provideBot(
	log *slog.Logger,
	cfg config.Config,
	media *jellyfin.Client,
	requests *jellyseerr.Client,
	resolver *provision.Resolver,
	store *ledger.Service,
) *telegram.Bot {
	return telegram.NewBot(log, cfg.Telegram, media, requests, resolver, store)
}

func provideProvisioner(
	log *slog.Logger,
	media *jellyfin.Client,
	requests *jellyseerr.Client,
	resolver *provision.Resolver,
	store *ledger.Service,
	bot *telegram.Bot,
) *provision.Provisioner {
	return provision.NewProvisioner(log, media, requests, resolver, store, bot,
		media.BaseURL(), requests.BaseURL())
}

func provideDeprovisioner(
	log *slog.Logger,
	media *jellyfin.Client,
	requests *jellyseerr.Client,
	store *ledger.Service,
) *provision.Deprovisioner {
	return provision.NewDeprovisioner(log, media, requests, store)
}

func provideSweeper(
	log *slog.Logger,
	cfg config.Config,
	store *ledger.Service,
	deprov *provision.Deprovisioner,
	bot *telegram.Bot,
) *sweep.Sweeper {
	return sweep.New(log, store, deprov, bot, bot, cfg.Sweep.Pattern)
}

func provideAccountsHandler(log *slog.Logger, store *ledger.Service, deprov *provision.Deprovisioner) *handlers.AccountsHandler {
	return handlers.NewAccountsHandler(log, store, deprov)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr,
		params.Config.Server.APIToken, params.ServerHandlers...)
}

// applyMigrations brings the schema up to date on boot. Running "up" against
// a current schema is a no-op.
func applyMigrations(lc fx.Lifecycle, logger *slog.Logger, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			migrations, err := fs.Sub(appdb.MigrationsFS, "migrations")
			if err != nil {
				return fmt.Errorf("migrations fs: %w", err)
			}
			return db.RunMigrate(logger, cfg.Postgres, migrations, "up", nil)
		},
	})
}

func startBot(
	lc fx.Lifecycle,
	bot *telegram.Bot,
	provisioner *provision.Provisioner,
	deprovisioner *provision.Deprovisioner,
) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			bot.Bind(provisioner, deprovisioner)
			return bot.Start(ctx)
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startSweeper(lc fx.Lifecycle, sweeper *sweep.Sweeper) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return sweeper.Start(ctx)
		},
		OnStop: func(context.Context) error {
			cancel()
			sweeper.Stop()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting JellyRequest Bot %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown() // shutdown the application if the server fails to start
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// graceful shutdown
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
