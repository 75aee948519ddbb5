// Package bootstrap assembles the application: configuration, logging,
// storage, providers and the HTTP surface, in dependency order.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"imagemeta-server-go/internal/domain/image"
	"imagemeta-server-go/internal/domain/metadata"
	"imagemeta-server-go/internal/domain/metadata/provider/azure"
	"imagemeta-server-go/internal/domain/metadata/provider/openai"
	"imagemeta-server-go/internal/domain/metadata/store"
	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/errors"
	"imagemeta-server-go/internal/platform/logging"
	transporthttp "imagemeta-server-go/internal/transport/http"
	metadatahttp "imagemeta-server-go/internal/transport/http/metadata"
)

const shutdownTimeout = 15 * time.Second

// App holds everything the init steps build up.
type App struct {
	ConfigPath string

	Config    *config.Config
	Logger    *logging.Logger
	Store     store.Store
	Primary   *azure.Provider
	Fallback  metadata.Provider
	Generator *metadata.Service
	Router    *transporthttp.Router
}

type initStep struct {
	name      string
	dependsOn []string
	run       func(ctx context.Context, app *App) error
}

func initSteps() []initStep {
	return []initStep{
		{
			name: "config:load",
			run: func(_ context.Context, app *App) error {
				result, err := config.NewLoader(app.ConfigPath).WithDotEnv(true).Load()
				if err != nil {
					return err
				}
				app.Config = result.Config
				return nil
			},
		},
		{
			name:      "logging:init",
			dependsOn: []string{"config:load"},
			run: func(_ context.Context, app *App) error {
				logger, err := logging.New(logging.Config{
					Level:    app.Config.Log.Level,
					Dir:      app.Config.Log.Dir,
					Filename: app.Config.Log.File,
				})
				if err != nil {
					return errors.Wrap(errors.KindBootstrap, "logging:init", "create logger", err)
				}
				app.Logger = logger
				logging.DefaultLogger = logger
				return nil
			},
		},
		{
			name:      "store:init",
			dependsOn: []string{"logging:init"},
			run: func(ctx context.Context, app *App) error {
				s, err := store.New(app.Config.Store)
				if err != nil {
					return err
				}
				app.Store = s
				app.Logger.InfoTag("Store", "prompt store ready, driver=%s", driverName(app.Config.Store.Driver))

				return seedRules(ctx, s, app.Config.Prompts.Rules, app.Logger)
			},
		},
		{
			name:      "providers:init",
			dependsOn: []string{"logging:init"},
			run: func(_ context.Context, app *App) error {
				app.Primary = azure.NewProvider(app.Config.Provider, app.Logger)
				if !app.Primary.Configured() {
					app.Logger.WarnTag("Boot", "primary provider not configured, responses will be degraded")
				}
				if app.Config.Fallback.Enabled {
					app.Fallback = openai.NewProvider(app.Config.Fallback, app.Logger)
				}
				return nil
			},
		},
		{
			name:      "service:init",
			dependsOn: []string{"store:init", "providers:init"},
			run: func(_ context.Context, app *App) error {
				app.Generator = metadata.NewService(metadata.ServiceOptions{
					Logger:        app.Logger,
					Primary:       app.Primary,
					Fallback:      app.Fallback,
					Rules:         app.Store,
					GlobalDefault: app.Config.Prompts.GlobalDefault,
				})
				return nil
			},
		},
		{
			name:      "http:init",
			dependsOn: []string{"service:init"},
			run: func(_ context.Context, app *App) error {
				app.Router = transporthttp.Build(transporthttp.Options{
					Config: app.Config,
					Logger: app.Logger,
				})
				metadatahttp.NewService(metadatahttp.Options{
					Config:    app.Config,
					Logger:    app.Logger,
					Generator: app.Generator,
					Validator: image.NewValidator(app.Config.Image, app.Logger),
					Store:     app.Store,
					Primary:   app.Primary,
				}).Register(app.Router.API)
				return nil
			},
		},
	}
}

// executeInitSteps runs the steps respecting declared dependencies.
func executeInitSteps(ctx context.Context, app *App, steps []initStep) error {
	done := make(map[string]bool, len(steps))

	for len(done) < len(steps) {
		progressed := false
		for _, step := range steps {
			if done[step.name] {
				continue
			}
			if !depsSatisfied(step, done) {
				continue
			}
			if err := step.run(ctx, app); err != nil {
				return errors.Wrap(errors.KindBootstrap, step.name, "init step failed", err)
			}
			if app.Logger != nil {
				app.Logger.DebugTag("Boot", "init step %s done", step.name)
			}
			done[step.name] = true
			progressed = true
		}
		if !progressed {
			return errors.New(errors.KindBootstrap, "bootstrap.executeInitSteps", "init step dependency cycle")
		}
	}
	return nil
}

func depsSatisfied(step initStep, done map[string]bool) bool {
	for _, dep := range step.dependsOn {
		if !done[dep] {
			return false
		}
	}
	return true
}

func driverName(driver string) string {
	if driver == "" {
		return store.DriverMemory
	}
	return driver
}

// seedRules loads configured rules into the store without overwriting rules
// an operator already edited.
func seedRules(ctx context.Context, s store.Store, seeds []config.PromptRuleSeed, logger *logging.Logger) error {
	for _, seed := range seeds {
		if seed.Property == "" || seed.Prompt == "" {
			continue
		}
		if _, err := s.Get(ctx, seed.Property); err == nil {
			continue
		}
		if err := s.Put(ctx, metadata.PromptRule{Property: seed.Property, Prompt: seed.Prompt}); err != nil {
			return err
		}
		logger.InfoTag("Store", "seeded prompt rule for %q", seed.Property)
	}
	return nil
}

// Run boots the application and serves until the context is canceled or a
// termination signal arrives.
func Run(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &App{ConfigPath: configPath}
	if err := executeInitSteps(ctx, app, initSteps()); err != nil {
		return err
	}
	defer func() {
		if app.Store != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			app.Store.Close(closeCtx)
			cancel()
		}
		app.Logger.Close()
	}()

	addr := fmt.Sprintf("%s:%d", app.Config.Server.IP, app.Config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: app.Router.Engine,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		app.Logger.InfoTag("Boot", "http server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.KindBootstrap, "bootstrap.Run", "http server", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		app.Logger.InfoTag("Boot", "shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := group.Wait()
	app.Logger.InfoTag("Boot", "server stopped")
	return err
}
