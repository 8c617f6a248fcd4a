package cmd

import (
	"context"
	"time"

	"entrylist/features/site"
	"entrylist/features/web"
	"entrylist/internal/config"
	"entrylist/internal/runner"
	"entrylist/internal/telemetry"

	"github.com/ory/graceful"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// WebServer is the CLI command that starts the web API server.
var WebServer = &cli.Command{
	Name:    "serve",
	Aliases: []string{"s"},
	Usage:   "Start web API server",
	Action:  serve,
}

func serve(c *cli.Context) (err error) {
	cfg := config.GetConfig()

	shutdown, err := telemetry.Init(c.Context, cfg.Telemetry, c.App.Version)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize telemetry")
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	reg, env, err := openEnv(c, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	if env.Runner, err = runner.InitializeRunner(); err != nil {
		log.Error().Err(err).Msg("Failed to initialize scheduler runner")
		return err
	}
	defer runner.ShutdownRunner(context.Background())

	scheduleRefreshes(cfg, env.Runner, func(ctx context.Context, name string) error {
		_, err := reg.RefreshLists(ctx, env, name, site.User{})
		return err
	})

	svcs, err := web.NewServices(reg, env)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize services")
		return err
	}

	app, err := web.NewApplication(&cfg.Server, svcs)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create web application")
		return err
	}
	defer app.Wait()

	server := graceful.WithDefaults(app.Echo.Server)
	log.Info().Str("url", cfg.Server.GetServerURL()).Msgf("Starting server on %s", server.Addr)

	if err = graceful.Graceful(server.ListenAndServe, server.Shutdown); err != nil {
		log.Error().Err(err).Msg("Failed to start server")
		return err
	}

	log.Info().Msg("Server stopped gracefully.")
	return nil
}

// scheduleRefreshes registers one cron job per configured site. Sites with a
// bad schedule are logged and skipped.
func scheduleRefreshes(cfg *config.Config, r *runner.Runner, refresh func(ctx context.Context, name string) error) {
	for name, schedule := range cfg.Refresh.Schedules {
		err := r.Cron("refresh:"+name, schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*cfg.Refresh.Timeout)
			defer cancel()
			if err := refresh(ctx, name); err != nil {
				log.Error().Err(err).Str("site", name).Msg("Scheduled refresh failed")
			}
		})
		if err != nil {
			log.Error().Err(err).Str("site", name).Str("schedule", schedule).Msg("Could not schedule refresh")
			continue
		}
		log.Info().Str("site", name).Str("schedule", schedule).Msg("Refresh scheduled")
	}
}
