package cmd

import (
	"io"

	"entrylist/features/lists"
	"entrylist/features/sites"
	"entrylist/features/storage"
	"entrylist/internal/collector"
	"entrylist/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// openEnv builds the site registry and the shared session environment from the
// global config. progress receives refresh progress lines and may be nil.
func openEnv(c *cli.Context, progress io.Writer) (*sites.Registry, *sites.Env, error) {
	cfg := config.GetConfig()

	kv, err := storage.GetStore(c.Context)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open store")
		return nil, nil, err
	}

	reg := sites.Default(cfg.Sites)
	mc, err := collector.GetMetricsCollector()
	if err != nil {
		log.Debug().Err(err).Msg("Running without metrics")
	}

	return reg, sites.NewEnv(cfg, lists.NewStore(kv), mc, progress), nil
}
