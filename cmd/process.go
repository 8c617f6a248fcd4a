package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"entrylist/features/dom"
	"entrylist/features/site"
	"entrylist/features/sites"
	"entrylist/internal/runner"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// ProcessCommand annotates a saved page with the lists of its site.
var ProcessCommand = &cli.Command{
	Name:      "process",
	Aliases:   []string{"p"},
	Usage:     "Annotate the entries of a saved HTML page",
	ArgsUsage: "<file.html>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "url",
			Aliases:  []string{"u"},
			Usage:    "URL the page was saved from.",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "site",
			Aliases: []string{"s"},
			Usage:   "Site to process the page as. By default it is chosen by URL.",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the annotated page here instead of stdout.",
		},
		&cli.BoolFlag{
			Name:    "follow",
			Aliases: []string{"f"},
			Usage:   "Keep polling and re-process the file whenever it changes.",
		},
	},
	Action: processPage,
}

func processPage(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a page file is required")
	}

	reg, env, err := openEnv(c, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	fp, err := dom.OpenFile(path, c.String("url"))
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}

	follow := c.Bool("follow")
	opts := []sites.SessionOption{sites.Follow(follow)}
	if name := c.String("site"); name != "" {
		opts = append(opts, sites.AsSite(name))
	}
	if follow {
		if env.Runner, err = runner.InitializeRunner(); err != nil {
			return err
		}
		defer runner.ShutdownRunner(context.Background())
	}

	s, err := reg.Open(c.Context, env, fp.Page, opts...)
	if err != nil {
		return fmt.Errorf("failed to process page: %w", err)
	}
	defer s.Close(context.Background())

	out := c.String("output")
	if err := writePage(fp.Page, out); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("file", path).Str("site", s.Def.Name).Msg("Following page, press Ctrl+C to stop")
	return fp.Watch(ctx, func() {
		var changed bool
		err := s.Engine.Exclusive(func(*site.Context, []*site.Context) error {
			var err error
			changed, err = fp.Reload()
			return err
		})
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Could not reload page")
			return
		}
		if !changed {
			return
		}
		if err := s.Engine.ProcessAll(ctx); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Could not process page")
			return
		}
		err = s.Engine.Exclusive(func(*site.Context, []*site.Context) error {
			return writePage(fp.Page, out)
		})
		if err != nil {
			log.Warn().Err(err).Msg("Could not write page")
		}
	})
}

func writePage(p *dom.Page, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return p.Render(w)
}
