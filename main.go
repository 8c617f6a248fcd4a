package main

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	stdlog "log"

	"entrylist/cmd"
	"entrylist/features/sites"
	"entrylist/features/storage"
	"entrylist/internal/collector"
	"entrylist/internal/config"
	"entrylist/internal/logger"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		stdlog.Fatalf("error running the app: %v", err)
	}
}

func app() *cli.App {
	helpName := color.YellowString(filepath.Base(os.Args[0]))
	year := strconv.Itoa(time.Now().UTC().Year())

	app := &cli.App{
		Usage:       "Entry list annotator",
		HelpName:    helpName,
		Version:     "v0.1.0",
		Compiled:    time.Now().UTC(),
		Copyright:   "© " + year + " RUNAHO",
		Description: "Marks the entries of streaming catalog pages with the lists they belong to.",
		Commands:    cmd.Commands,
		Before:      before,
		After:       after,
	}

	app.Suggest = true
	return app
}

func before(c *cli.Context) error {
	stdlog.Print("Initializing application configuration")
	if err := config.InitConfig(); err != nil {
		stdlog.Printf("error loading config: %v", err)
		return err
	}

	logger.InitializeLogger()

	log.Info().Msg("Opening list store")
	if _, err := storage.GetStore(c.Context); err != nil {
		log.Error().Err(err).Msg("Failed to open list store")
		return err
	}

	collector.NewMetricsCollector(sites.Default(config.GetConfig().Sites).Names())
	return nil
}

func after(c *cli.Context) error {
	storage.Close()
	return nil
}
