package cmd

import (
	"context"
	"testing"
	"time"

	"entrylist/internal/config"
	"entrylist/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRefreshes(t *testing.T) {
	cfg := config.Default()
	cfg.Refresh.Schedules = map[string]string{
		"IMDb":    "0 0 4 * * *",
		"YouTube": "whenever",
	}

	r, err := runner.NewRunner()
	require.NoError(t, err)
	r.Start()
	t.Cleanup(func() { _ = r.Stop(context.Background()) })

	ran := make(chan string, 1)
	scheduleRefreshes(cfg, r, func(_ context.Context, name string) error {
		ran <- name
		return nil
	})

	assert.Equal(t, []string{"refresh:IMDb"}, r.Names())

	require.NoError(t, r.RunNow("refresh:IMDb"))
	select {
	case name := <-ran:
		assert.Equal(t, "IMDb", name)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled refresh did not run")
	}
}

func TestCommandNames(t *testing.T) {
	var names []string
	for _, c := range Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"process", "refresh", "lists", "serve"}, names)

	var subs []string
	for _, c := range ListsCommand.Subcommands {
		subs = append(subs, c.Name)
	}
	assert.Equal(t, []string{"ls", "show", "rm", "clear", "toggle"}, subs)
}
