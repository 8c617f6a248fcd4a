package cmd

import (
	"fmt"
	"os"

	"entrylist/features/site"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var userFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "site",
		Aliases: []string{"s"},
		Usage:   "Site whose lists are used.",
		Value:   "IMDb",
	},
	&cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "User owning the lists. By default the last user seen on the site.",
	},
}

// RefreshCommand downloads the lists of a source site.
var RefreshCommand = &cli.Command{
	Name:    "refresh",
	Aliases: []string{"r"},
	Usage:   "Download the lists of a user from a source site",
	Flags: append(userFlags[:len(userFlags):len(userFlags)],
		&cli.StringFlag{
			Name:  "payload",
			Usage: "Site specific user id, such as the IMDb ur id.",
		},
		&cli.BoolFlag{
			Name:  "clear",
			Usage: "Remove the downloaded lists instead.",
		},
	),
	Action: refreshLists,
}

func refreshLists(c *cli.Context) error {
	reg, env, err := openEnv(c, os.Stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	name := c.String("site")
	u := site.User{Name: c.String("user"), Payload: c.String("payload")}

	if c.Bool("clear") {
		if err := reg.ClearLists(c.Context, env, name, u); err != nil {
			return fmt.Errorf("failed to clear lists: %w", err)
		}
		fmt.Println(color.GreenString("Lists cleared."))
		return nil
	}

	rep, err := reg.RefreshLists(c.Context, env, name, u)
	if rep != nil {
		log.Info().Str("site", rep.Site).Str("user", rep.User).Dur("duration", rep.Duration).Msg("Refresh finished")
		if err != nil {
			fmt.Println(color.RedString(rep.Summary))
		} else {
			fmt.Println(color.GreenString(rep.Summary))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to refresh lists: %w", err)
	}
	return nil
}
