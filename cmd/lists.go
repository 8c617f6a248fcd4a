package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"entrylist/features/engine"
	"entrylist/features/entry"
	"entrylist/features/lists"
	"entrylist/features/sites"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

// ListsCommand inspects and edits the stored lists.
var ListsCommand = &cli.Command{
	Name:    "lists",
	Aliases: []string{"l"},
	Usage:   "Inspect and edit stored lists",
	Flags:   userFlags,
	Subcommands: []*cli.Command{
		{
			Name:   "ls",
			Usage:  "Print the list names of a user",
			Action: listNames,
		},
		{
			Name:      "show",
			Usage:     "Print a list as JSON",
			ArgsUsage: "<list>",
			Action:    showList,
		},
		{
			Name:      "rm",
			Usage:     "Remove a list",
			ArgsUsage: "<list>",
			Action:    removeList,
		},
		{
			Name:   "clear",
			Usage:  "Remove every list of a user",
			Action: clearLists,
		},
		{
			Name:      "toggle",
			Usage:     "Add an entry to a list, or remove it when present",
			ArgsUsage: "<list>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Usage: "Entry id.", Required: true},
				&cli.StringFlag{Name: "name", Usage: "Entry display name."},
			},
			Action: toggleEntry,
		},
	},
}

// listOwner resolves the site and user flags of the parent command.
func listOwner(c *cli.Context) (*lists.Store, lists.Owner, error) {
	reg, env, err := openEnv(c, nil)
	if err != nil {
		return nil, lists.Owner{}, err
	}

	def, ok := reg.Get(c.String("site"))
	if !ok {
		return nil, lists.Owner{}, fmt.Errorf("%w: %s", sites.ErrUnknownSite, c.String("site"))
	}

	user := c.String("user")
	if user == "" {
		name, _, ok := env.Store.LastUser(c.Context, def.Name)
		if !ok {
			return nil, lists.Owner{}, engine.ErrNoUser
		}
		user = name
	}
	return env.Store, lists.Owner{Site: def.Name, User: user}, nil
}

func listArg(c *cli.Context) (string, error) {
	name := c.Args().First()
	if name == "" {
		return "", fmt.Errorf("a list name is required")
	}
	return name, nil
}

func listNames(c *cli.Context) error {
	store, o, err := listOwner(c)
	if err != nil {
		return err
	}

	all := store.LoadAll(c.Context, o)
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Printf("%s / %s\n", color.CyanString(o.Site), color.CyanString(o.User))
	for _, name := range names {
		fmt.Printf("  %s %s\n", color.YellowString(name), color.HiBlackString("(%d)", len(all[name])))
	}
	return nil
}

func showList(c *cli.Context) error {
	name, err := listArg(c)
	if err != nil {
		return err
	}
	store, o, err := listOwner(c)
	if err != nil {
		return err
	}

	l, ok := store.Load(c.Context, o, name)
	if !ok {
		return fmt.Errorf("list %q not found for %s/%s", name, o.Site, o.User)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

func removeList(c *cli.Context) error {
	name, err := listArg(c)
	if err != nil {
		return err
	}
	store, o, err := listOwner(c)
	if err != nil {
		return err
	}
	return store.Delete(c.Context, o, name)
}

func clearLists(c *cli.Context) error {
	store, o, err := listOwner(c)
	if err != nil {
		return err
	}
	return store.DeleteAll(c.Context, o)
}

func toggleEntry(c *cli.Context) error {
	name, err := listArg(c)
	if err != nil {
		return err
	}
	store, o, err := listOwner(c)
	if err != nil {
		return err
	}

	added, err := engine.ToggleData(c.Context, store, o, entry.Data{ID: c.String("id"), Name: c.String("name")}, name)
	if err != nil {
		return err
	}
	if added {
		fmt.Println(color.GreenString("Added %s to %s", c.String("id"), name))
	} else {
		fmt.Println(color.YellowString("Removed %s from %s", c.String("id"), name))
	}
	return nil
}
