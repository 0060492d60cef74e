package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"artiq/cli/internal/config"
	"artiq/cli/internal/global"
	"artiq/cli/internal/historydb"
	"artiq/cli/internal/plan"
)

// AccountStore is the accounts file the accounts subcommands edit.
type AccountStore interface {
	Path() string
	Load() (global.AccountsFile, error)
	Add(name, token string) error
	Use(name string) error
	Remove(name string) error
}

type Deps struct {
	LoadConfig   func() config.Config
	RunServe     func(context.Context, config.Config) error
	RunPlan      func(context.Context, config.Config, plan.Plan) error
	ListHistory  func(context.Context, config.Config, string, int) ([]historydb.Entry, error)
	RunMigrateUp func(context.Context, config.Config) error
	Accounts     func() (AccountStore, error)
}

func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:  "artiq",
		Usage: "cooldown-aware action scheduler for ArtifactsMMO characters",
		Action: func(ctx *cli.Context) error {
			return runServe(ctx.Context, deps, loadConfig(deps))
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the local scheduler API",
				Action: func(ctx *cli.Context) error {
					return runServe(ctx.Context, deps, loadConfig(deps))
				},
			},
			{
				Name:      "run",
				Usage:     "run a plan file for one character until its queue drains",
				ArgsUsage: "[character]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "plan", Aliases: []string{"p"}, Usage: "YAML plan file", Required: true},
				},
				Action: func(ctx *cli.Context) error {
					return runPlan(ctx, deps)
				},
			},
			{
				Name:      "history",
				Usage:     "print recent actions of a character",
				ArgsUsage: "<character>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20},
				},
				Action: func(ctx *cli.Context) error {
					return printHistory(ctx, deps)
				},
			},
			accountsCommand(deps),
			{
				Name:  "migrate",
				Usage: "run database migration",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "apply pending migrations",
						Action: func(ctx *cli.Context) error {
							if deps.RunMigrateUp == nil {
								return errors.New("migrate up runner is not configured")
							}
							return deps.RunMigrateUp(ctx.Context, loadConfig(deps))
						},
					},
				},
			},
		},
	}
}

func loadConfig(deps Deps) config.Config {
	if deps.LoadConfig != nil {
		return deps.LoadConfig()
	}
	return config.LoadConfig()
}

func runServe(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunServe == nil {
		return errors.New("serve runner is not configured")
	}
	return deps.RunServe(ctx, cfg)
}

func runPlan(ctx *cli.Context, deps Deps) error {
	if deps.RunPlan == nil {
		return errors.New("plan runner is not configured")
	}
	p, err := plan.Load(ctx.String("plan"))
	if err != nil {
		return err
	}
	if name := strings.TrimSpace(ctx.Args().First()); name != "" {
		p.Character = name
	}
	if p.Character == "" {
		return errors.New("character is required: pass it as argument or set it in the plan")
	}
	return deps.RunPlan(ctx.Context, loadConfig(deps), p)
}

func printHistory(ctx *cli.Context, deps Deps) error {
	if deps.ListHistory == nil {
		return errors.New("history reader is not configured")
	}
	character := strings.TrimSpace(ctx.Args().First())
	if character == "" {
		return errors.New("character is required")
	}
	entries, err := deps.ListHistory(ctx.Context, loadConfig(deps), character, ctx.Int("limit"))
	if err != nil {
		return err
	}
	return writeHistory(ctx.App.Writer, entries)
}

func writeHistory(w io.Writer, entries []historydb.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tOUTCOME\tCOOLDOWN\tLABEL\tDETAIL")
	for _, e := range entries {
		detail := e.Error
		if detail == "" {
			detail = e.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%ds\t%s\t%s\n",
			e.FinishedAt.Local().Format(time.DateTime), e.Outcome, e.CooldownSeconds, e.Label, detail)
	}
	return tw.Flush()
}

func accountsCommand(deps Deps) *cli.Command {
	open := func() (AccountStore, error) {
		if deps.Accounts == nil {
			return nil, errors.New("accounts store is not configured")
		}
		return deps.Accounts()
	}
	return &cli.Command{
		Name:  "accounts",
		Usage: "manage API tokens",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "store a token under a name",
				ArgsUsage: "<name> <token>",
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 2 {
						return errors.New("usage: artiq accounts add <name> <token>")
					}
					store, err := open()
					if err != nil {
						return err
					}
					return store.Add(ctx.Args().Get(0), ctx.Args().Get(1))
				},
			},
			{
				Name:  "list",
				Usage: "list stored accounts",
				Action: func(ctx *cli.Context) error {
					store, err := open()
					if err != nil {
						return err
					}
					f, err := store.Load()
					if err != nil {
						return err
					}
					for _, a := range f.Accounts {
						marker := " "
						if a.Name == f.Default {
							marker = "*"
						}
						fmt.Fprintf(ctx.App.Writer, "%s %s\n", marker, a.Name)
					}
					return nil
				},
			},
			{
				Name:      "use",
				Usage:     "make an account the default",
				ArgsUsage: "<name>",
				Action: func(ctx *cli.Context) error {
					store, err := open()
					if err != nil {
						return err
					}
					return store.Use(ctx.Args().First())
				},
			},
			{
				Name:      "remove",
				Usage:     "delete a stored account",
				ArgsUsage: "<name>",
				Action: func(ctx *cli.Context) error {
					store, err := open()
					if err != nil {
						return err
					}
					return store.Remove(ctx.Args().First())
				},
			},
		},
	}
}
