package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/config"
	"github.com/atinyakov/go-shortlinks/internal/logger"
	"github.com/atinyakov/go-shortlinks/internal/repository"
)

var errNoDSN = errors.New("database dsn is required, set -d or DATABASE_DSN")

// cli is the state shared by the subcommands of one invocation.
type cli struct {
	options *config.Options
	logger  *logger.Logger
	db      *sql.DB
	links   *service.LinkStore
}

// rootFlags maps persistent flags onto the server's short flag names so
// the same precedence rules apply.
var rootFlags = map[string]string{
	"config":      "c",
	"dsn":         "d",
	"base-url":    "b",
	"secret":      "k",
	"code-length": "l",
	"log-level":   "v",
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: logger.New()}

	root := &cobra.Command{
		Use:          "shortlinksctl",
		Short:        "Manage short links",
		Long:         "shortlinksctl creates, lists and deletes short links and issues admin console tokens.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadOptions(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to json config file")
	pf.StringP("dsn", "d", "", "database dsn: postgres://, file:*.db, libsql://")
	pf.StringP("base-url", "b", "", "base url short links are printed with")
	pf.StringP("secret", "k", "", "admin token signing secret")
	pf.Int("code-length", 0, "generated short code length")
	pf.String("log-level", "warn", "log level")

	root.AddCommand(
		newCreateCmd(c),
		newListCmd(c),
		newDeleteCmd(c),
		newTokenCmd(c),
		newMigrateCmd(c),
	)

	return root
}

func (c *cli) loadOptions(cmd *cobra.Command) error {
	args := []string{"-v", "warn"}
	for name, short := range rootFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		args = append(args, "-"+short, f.Value.String())
	}

	options, err := config.Parse(args)
	if err != nil {
		return err
	}
	c.options = options

	return c.logger.Init(options.LogLevel)
}

// linkStore opens the database on first use.
func (c *cli) linkStore(ctx context.Context) (*service.LinkStore, error) {
	if c.links != nil {
		return c.links, nil
	}
	if c.options.DatabaseDSN == "" {
		return nil, errNoDSN
	}

	db, dialect, err := repository.InitDB(ctx, c.options.DatabaseDSN, c.logger.Log)
	if err != nil {
		return nil, err
	}
	c.db = db

	repo := repository.CreateLinkRepository(db, dialect, c.logger.Named("repository"))
	c.links = service.NewLinkStore(repo, service.NewCodeGenerator(c.options.CodeLength), c.logger.Named("links"))
	return c.links, nil
}

func (c *cli) close() {
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Log.Warn("Cannot close database", zap.Error(err))
		}
		c.db = nil
		c.links = nil
	}
	_ = c.logger.Sync()
}
