package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/kozi/storage/database"
)

var (
	defaultGooseRun = database.RunGoose
	gooseRunFunc    = defaultGooseRun // mockable

	errNoSQLDatabase = errors.New("migrations only apply to a PostgreSQL database")
)

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run a goose command over the embedded migrations",
		Long: `Run a goose command over the embedded migrations.

Commands: up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version, fix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return errHelp
			}
			if cli.store.SQL == nil {
				return errNoSQLDatabase
			}
			return gooseRunFunc(cmd.Context(), cli.store.SQL, cli.logger, args[0], args[1:]...)
		},
	}
}
