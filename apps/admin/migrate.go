package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/storage/database"
)

var (
	gooseRunFunc = database.RunMigrations // mockable

	errNoMigrations = errors.New("migrations only apply to the postgres engine")
)

func (cli *commandLine) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, down, status, version, redo...) over the embedded migrations",
		// goose arguments are passed through untouched
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return errHelp
			}
			if cli.conf.Database.Engine == core.EngineMemory {
				return errNoMigrations
			}
			return gooseRunFunc(cli.db, args[0], args[1:]...)
		},
	}
}
