package main

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
	"github.com/trezcool/kozi/storage"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	store  *storage.Store
	out    io.Writer

	curriculum *curriculum.Service
	courses    *course.Service
}

func newCommandLine(conf *core.Config, logger core.Logger, store *storage.Store) *commandLine {
	return &commandLine{
		conf:       conf,
		logger:     logger,
		store:      store,
		out:        os.Stdout,
		curriculum: curriculum.NewService(store.Curriculum, store.Tx),
		// no reservation notices from the admin tool
		courses: course.NewService(store.Courses, store.Curriculum, store.Tx, nil),
	}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         cli.conf.AppName + " administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.AddCommand(cli.migrateCmd(), cli.seedCmd(), cli.copyCmd())
	return root
}

func (cli *commandLine) run(args []string) error {
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}
