package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/services/logger"
	"github.com/trezcool/kozi/storage"
)

func main() {
	if err := run(); err != nil {
		if err != errHelp {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run() error {
	conf, err := core.NewConfig()
	if err != nil {
		return err
	}
	logger, err := logsvc.New(conf)
	if err != nil {
		return err
	}

	// the admin tool manages the schema itself: never migrate on open
	store, err := storage.Open(context.Background(), conf, logger, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cli := newCommandLine(conf, logger, store)
	return cli.run(os.Args[1:])
}
