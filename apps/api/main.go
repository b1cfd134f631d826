package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/kozi/apps/api/echo"
	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
	"github.com/trezcool/kozi/services/email"
	"github.com/trezcool/kozi/services/logger"
	"github.com/trezcool/kozi/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		return err
	}

	logger, err := logsvc.New(conf)
	if err != nil {
		return err
	}
	if c, ok := logger.(interface{ Close() }); ok {
		defer c.Close()
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, conf, logger, true)
	if err != nil {
		return errors.Wrap(err, "setting up database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	mailer := emailsvc.New(conf, logger)
	var notifier *course.Notifier
	if conf.Email.NotifyVenues {
		notifier = course.NewNotifier(mailer, conf, logger)
	}
	curriculumSvc := curriculum.NewService(store.Curriculum, store.Tx)
	courseSvc := course.NewService(store.Courses, store.Curriculum, store.Tx, notifier)

	// =========================================================================
	// Initialize App

	logger.Info("application initializing", "version", conf.Build, "backend", conf.Database.Backend)
	defer logger.Info("application stopped")

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	if err = core.ParseEmailTemplates(logger); err != nil {
		return err
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	if conf.Server.DebugAddress != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				logger.Error("debug server closed", "error", err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	signalShutdown := func() {
		select {
		case shutdown <- syscall.SIGTERM:
		default:
		}
	}

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address,
		AppName:        conf.AppName,
		Debug:          conf.Debug,
		SignalShutdown: signalShutdown,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Curriculum:     curriculumSvc,
		Courses:        courseSvc,
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API listening", "address", conf.Server.Address)
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		return errors.Wrap(err, "server error")

	case sig := <-shutdown:
		logger.Info("start shutdown", "signal", sig.String())

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}
