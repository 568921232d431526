package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/t77yq/cronmgr/internal/config"
	"github.com/t77yq/cronmgr/internal/crontab"
	"github.com/t77yq/cronmgr/internal/inspect"
	"github.com/t77yq/cronmgr/internal/manager"
	"github.com/t77yq/cronmgr/internal/service"
	"github.com/t77yq/cronmgr/internal/storage"
	"github.com/t77yq/cronmgr/internal/store"
)

// app holds what every subcommand shares: configuration, the logger and the
// resources opened for the current invocation.
type app struct {
	configFile string
	cfg        *config.Config
	logger     *zap.Logger
	closers    []func() error
}

func (a *app) init() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// run releases the resources opened by fn once it returns
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
	a.closers = nil
	if a.logger != nil {
		a.logger.Sync()
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}

func (a *app) parser() *crontab.Parser {
	return crontab.NewParser(crontab.ParseOptions{
		LenientLeadingDigits: a.cfg.Parser.LenientLeadingDigits,
	})
}

func (a *app) openStore() (store.TableStore, error) {
	sc := a.cfg.Store
	switch sc.Driver {
	case config.DriverCommand:
		return store.NewCommandStore(store.CommandConfig{
			Binary:  sc.Binary,
			User:    sc.User,
			Timeout: sc.Timeout,
		}, a.logger), nil
	case config.DriverFile:
		return store.NewFileStore(sc.Path, a.logger), nil
	case config.DriverDocker:
		docker, err := store.NewDockerClient()
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, docker.Close)
		return store.NewContainerStore(docker, store.ContainerConfig{
			Container: sc.Container,
			Binary:    sc.Binary,
			User:      sc.User,
			Timeout:   sc.Timeout,
		}, a.logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownDriver, sc.Driver)
	}
}

// openHistory returns nil when history is disabled
func (a *app) openHistory() (storage.TableHistoryStorage, error) {
	if !a.cfg.History.Enabled {
		return nil, nil
	}
	history, err := storage.NewSQLiteTableHistory(a.logger, a.cfg.History.Path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, history.Close)
	return history, nil
}

func (a *app) connectEvents(ctx context.Context) (*service.NATSPublisher, error) {
	publisher, err := service.ConnectNATS(ctx, service.NATSConfig{
		URL:           a.cfg.Events.URL,
		SubjectPrefix: a.cfg.Events.SubjectPrefix,
		Stream:        a.cfg.Events.Stream,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)
	return publisher, nil
}

func (a *app) openEvents(ctx context.Context) (service.EventPublisher, error) {
	if !a.cfg.Events.Enabled {
		return service.NopPublisher{}, nil
	}
	return a.connectEvents(ctx)
}

// loadManager wires a manager from the configuration and loads the table
func (a *app) loadManager(ctx context.Context) (*manager.Manager, error) {
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	history, err := a.openHistory()
	if err != nil {
		return nil, err
	}
	events, err := a.openEvents(ctx)
	if err != nil {
		return nil, err
	}

	m := manager.New(st, a.logger, manager.Options{
		Parser:    a.parser(),
		Inspector: inspect.NewInspector(a.logger),
		History:   history,
		Events:    events,
	})
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}
