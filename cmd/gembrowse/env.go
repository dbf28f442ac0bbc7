package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gembrowse/internal/browser"
	"gembrowse/internal/client"
	"gembrowse/internal/config"
	"gembrowse/internal/diagnostics"
	"gembrowse/internal/gci"
	"gembrowse/internal/logging"
	"gembrowse/internal/query"
	"gembrowse/internal/session"
	"gembrowse/internal/store"
)

// browserEnv is everything a command needs to talk to the image: the session
// registry, the query service and the tree over both.
type browserEnv struct {
	sessions       *session.Registry
	service        *query.Service
	tree           *browser.Tree
	logger         logging.Logger
	gatewayVersion string
	closers        []func() error
}

func (e *browserEnv) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// pick selects session id, or the first listed session when id is 0.
func (e *browserEnv) pick(id int) (session.Entry, gci.Session, error) {
	if id == 0 {
		entries := e.sessions.List()
		if len(entries) == 0 {
			return session.Entry{}, nil, errors.New("no sessions available")
		}
		id = entries[0].ID
	}
	if err := e.sessions.Select(id); err != nil {
		return session.Entry{}, nil, err
	}
	entry, ok := e.sessions.Lookup(id)
	if !ok {
		return session.Entry{}, nil, fmt.Errorf("unknown session %d", id)
	}
	return entry, entry.Handle, nil
}

func newGatewayEnv(ctx context.Context, stderr io.Writer) (*browserEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	configPath, err := config.ConfigPath()
	if err != nil {
		return nil, err
	}

	env := &browserEnv{}
	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return nil, err
	}
	env.logger = logger
	env.closers = append(env.closers, closeLog)

	var journal store.Journal
	if cfg.JournalEnabled() {
		path, err := config.JournalPath()
		if err == nil {
			var j *store.BboltJournal
			j, err = store.NewBboltJournal(path, cfg.JournalLimit())
			if err == nil {
				journal = j
				env.closers = append(env.closers, j.Close)
			}
		}
		if err != nil {
			logger.Warn("journal_unavailable", logging.F("error", err))
		}
	}

	sink := diagnostics.NewSink(logger, journal, diagnostics.Options{StoreBodies: cfg.Logging.LogBodies})
	exec := query.NewExecutor(sink)
	env.service = query.NewService(exec, sink, logger)

	gateway, err := client.New(cfg)
	if err != nil {
		_ = env.Close()
		return nil, err
	}
	health, err := gateway.Health(ctx)
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("gateway %s unreachable: %w", cfg.GatewayAddress(), err)
	}
	env.gatewayVersion = health.Version
	infos, err := gateway.ListSessions(ctx)
	if err != nil {
		_ = env.Close()
		return nil, err
	}

	env.sessions = session.NewRegistry()
	env.sessions.OnRemove(func(entry session.Entry) {
		exec.Forget(entry.Handle)
	})
	for _, info := range infos {
		if err := env.sessions.Put(session.Entry{
			ID:          info.ID,
			Description: describeSession(info),
			Handle:      gateway.Session(info.ID),
		}); err != nil {
			logger.Warn("session_skipped", logging.F("session", info.ID), logging.F("error", err))
		}
	}

	env.tree = browser.NewTree(env.sessions, env.service, browser.TreeOptions{
		Settings: config.NewLiveSettings(configPath),
		Notifier: warningNotifier(stderr),
		Logger:   logger,
	})
	return env, nil
}

func describeSession(info client.SessionInfo) string {
	if info.Description != "" {
		return info.Description
	}
	if info.User != "" && info.Stone != "" {
		return info.User + " on " + info.Stone
	}
	return info.User
}

func openLogger(cfg config.Config) (logging.Logger, func() error, error) {
	path, err := config.LogPath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewWithOptions(file, logging.Options{
		Level:     logging.ParseLevel(cfg.LogLevel()),
		LogBodies: cfg.Logging.LogBodies,
	})
	return logger, file.Close, nil
}

// warningNotifier reports expansions that degraded to an empty list.
func warningNotifier(stderr io.Writer) browser.Notifier {
	return browser.NotifierFunc(func(node browser.Node, err error) {
		fmt.Fprintf(stderr, "warning: %s: %v\n", node.Label(), err)
	})
}

func openConfiguredJournal() (store.Journal, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.JournalEnabled() {
		return nil, errors.New("journal is disabled in config")
	}
	path, err := config.JournalPath()
	if err != nil {
		return nil, err
	}
	return store.NewBboltJournal(path, cfg.JournalLimit())
}
