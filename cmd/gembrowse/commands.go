package main

import (
	"context"
	"io"
	"os"

	"gembrowse/internal/clipboard"
	"gembrowse/internal/store"
)

type commandRunner interface {
	Run(args []string) error
}

type envFactory func(ctx context.Context) (*browserEnv, error)

type journalOpener func() (store.Journal, error)

type copyFunc func(ctx context.Context, text string) (clipboard.Method, error)

type commandWiring struct {
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	newEnv      envFactory
	openJournal journalOpener
	copyText    copyFunc
	version     string
}

func defaultCommandWiring(stdin io.Reader, stdout, stderr io.Writer) commandWiring {
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		newEnv: func(ctx context.Context) (*browserEnv, error) {
			return newGatewayEnv(ctx, stderr)
		},
		openJournal: openConfiguredJournal,
		copyText:    clipboard.Copy,
		version:     buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"sessions":  NewSessionsCommand(wiring.stdout, wiring.stderr, wiring.newEnv),
		"tree":      NewTreeCommand(wiring.stdout, wiring.stderr, wiring.newEnv),
		"show":      NewShowCommand(wiring.stdout, wiring.stderr, wiring.newEnv, wiring.copyText),
		"search":    NewSearchCommand(wiring.stdout, wiring.stderr, wiring.newEnv),
		"hierarchy": NewHierarchyCommand(wiring.stdout, wiring.stderr, wiring.newEnv),
		"compile":   NewCompileCommand(wiring.stdin, wiring.stdout, wiring.stderr, wiring.newEnv),
		"method":    newMethodCommand(wiring),
		"category":  newCategoryCommand(wiring),
		"class":     newClassCommand(wiring),
		"dict":      newDictCommand(wiring),
		"commit":    newCommitCommand(wiring),
		"abort":     newAbortCommand(wiring),
		"journal":   NewJournalCommand(wiring.stdout, wiring.stderr, wiring.openJournal),
		"config":    NewConfigCommand(wiring.stdout, wiring.stderr),
		"version":   NewVersionCommand(wiring.stdout, wiring.version),
	}
}
