package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"gembrowse/internal/gci"
	"gembrowse/internal/query"
)

type searchFunc func(s *query.Service, ctx context.Context, sess gci.Session, term string) (query.MethodList, error)

var searchKinds = map[string]searchFunc{
	"implementors": (*query.Service).Implementors,
	"senders":      (*query.Service).Senders,
	"references":   (*query.Service).References,
	"text":         (*query.Service).MethodsContaining,
}

type SearchCommand struct {
	stdout io.Writer
	stderr io.Writer
	newEnv envFactory
}

func NewSearchCommand(stdout, stderr io.Writer, newEnv envFactory) *SearchCommand {
	return &SearchCommand{
		stdout: stdout,
		stderr: stderr,
		newEnv: newEnv,
	}
}

func (c *SearchCommand) Run(args []string) error {
	if len(args) == 0 {
		return errors.New("expected implementors|senders|references|text")
	}
	search, ok := searchKinds[args[0]]
	if !ok {
		return fmt.Errorf("unknown search %q: must be implementors, senders, references, or text", args[0])
	}
	fs := flag.NewFlagSet("search "+args[0], flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	sessionID := fs.Int("session", 0, "session id (default: first session)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), "term"); err != nil {
		return err
	}
	term := fs.Arg(0)

	return withEnv(c.newEnv, func(ctx context.Context, env *browserEnv) error {
		_, sess, err := env.pick(*sessionID)
		if err != nil {
			return err
		}
		list, err := search(env.service, ctx, sess, term)
		if err != nil {
			return err
		}
		printMethods(c.stdout, list.Methods)
		if list.Truncated {
			fmt.Fprintf(c.stderr, "showing %d of %d methods\n", len(list.Methods), list.Total)
		}
		return nil
	})
}

type HierarchyCommand struct {
	stdout io.Writer
	stderr io.Writer
	newEnv envFactory
}

func NewHierarchyCommand(stdout, stderr io.Writer, newEnv envFactory) *HierarchyCommand {
	return &HierarchyCommand{
		stdout: stdout,
		stderr: stderr,
		newEnv: newEnv,
	}
}

func (c *HierarchyCommand) Run(args []string) error {
	fs := flag.NewFlagSet("hierarchy", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	sessionID := fs.Int("session", 0, "session id (default: first session)")
	dictIndex := fs.Int("dict", 0, "dictionary index holding the class (default: search all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), "class"); err != nil {
		return err
	}
	className := fs.Arg(0)

	return withEnv(c.newEnv, func(ctx context.Context, env *browserEnv) error {
		_, sess, err := env.pick(*sessionID)
		if err != nil {
			return err
		}
		index := *dictIndex
		if index == 0 {
			refs, err := env.service.FindClass(ctx, sess, className)
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				return fmt.Errorf("class %s not found", className)
			}
			index = refs[0].Index
		}
		entries, err := env.service.ClassHierarchy(ctx, sess, index, className)
		if err != nil {
			return err
		}
		printHierarchy(c.stdout, entries)
		return nil
	})
}

// printHierarchy indents one level per superclass; subclasses sit one level
// below the target.
func printHierarchy(out io.Writer, entries []query.HierarchyEntry) {
	level := 0
	targetLevel := 0
	for _, entry := range entries {
		indent := level
		marker := ""
		switch entry.Kind {
		case query.HierarchySuperclass:
			level++
		case query.HierarchyTarget:
			targetLevel = level
			marker = " *"
		case query.HierarchySubclass:
			indent = targetLevel + 1
		}
		fmt.Fprintf(out, "%s%s (%s)%s\n", strings.Repeat("  ", indent), entry.ClassName, entry.Dictionary, marker)
	}
}
