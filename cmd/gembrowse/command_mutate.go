package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"gembrowse/internal/gci"
	"gembrowse/internal/query"
)

// mutationTarget is what a mutation action gets after flag parsing.
type mutationTarget struct {
	service   *query.Service
	session   gci.Session
	dictIndex int
	isMeta    bool
	env       int
	args      []string
	stdin     io.Reader
}

type mutationAction struct {
	args []string
	run  func(ctx context.Context, t mutationTarget) error
}

// MutationCommand runs one of a group of actions that change the image,
// then drops the browse cache.
type MutationCommand struct {
	name    string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	newEnv  envFactory
	actions map[string]mutationAction
}

func newMutationCommand(name string, wiring commandWiring, actions map[string]mutationAction) *MutationCommand {
	return &MutationCommand{
		name:    name,
		stdin:   wiring.stdin,
		stdout:  wiring.stdout,
		stderr:  wiring.stderr,
		newEnv:  wiring.newEnv,
		actions: actions,
	}
}

func (c *MutationCommand) actionNames() string {
	names := make([]string, 0, len(c.actions))
	for name := range c.actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, "|")
}

func (c *MutationCommand) Run(args []string) error {
	label := c.name
	action, single := c.actions[""]
	if !single {
		if len(args) == 0 {
			return fmt.Errorf("expected %s", c.actionNames())
		}
		var ok bool
		action, ok = c.actions[args[0]]
		if !ok {
			return fmt.Errorf("unknown action %q: expected %s", args[0], c.actionNames())
		}
		label += " " + args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet(label, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	sessionID := fs.Int("session", 0, "session id (default: first session)")
	dictIndex := fs.Int("dict", 1, "dictionary index")
	meta := fs.Bool("meta", false, "act on the class side")
	env := fs.Int("env", 0, "method environment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), action.args...); err != nil {
		return err
	}
	if *env < 0 {
		return errors.New("env must not be negative")
	}

	return withEnv(c.newEnv, func(ctx context.Context, be *browserEnv) error {
		_, sess, err := be.pick(*sessionID)
		if err != nil {
			return err
		}
		err = action.run(ctx, mutationTarget{
			service:   be.service,
			session:   sess,
			dictIndex: *dictIndex,
			isMeta:    *meta,
			env:       *env,
			args:      fs.Args(),
			stdin:     c.stdin,
		})
		if err != nil {
			return err
		}
		be.tree.Refresh()
		fmt.Fprintln(c.stdout, "ok")
		return nil
	})
}

func newMethodCommand(wiring commandWiring) *MutationCommand {
	return newMutationCommand("method", wiring, map[string]mutationAction{
		"delete": {
			args: []string{"class", "selector"},
			run: func(ctx context.Context, t mutationTarget) error {
				return t.service.DeleteMethod(ctx, t.session, t.dictIndex, t.args[0], t.isMeta, t.args[1], t.env)
			},
		},
		"recategorize": {
			args: []string{"class", "selector", "category"},
			run: func(ctx context.Context, t mutationTarget) error {
				return t.service.RecategorizeMethod(ctx, t.session, t.dictIndex, t.args[0], t.isMeta, t.args[1], t.args[2])
			},
		},
	})
}

func newCategoryCommand(wiring commandWiring) *MutationCommand {
	return newMutationCommand("category", wiring, map[string]mutationAction{
		"rename": {
			args: []string{"class", "old", "new"},
			run: func(ctx context.Context, t mutationTarget) error {
				return t.service.RenameCategory(ctx, t.session, t.dictIndex, t.args[0], t.isMeta, t.args[1], t.args[2])
			},
		},
	})
}

func newClassCommand(wiring commandWiring) *MutationCommand {
	return newMutationCommand("class", wiring, map[string]mutationAction{
		"delete": {
			args: []string{"class"},
			run: func(ctx context.Context, t mutationTarget) error {
				return t.service.DeleteClass(ctx, t.session, t.dictIndex, t.args[0])
			},
		},
		"move": {
			args: []string{"class", "to-dict"},
			run: func(ctx context.Context, t mutationTarget) error {
				to, err := parsePositiveInt("to-dict", t.args[1])
				if err != nil {
					return err
				}
				return t.service.MoveClass(ctx, t.session, t.dictIndex, to, t.args[0])
			},
		},
		"comment": {
			args: []string{"class", "file"},
			run: func(ctx context.Context, t mutationTarget) error {
				comment, err := readSource(t.stdin, t.args[1])
				if err != nil {
					return err
				}
				return t.service.SetClassComment(ctx, t.session, t.dictIndex, t.args[0], comment)
			},
		},
	})
}

func newDictCommand(wiring commandWiring) *MutationCommand {
	indexed := func(fn func(s *query.Service, ctx context.Context, sess gci.Session, index int) error) mutationAction {
		return mutationAction{
			args: []string{"index"},
			run: func(ctx context.Context, t mutationTarget) error {
				index, err := parsePositiveInt("index", t.args[0])
				if err != nil {
					return err
				}
				return fn(t.service, ctx, t.session, index)
			},
		}
	}
	return newMutationCommand("dict", wiring, map[string]mutationAction{
		"add": {
			args: []string{"name"},
			run: func(ctx context.Context, t mutationTarget) error {
				return t.service.AddDictionary(ctx, t.session, t.args[0])
			},
		},
		"remove": indexed((*query.Service).RemoveDictionary),
		"up":     indexed((*query.Service).MoveDictionaryUp),
		"down":   indexed((*query.Service).MoveDictionaryDown),
	})
}

func newCommitCommand(wiring commandWiring) *MutationCommand {
	return newMutationCommand("commit", wiring, map[string]mutationAction{
		"": {run: func(ctx context.Context, t mutationTarget) error {
			return t.service.Commit(ctx, t.session)
		}},
	})
}

func newAbortCommand(wiring commandWiring) *MutationCommand {
	return newMutationCommand("abort", wiring, map[string]mutationAction{
		"": {run: func(ctx context.Context, t mutationTarget) error {
			return t.service.Abort(ctx, t.session)
		}},
	})
}
