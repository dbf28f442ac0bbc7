package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"gembrowse/internal/browser"
)

type ShowCommand struct {
	stdout   io.Writer
	stderr   io.Writer
	newEnv   envFactory
	copyText copyFunc
}

func NewShowCommand(stdout, stderr io.Writer, newEnv envFactory, copyText copyFunc) *ShowCommand {
	return &ShowCommand{
		stdout:   stdout,
		stderr:   stderr,
		newEnv:   newEnv,
		copyText: copyText,
	}
}

func (c *ShowCommand) Run(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	copyOut := fs.Bool("copy", false, "also copy the text to the clipboard")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), "locator"); err != nil {
		return err
	}
	node, err := browser.ParseLocator(fs.Arg(0))
	if err != nil {
		return err
	}

	return withEnv(c.newEnv, func(ctx context.Context, env *browserEnv) error {
		if _, _, err := env.pick(node.SessionID); err != nil {
			return err
		}
		text, err := env.tree.Content(ctx, node)
		if err != nil {
			return err
		}
		fmt.Fprint(c.stdout, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(c.stdout)
		}
		if *copyOut {
			method, err := c.copyText(ctx, text)
			if err != nil {
				return fmt.Errorf("copy: %w", err)
			}
			fmt.Fprintf(c.stderr, "copied via %s\n", method)
		}
		return nil
	})
}
