package main

import (
	"context"
	"flag"
	"fmt"
	"io"
)

type SessionsCommand struct {
	stdout io.Writer
	stderr io.Writer
	newEnv envFactory
}

func NewSessionsCommand(stdout, stderr io.Writer, newEnv envFactory) *SessionsCommand {
	return &SessionsCommand{
		stdout: stdout,
		stderr: stderr,
		newEnv: newEnv,
	}
}

func (c *SessionsCommand) Run(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args()); err != nil {
		return err
	}

	return withEnv(c.newEnv, func(ctx context.Context, env *browserEnv) error {
		if env.gatewayVersion != "" {
			fmt.Fprintf(c.stderr, "gateway %s\n", env.gatewayVersion)
		}
		printSessions(c.stdout, env.sessions.List())
		return nil
	})
}

type VersionCommand struct {
	stdout  io.Writer
	version string
}

func NewVersionCommand(stdout io.Writer, version string) *VersionCommand {
	return &VersionCommand{stdout: stdout, version: version}
}

func (c *VersionCommand) Run(args []string) error {
	if err := requireArgs(args); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, c.version)
	return nil
}
