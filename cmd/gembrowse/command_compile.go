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

type CompileCommand struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	newEnv envFactory
}

func NewCompileCommand(stdin io.Reader, stdout, stderr io.Writer, newEnv envFactory) *CompileCommand {
	return &CompileCommand{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		newEnv: newEnv,
	}
}

func (c *CompileCommand) Run(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	sessionID := fs.Int("session", 0, "session id (default: first session)")
	className := fs.String("class", "", "target class name")
	meta := fs.Bool("meta", false, "compile on the class side")
	category := fs.String("category", "", "method category")
	dictIndex := fs.Int("dict", 0, "dictionary the class must resolve from (default: first binding in the symbol list)")
	env := fs.Int("env", 0, "method environment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*className) == "" {
		return errors.New("--class is required")
	}
	if *env < 0 {
		return errors.New("env must not be negative")
	}
	if *dictIndex < 0 {
		return errors.New("dict must not be negative")
	}
	if err := requireArgs(fs.Args(), "file"); err != nil {
		return err
	}
	source, err := readSource(c.stdin, fs.Arg(0))
	if err != nil {
		return err
	}

	return withEnv(c.newEnv, func(ctx context.Context, be *browserEnv) error {
		_, sess, err := be.pick(*sessionID)
		if err != nil {
			return err
		}
		if *dictIndex > 0 {
			if err := checkCompileTarget(ctx, be, sess, *className, *dictIndex); err != nil {
				return err
			}
		}
		method, err := be.service.CompileMethod(ctx, sess, query.CompileRequest{
			ClassName:   *className,
			IsMeta:      *meta,
			Category:    *category,
			Source:      source,
			Environment: *env,
		})
		if err != nil {
			return err
		}
		be.tree.Refresh()
		fmt.Fprintf(c.stdout, "compiled %s\n", method)
		return nil
	})
}

// checkCompileTarget fails unless the class resolves from dictIndex. The
// compile itself resolves the name through the whole symbol list, so a
// binding in an earlier dictionary would receive the method instead.
func checkCompileTarget(ctx context.Context, be *browserEnv, sess gci.Session, className string, dictIndex int) error {
	refs, err := be.service.FindClass(ctx, sess, className)
	if err != nil {
		return err
	}
	var first *query.DictionaryRef
	found := false
	for i := range refs {
		if first == nil || refs[i].Index < first.Index {
			first = &refs[i]
		}
		if refs[i].Index == dictIndex {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("class %s not found in dictionary %d", className, dictIndex)
	}
	if first.Index != dictIndex {
		return fmt.Errorf("class %s in dictionary %d is shadowed by %s (dictionary %d)", className, dictIndex, first.Name, first.Index)
	}
	return nil
}
