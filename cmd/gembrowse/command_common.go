package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"text/tabwriter"

	"gembrowse/internal/query"
	"gembrowse/internal/session"
)

const version = "dev"

func printSessions(output io.Writer, entries []session.Entry) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tDESCRIPTION")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%d\t%s\n", entry.ID, entry.Description)
	}
	_ = writer.Flush()
}

func printMethods(output io.Writer, methods []query.MethodRef) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "CLASS\tSIDE\tSELECTOR\tCATEGORY\tDICTIONARY")
	for _, method := range methods {
		side := "instance"
		if method.IsMeta {
			side = "class"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", method.ClassName, side, method.Selector, method.Category, method.Dictionary)
	}
	_ = writer.Flush()
}

// withEnv builds an environment, runs fn and releases the environment.
func withEnv(newEnv envFactory, fn func(ctx context.Context, env *browserEnv) error) (err error) {
	ctx := context.Background()
	env, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := env.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, env)
}

// readSource reads path, or stdin when path is "-".
func readSource(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parsePositiveInt(label, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer: %q", label, raw)
	}
	return n, nil
}

func requireArgs(args []string, names ...string) error {
	if len(args) == len(names) {
		return nil
	}
	placeholders := make([]string, 0, len(names))
	for _, name := range names {
		placeholders = append(placeholders, "<"+name+">")
	}
	if len(placeholders) == 0 {
		return errors.New("unexpected arguments")
	}
	return fmt.Errorf("expected %s", strings.Join(placeholders, " "))
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}
	return version
}
