package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"gembrowse/internal/browser"
)

const defaultTreeDepth = 2

type TreeCommand struct {
	stdout io.Writer
	stderr io.Writer
	newEnv envFactory
}

func NewTreeCommand(stdout, stderr io.Writer, newEnv envFactory) *TreeCommand {
	return &TreeCommand{
		stdout: stdout,
		stderr: stderr,
		newEnv: newEnv,
	}
}

type treePrinter struct {
	out      io.Writer
	depth    int
	width    int
	locators bool
	styles   treeStyles
}

type treeStyles struct {
	byKind  map[browser.Kind]lipgloss.Style
	plain   lipgloss.Style
	locator lipgloss.Style
}

func newTreeStyles(out io.Writer) treeStyles {
	r := lipgloss.NewRenderer(out)
	return treeStyles{
		byKind: map[browser.Kind]lipgloss.Style{
			browser.KindRoot:          r.NewStyle().Bold(true),
			browser.KindDictionary:    r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
			browser.KindClassCategory: r.NewStyle().Foreground(lipgloss.Color("245")),
			browser.KindClass:         r.NewStyle().Foreground(lipgloss.Color("78")).Bold(true),
			browser.KindSide:          r.NewStyle().Foreground(lipgloss.Color("214")),
			browser.KindCategory:      r.NewStyle().Foreground(lipgloss.Color("245")),
			browser.KindGlobal:        r.NewStyle().Foreground(lipgloss.Color("176")),
		},
		plain:   r.NewStyle(),
		locator: r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func (s treeStyles) forKind(kind browser.Kind) lipgloss.Style {
	if style, ok := s.byKind[kind]; ok {
		return style
	}
	return s.plain
}

func (c *TreeCommand) Run(args []string) error {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	sessionID := fs.Int("session", 0, "session id (default: first session)")
	depth := fs.Int("depth", defaultTreeDepth, "levels to print below the start node")
	width := fs.Int("width", 0, "truncate lines to this many columns (0 = no limit)")
	locators := fs.Bool("locators", false, "print the locator of each leaf")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *depth < 0 {
		return errors.New("depth must not be negative")
	}

	return withEnv(c.newEnv, func(ctx context.Context, env *browserEnv) error {
		entry, _, err := env.pick(*sessionID)
		if err != nil {
			return err
		}
		start, err := walkPath(ctx, env.tree, env.tree.Root(entry.ID), fs.Args())
		if err != nil {
			return err
		}
		printer := &treePrinter{
			out:      c.stdout,
			depth:    *depth,
			width:    *width,
			locators: *locators,
			styles:   newTreeStyles(c.stdout),
		}
		printer.print(ctx, env.tree, start, 0)
		return nil
	})
}

// walkPath descends from node by matching child labels in order.
func walkPath(ctx context.Context, tree *browser.Tree, node browser.Node, path []string) (browser.Node, error) {
	for _, label := range path {
		next, ok := findChild(tree.Children(ctx, node), label)
		if !ok {
			return browser.Node{}, fmt.Errorf("no node %q under %q", label, node.Label())
		}
		node = next
	}
	return node, nil
}

// findChild prefers a real node over a sentinel with the same label, so a
// category literally named ALL stays reachable. A leading "*" selects the
// sentinel only.
func findChild(children []browser.Node, label string) (browser.Node, bool) {
	if name, ok := strings.CutPrefix(label, "*"); ok {
		for _, child := range children {
			if child.Sentinel != browser.SentinelNone && child.Label() == name {
				return child, true
			}
		}
		return browser.Node{}, false
	}
	var sentinel browser.Node
	found := false
	for _, child := range children {
		if child.Label() != label {
			continue
		}
		if child.Sentinel == browser.SentinelNone {
			return child, true
		}
		if !found {
			sentinel, found = child, true
		}
	}
	return sentinel, found
}

func (p *treePrinter) print(ctx context.Context, tree *browser.Tree, node browser.Node, level int) {
	p.line(node, level)
	if level >= p.depth || node.IsLeaf() {
		return
	}
	for _, child := range tree.Children(ctx, node) {
		p.print(ctx, tree, child, level+1)
	}
}

func (p *treePrinter) line(node browser.Node, level int) {
	text := strings.Repeat("  ", level) + node.Label()
	if p.width > 0 {
		text = runewidth.Truncate(text, p.width, "…")
	}
	text = p.styles.forKind(node.Kind).Render(text)
	if p.locators && node.IsLeaf() {
		if locator, err := node.Locator(); err == nil {
			text += "  " + p.styles.locator.Render(locator)
		}
	}
	fmt.Fprintln(p.out, text)
}
