package main

import (
	"fmt"
	"os"
)

const usageText = `gembrowse browses the classes and methods of a running image through a GCI gateway.

Usage:
  gembrowse <command> [flags]

Commands:
  sessions    list gateway sessions
  tree        print the browse tree
  show        print the text behind a locator
  search      implementors|senders|references|text <term>
  hierarchy   print a class's superclasses and subclasses
  compile     compile a method from a file (or - for stdin); --dict N
              refuses a class shadowed by an earlier dictionary
  method      delete|recategorize a method
  category    rename a method category
  class       delete|move|comment a class
  dict        add|remove|up|down a dictionary
  commit      commit the session's transaction
  abort       abort the session's transaction
  journal     print recent remote calls
  config      print configuration (effective or defaults)
  version     print the build version
  help        show help

Flags:
  -h, --help   show help

Most commands accept --session N; the first gateway session is used otherwise.
Tree paths match node labels. A real category named like a sentinel wins;
prefix the label with * (for example '*ALL') to select the sentinel.

Examples:
  gembrowse tree --depth 3 UserGlobals
  gembrowse show 'gemstone://1/method/Globals/Array/instance/accessing/size?dict=2&env=0'
  gembrowse search implementors printOn:
  gembrowse compile --class Point --category accessing point_x.st
  gembrowse dict up 3
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdin, os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
