package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/beatremap/internal/timeutil"
	"github.com/banshee-data/beatremap/internal/version"
)

// errUsage is returned after usage has already been printed.
var errUsage = errors.New("invalid usage")

type app struct {
	stdout io.Writer
	stderr io.Writer
	clock  timeutil.Clock
}

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr, clock: timeutil.RealClock{}}
	if err := a.run(os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func (a *app) run(args []string) error {
	if len(args) < 1 {
		a.printUsage()
		return errUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "analyze":
		return a.handleAnalyze(rest)
	case "remap":
		return a.handleRemap(rest)
	case "export":
		return a.handleExport(rest)
	case "import":
		return a.handleImport(rest)
	case "stats":
		return a.handleStats(rest)
	case "runs":
		return a.handleRuns(rest)
	case "migrate":
		return a.handleMigrate(rest)
	case "serve":
		return a.handleServe(rest)
	case "version":
		fmt.Fprintln(a.stdout, version.String())
		return nil
	case "help", "-h", "--help":
		a.printUsage()
		return nil
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n\n", command)
		a.printUsage()
		return errUsage
	}
}

func (a *app) printUsage() {
	fmt.Fprintln(a.stdout, `beatremap - learn motion patterns from beatmaps and regenerate difficulties

Usage: beatremap <command> [options]

Commands:
  analyze    Segment difficulty files into patterns and store them
  remap      Regenerate a difficulty's notes from stored patterns
  export     Write the pattern database as JSON
  import     Merge a JSON pattern export into the database
  stats      Summarise the pattern database (text, --html charts, --png histogram)
  runs       List recent remap runs
  migrate    Manage the database schema (up, down, status, version N, force N)
  serve      Serve the analyze, remap and stats tools over MCP stdio
  version    Show beatremap version
  help       Show this help message

Common Flags:
  --config <file>   Tuning config (.json/.yaml); defaults to config/tuning.defaults.json if present
  --db <file>       Pattern database (overrides database_path from the config)

Examples:
  # Learn from two hand-made difficulties
  beatremap analyze --difficulty 9 songA/ExpertPlus.dat songB/ExpertPlus.dat

  # Regenerate an Expert difficulty reproducibly
  beatremap remap --difficulty 7 --seed 42 --out Expert.remap.dat songC/Expert.dat

  # Chart the database
  beatremap stats --html stats.html --png sizes.png`)
}
