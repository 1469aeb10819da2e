package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

func main() {
	flag.Parse()

	switch flag.Arg(0) {
	case "version":
		fmt.Fprintf(os.Stdout, "Kicker %s\n", Version)
	case "serve":
		if err := serve(); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "migrate":
		if err := migrateDatabase(); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "rerank":
		if err := rerank(); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "dev:fixtures":
		if err := loadFixtures(); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "help":
		fmt.Fprint(os.Stdout, help())
		return
	default:
		fmt.Fprint(os.Stderr, help())
		os.Exit(1)
	}
}

func help() string {
	return fmt.Sprintf(`
Kicker keeps track of a foosball league: players, teams, matches, and
their Elo ratings.

Usage: %[1]s COMMAND [ARGS…]

COMMANDS
    dev:fixtures create default data for quick testing during development
    help         display this help
    migrate      apply all pending database migrations
    rerank       recompute every rating and counter from the match ledger
    serve        run the JSON API server until SIGINT/SIGTERM
    version      display the current version
`,
		os.Args[0],
	)
}
