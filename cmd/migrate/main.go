package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/straye-as/procurement-api/internal/config"
)

const usage = `usage: migrate [-dir DIR] COMMAND

Applies the procurement-api schema migrations with goose.

Commands:
  up             apply all pending migrations
  down           roll back the latest migration
  status         list migrations and whether they are applied
  version        print the current schema version
  create NAME    add an empty SQL migration to DIR (no database needed)

Flags:
`

type options struct {
	dir     string
	command string
	name    string
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(output)
	dir := fs.String("dir", "./migrations", "directory holding the goose SQL migrations")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return options{}, errors.New("missing command")
	}

	opts := options{dir: *dir, command: rest[0]}
	switch opts.command {
	case "up", "down", "status", "version":
	case "create":
		if len(rest) < 2 {
			return options{}, errors.New("create requires a migration name")
		}
		opts.name = rest[1]
	default:
		fs.Usage()
		return options{}, fmt.Errorf("unknown command: %s", opts.command)
	}
	return opts, nil
}

func run(opts options) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if opts.command == "create" {
		if err := goose.Create(nil, opts.dir, opts.name, "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		fmt.Printf("Migration created: %s\n", opts.name)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	switch opts.command {
	case "up":
		if err := goose.Up(db, opts.dir); err != nil {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
		fmt.Println("Migrations applied successfully")

	case "down":
		if err := goose.Down(db, opts.dir); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
		fmt.Println("Migration rolled back successfully")

	case "status":
		if err := goose.Status(db, opts.dir); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

	case "version":
		if err := goose.Version(db, opts.dir); err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
	}

	return nil
}
