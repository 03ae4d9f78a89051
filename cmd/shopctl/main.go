// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command shopctl runs maintenance tasks against the shop database:
// migrations, admin bootstrap and catalog import/export.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-shop/internal/logging"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/transfer"
	"github.com/olegiv/ocms-shop/internal/version"
)

const defaultDBPath = "./data/shop.db"

var errUsage = errors.New("usage")

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case errors.Is(err, errUsage):
		os.Exit(2)
	case err != nil:
		_, _ = fmt.Fprintf(os.Stderr, "shopctl: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintf(w, "shopctl - shop maintenance commands\n\n")
	_, _ = fmt.Fprintf(w, "Usage: shopctl <command> [options]\n\n")
	_, _ = fmt.Fprintf(w, "Commands:\n")
	_, _ = fmt.Fprintf(w, "  migrate up|status       Apply or list database migrations\n")
	_, _ = fmt.Fprintf(w, "  create-admin            Create or promote an administrator\n")
	_, _ = fmt.Fprintf(w, "  import-products FILE    Import products from CSV\n")
	_, _ = fmt.Fprintf(w, "  export-products [FILE]  Export products as CSV (stdout by default)\n")
	_, _ = fmt.Fprintf(w, "  version                 Show version information\n")
	_, _ = fmt.Fprintf(w, "\nEvery command accepts -db (default: $SHOP_DB_PATH or %s).\n", defaultDBPath)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		return runMigrate(ctx, rest, stdout, stderr)
	case "create-admin":
		return runCreateAdmin(ctx, rest, stdout, stderr)
	case "import-products":
		return runImport(ctx, rest, stdout, stderr)
	case "export-products":
		return runExport(ctx, rest, stdout, stderr)
	case "version", "-version", "--version", "-v":
		_, _ = fmt.Fprintf(stdout, "shopctl %s\n", version.Get())
		return nil
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		usage(stderr)
		return errUsage
	}
}

// newFlagSet returns a flag set with the shared -db flag.
func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	def := os.Getenv("SHOP_DB_PATH")
	if def == "" {
		def = defaultDBPath
	}
	dbPath := fs.String("db", def, "SQLite database path")
	return fs, dbPath
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// openDB opens the database and optionally applies pending migrations.
func openDB(ctx context.Context, path string, migrate bool) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := store.NewDB(path)
	if err != nil {
		return nil, err
	}
	if migrate {
		if _, err := store.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func runMigrate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, dbPath := newFlagSet("migrate", stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	action := "up"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}
	if action != "up" && action != "status" {
		_, _ = fmt.Fprintf(stderr, "unknown migrate action %q (want up or status)\n", action)
		return errUsage
	}

	db, err := openDB(ctx, *dbPath, false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if action == "status" {
		states, err := store.Migrations(ctx, db)
		if err != nil {
			return err
		}
		for _, m := range states {
			applied := "pending"
			if m.Applied {
				applied = m.AppliedAt.UTC().Format(time.RFC3339)
			}
			_, _ = fmt.Fprintf(stdout, "%05d  %-28s %s\n", m.Version, m.Name, applied)
		}
		return nil
	}

	v, err := store.Migrate(ctx, db)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "database is at version %d\n", v)
	return nil
}

func runCreateAdmin(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, dbPath := newFlagSet("create-admin", stderr)
	email := fs.String("email", os.Getenv("SHOP_ADMIN_EMAIL"), "Admin email")
	password := fs.String("password", os.Getenv("SHOP_ADMIN_PASSWORD"), "Admin password")
	name := fs.String("name", store.DefaultAdminName, "Display name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		_, _ = fmt.Fprintln(stderr, "create-admin needs -email and -password")
		return errUsage
	}
	if len(*password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	db, err := openDB(ctx, *dbPath, true)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	user, err := store.CreateAdmin(ctx, store.New(db), *email, *password, *name)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "admin %s ready (id %d)\n", user.Email, user.ID)
	return nil
}

func runImport(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, dbPath := newFlagSet("import-products", stderr)
	dryRun := fs.Bool("dry-run", false, "Validate without writing")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(stderr, "import-products needs exactly one CSV file")
		return errUsage
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	db, err := openDB(ctx, *dbPath, true)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	logger := logging.New(stderr, slog.LevelWarn)
	res, err := transfer.NewImporter(db, logger).Import(ctx, f, transfer.ImportOptions{DryRun: *dryRun})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "created: %d, updated: %d, skipped: %d, categories created: %d\n",
		res.Created, res.Updated, res.Skipped, res.CategoriesCreated)
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(stdout, "  row %d: %s\n", e.Row, e.Message)
	}
	if res.DryRun {
		_, _ = fmt.Fprintln(stdout, "dry run: nothing was written")
	}
	return nil
}

func runExport(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, dbPath := newFlagSet("export-products", stderr)
	all := fs.Bool("all", false, "Include inactive products")
	bom := fs.Bool("bom", false, "Prefix a UTF-8 BOM for spreadsheet apps")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	db, err := openDB(ctx, *dbPath, true)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	out := stdout
	if fs.NArg() > 0 {
		f, err := os.Create(fs.Arg(0))
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	logger := logging.New(stderr, slog.LevelWarn)
	n, err := transfer.NewExporter(db, logger).ExportProducts(ctx, out, transfer.ExportOptions{
		IncludeInactive: *all,
		BOM:             *bom,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stderr, "exported %d products\n", n)
	return nil
}
