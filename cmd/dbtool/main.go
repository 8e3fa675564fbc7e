// Command dbtool provisions and inspects the directory database: it applies
// migrations, seeds categories, syncs organizations from the scraper
// directory tree, and probes connectivity.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"orgdir/internal/config"
	"orgdir/internal/database"
	"orgdir/internal/database/migration"
	"orgdir/internal/model"
	"orgdir/internal/repository"
)

const usage = `usage: dbtool <command> [args]

commands:
  setup                    apply migrations and seed categories
  reset                    drop everything, recreate and reseed (asks for confirmation)
  sync [root]              upsert organizations from <root>/<category>/<org> directories
  test                     probe database connectivity
  migrate up [version]     apply pending migrations, optionally up to a version
  migrate down [version]   roll back migrations, optionally down to a version
  migrate status           show applied and pending migrations
`

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg := config.Load()
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "setup":
		err = runSetup(ctx, cfg, log, false)
	case "reset":
		err = runSetup(ctx, cfg, log, true)
	case "sync":
		root := cfg.ScraperRoot
		if len(os.Args) > 2 {
			root = os.Args[2]
		}
		err = runSync(ctx, cfg, log, root)
	case "test":
		err = runTest(ctx, cfg, log)
	case "migrate":
		err = runMigrate(ctx, cfg, log, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		os.Exit(1)
	}
}

// connect waits out a possibly suspended database before opening the pool.
func connect(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*sql.DB, error) {
	dsn, err := database.DSN(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.WaitForDatabase(ctx, dsn, database.DefaultWakeupPolicy(), log); err != nil {
		return nil, err
	}
	return database.NewPostgres(cfg.Database)
}

func runSetup(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger, dropExisting bool) error {
	db, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	runner, err := migration.NewRunner(ctx, db, log)
	if err != nil {
		return err
	}

	if dropExisting {
		fmt.Print("This will DELETE ALL DATA. Type 'yes' to confirm: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(line)) != "yes" {
			log.Info().Msg("aborted")
			return nil
		}
		if err := runner.MigrateDown(ctx, ""); err != nil {
			return err
		}
	}

	if err := runner.MigrateUp(ctx, ""); err != nil {
		return err
	}

	seeded, err := repository.NewCategories(db).Seed(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("seeded", seeded).Msg("database setup complete")
	return nil
}

func runSync(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger, root string) error {
	db, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	categories := repository.NewCategories(db)
	orgs := repository.NewOrganizations(db)

	categoryDirs, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read scraper root %s: %w", root, err)
	}

	synced := 0
	for _, categoryDir := range categoryDirs {
		if !categoryDir.IsDir() || strings.HasPrefix(categoryDir.Name(), ".") {
			continue
		}
		categorySlug := categoryDir.Name()

		category, err := categories.FindBySlug(ctx, categorySlug)
		if err != nil {
			return err
		}
		if category == nil {
			log.Warn().Str("slug", categorySlug).Msg("category not found, skipping directory")
			continue
		}
		categoryID, _ := model.ID(category)

		orgDirs, err := os.ReadDir(filepath.Join(root, categorySlug))
		if err != nil {
			return err
		}
		for _, orgDir := range orgDirs {
			if !orgDir.IsDir() || strings.HasPrefix(orgDir.Name(), ".") {
				continue
			}
			slug := orgDir.Name()
			directoryPath := categorySlug + "/" + slug

			id, err := orgs.UpsertOrganization(ctx, model.Row{
				"slug":           slug,
				"name":           titleFromSlug(slug),
				"category_id":    categoryID,
				"directory_path": directoryPath,
			})
			if err != nil {
				return err
			}
			log.Info().Int64("id", id).Str("directory_path", directoryPath).Msg("synced organization")
			synced++
		}
	}

	log.Info().Int("synced", synced).Msg("organization sync complete")
	return nil
}

func runTest(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) error {
	db, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return err
	}
	log.Info().Str("version", version).Msg("connection test successful")
	return nil
}

func runMigrate(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("migrate requires a subcommand: up, down or status")
	}

	db, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	runner, err := migration.NewRunner(ctx, db, log)
	if err != nil {
		return err
	}

	target := ""
	if len(args) > 1 {
		target = args[1]
	}

	switch args[0] {
	case "up":
		return runner.MigrateUp(ctx, target)
	case "down":
		return runner.MigrateDown(ctx, target)
	case "status":
		status, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		log.Info().
			Strs("applied", status.Applied).
			Strs("pending", status.Pending).
			Str("current", status.Current).
			Msg("migration status")
		return nil
	default:
		return fmt.Errorf("unknown migrate subcommand %q", args[0])
	}
}

// titleFromSlug turns "ethics_compliance_audit_services" into
// "Ethics Compliance Audit Services".
func titleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
