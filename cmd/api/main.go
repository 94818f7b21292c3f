// cmd/api/main.go
// Entry point: serve the feed API, run migrations or run the scheduled post publisher

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/imadgeboyega/kiekky-feed/internal/common/database"
	"github.com/imadgeboyega/kiekky-feed/internal/config"
	"github.com/imadgeboyega/kiekky-feed/internal/posts"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found (%v), using environment variables", err)
	}

	app := &cli.App{
		Name:  "kiekky-feed",
		Usage: "social feed backend",
		Commands: []*cli.Command{
			newServeCommand(),
			newMigrateCommand(),
			newPublisherCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln("error", err)
	}
}

// loadConfig reads and validates the environment
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	log.Println("✅ Connected to PostgreSQL")
	return db, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create the feed tables and indexes",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			db, err := openDB(cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer db.Close()

			if err := database.RunMigrations(c.Context, db); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			log.Println("✅ Database migrations completed")
			return nil
		},
	}
}

func newPublisherCommand() *cli.Command {
	return &cli.Command{
		Name:  "publisher",
		Usage: "publish scheduled posts as they come due",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "spec",
				Usage: "cron spec, overrides PUBLISHER_SPEC",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if spec := c.String("spec"); spec != "" {
				cfg.PublisherSpec = spec
			}

			db, err := openDB(cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer db.Close()

			ctx, stop := signalContext()
			defer stop()

			publisher := posts.NewPublisher(posts.NewPostgresRepository(db), cfg.PublisherSpec)
			if err := publisher.Start(ctx); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}
