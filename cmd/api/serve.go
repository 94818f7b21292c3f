// cmd/api/serve.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/imadgeboyega/kiekky-feed/internal/auth"
	"github.com/imadgeboyega/kiekky-feed/internal/common/database"
	"github.com/imadgeboyega/kiekky-feed/internal/common/utils"
	"github.com/imadgeboyega/kiekky-feed/internal/config"
	"github.com/imadgeboyega/kiekky-feed/internal/engagement"
	"github.com/imadgeboyega/kiekky-feed/internal/feed"
	"github.com/imadgeboyega/kiekky-feed/internal/materializer"
	"github.com/imadgeboyega/kiekky-feed/internal/polls"
	"github.com/imadgeboyega/kiekky-feed/internal/posts"
	"github.com/imadgeboyega/kiekky-feed/internal/stats"
	"github.com/imadgeboyega/kiekky-feed/internal/users"
)

var startTime = time.Now()

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "run migrations before serving",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "publisher",
				Usage: "run the scheduled post publisher in process",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			if err := serve(c); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

func serve(c *cli.Context) error {
	log.Println("🚀 Starting Kiekky feed API")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signalContext()
	defer stop()

	// Redis is optional: without it relation lookups go straight to Postgres
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedisClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable (%v), continuing without cache", err)
			rdb = nil
		} else {
			defer rdb.Close()
			log.Println("✅ Connected to Redis")
		}
	}

	if c.Bool("migrate") {
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	app, err := buildApp(cfg, db, rdb)
	if err != nil {
		return err
	}

	if c.Bool("publisher") {
		go func() {
			if err := app.publisher.Start(ctx); err != nil {
				log.Printf("❌ Publisher stopped: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("✅ Listening on :%s (%s)", cfg.Port, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Println("⚠️  Shutdown signal received...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("👋 Server exited")
	return nil
}

type application struct {
	router    *mux.Router
	publisher *posts.Publisher
}

// buildApp wires stores, services and handlers into one router
func buildApp(cfg *config.Config, db *sqlx.DB, rdb *redis.Client) (*application, error) {
	directory := users.NewCachedDirectory(users.NewPostgresRepository(db), rdb, cfg.CacheTTL)
	postRepo := posts.NewPostgresRepository(db)
	voteStore := polls.NewPostgresRepository(db)

	repostStore := engagement.NewPairRepository(db, engagement.KindRepost)
	repostLister, ok := repostStore.(engagement.RepostLister)
	if !ok {
		return nil, fmt.Errorf("repost store cannot list reposts")
	}
	stores := engagement.Stores{
		Likes:     engagement.NewPairRepository(db, engagement.KindLike),
		Bookmarks: engagement.NewPairRepository(db, engagement.KindBookmark),
		Reposts:   repostStore,
		Stats:     engagement.NewStatsRepository(db),
	}

	var votePurger engagement.PostPurger
	if cfg.CascadePollVotes {
		votePurger = voteStore
	}
	cascade := engagement.NewCascadeManager(stores, votePurger)

	mat := materializer.New(&materializer.StoreResolver{
		Users:  directory,
		Posts:  postRepo,
		Stores: stores,
		Votes:  voteStore,
	})

	uploads, err := posts.NewUploadService(posts.UploadConfig{
		UseS3:          cfg.UseS3,
		S3Bucket:       cfg.S3BucketName,
		AWSRegion:      cfg.AWSRegion,
		LocalUploadDir: cfg.LocalUploadDir,
		BaseURL:        cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("upload service: %w", err)
	}

	engagementService := engagement.NewService(stores, postRepo)
	postService := posts.NewService(posts.Deps{
		Repo:           postRepo,
		Users:          directory,
		Materializer:   mat,
		Cascade:        cascade,
		Reposter:       engagementService,
		Media:          uploads,
		MaxImages:      cfg.MaxImagesPerPost,
		ThreadMaxPosts: cfg.ThreadMaxPosts,
	})
	pollService := polls.NewService(voteStore, postRepo)
	statsService := stats.NewService(stores.Likes, stores.Reposts, stores.Stats, postRepo)
	feedService := feed.NewService(postService, repostLister, mat, feed.Config{
		PromoEvery:   cfg.FeedPromoEvery,
		DefaultLimit: cfg.FeedDefaultLimit,
		MaxLimit:     cfg.FeedMaxLimit,
	})

	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
	router := mux.NewRouter()

	if !cfg.UseS3 {
		router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.LocalUploadDir))))
	}
	router.HandleFunc("/health", healthCheck(db)).Methods("GET")
	if cfg.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	posts.RegisterRoutes(router, posts.NewHandler(postService, uploads), authMiddleware)
	engagement.RegisterRoutes(router, engagement.NewHandler(engagementService), authMiddleware)
	polls.RegisterRoutes(router, polls.NewHandler(pollService, postService), authMiddleware)
	stats.RegisterRoutes(router, stats.NewHandler(statsService), authMiddleware)
	feed.RegisterRoutes(router, feed.NewHandler(feedService), authMiddleware)

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	return &application{
		router:    router,
		publisher: posts.NewPublisher(postRepo, cfg.PublisherSpec),
	}, nil
}

func healthCheck(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		utils.SuccessResponse(w, map[string]interface{}{
			"status": status,
			"uptime": time.Since(startTime).Round(time.Second).String(),
		}, code)
	}
}
