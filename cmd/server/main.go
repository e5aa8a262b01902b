package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/account"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/activity"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/auth"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/config"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/imagecapture"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/listing"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/logging"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/middleware"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/property"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/store"
)

func main() {
	cfg := config.Load("")
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	for _, w := range cfg.Warnings {
		log.Warn("config", zap.String("detail", w))
	}
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("mongo connect", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatal("mongo indexes", zap.Error(err))
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RemoteTimeout)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	// ── MinIO (optional) ─────────────────────────────────────
	var blobs imagecapture.Blobs
	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			log.Fatal("minio connect", zap.Error(err))
		}
		blobs = minioStore
	} else {
		log.Info("no blob store configured, images are kept as submitted")
	}
	images := imagecapture.New(blobs, log.Named("images"))

	// ── Activity retention ───────────────────────────────────
	pruner := activity.NewPruner(mongoStore, cfg.ActivityRetention, cfg.RemoteTimeout, log.Named("activity"))
	if err := pruner.Start(cfg.ActivityPruneSchedule); err != nil {
		log.Fatal("activity pruner", zap.Error(err))
	}

	// ── Handlers ─────────────────────────────────────────────
	tokens := auth.NewTokenIssuer(cfg.SessionSecret)
	authHandler := auth.NewHandler(pgStore, sessions, tokens, log.Named("auth"), cfg.RequireEmailConfirmation)
	listings := listing.NewService(pgStore, images, mongoStore, log.Named("listing"), cfg.RemoteTimeout)
	propertyHandler := property.NewHandler(listings, log.Named("property"))
	accountHandler := account.NewHandler(pgStore, mongoStore, cfg.ActivityLimit)

	resolver := authHandler.Resolver()
	identify := middleware.Authenticate(resolver, pgStore, log)
	requireAuth := middleware.RequireAuth(resolver, pgStore, log)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Requests(log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{"status": "ok", "postgres": "ok", "redis": "ok", "mongo": "ok"}
		code := http.StatusOK
		if err := pgStore.Ping(hctx); err != nil {
			status["postgres"], status["status"], code = "down", "degraded", http.StatusServiceUnavailable
		}
		if err := rdb.Ping(hctx).Err(); err != nil {
			status["redis"], status["status"], code = "down", "degraded", http.StatusServiceUnavailable
		}
		if err := mongoClient.Ping(hctx, nil); err != nil {
			status["mongo"], status["status"], code = "down", "degraded", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	})

	// Auth routes (public)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/signout", authHandler.SignOut)
		r.Get("/session", authHandler.Session)
		r.Get("/confirm/{token}", authHandler.Confirm)
	})

	// Catalog and detail pages (public)
	r.Group(func(r chi.Router) {
		r.Use(identify)
		r.Get("/api/buy", propertyHandler.Buy)
		r.Get("/api/rent", propertyHandler.Rent)
		r.Get("/api/property/{id}/{kind}", propertyHandler.Detail)
		r.Get(imagecapture.URLPrefix+"*", images.Serve)
	})

	// Listing submission, account and owner pages (protected)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/api/sell", propertyHandler.Sell)
		r.Post("/api/rent/list", propertyHandler.ListRental)
		r.Get("/api/account", accountHandler.Get)
		r.Get("/api/account/activity", accountHandler.Activity)
		r.Get("/api/my-properties", propertyHandler.Mine)
		r.Delete("/api/my-properties/{kind}/{id}", propertyHandler.Delete)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		log.Info("backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
	pruner.Stop(shutCtx)
}
