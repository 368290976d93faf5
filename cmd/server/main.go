package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ayush/vidvault/internal/admin"
	"github.com/ayush/vidvault/internal/auth"
	"github.com/ayush/vidvault/internal/config"
	"github.com/ayush/vidvault/internal/middleware"
	"github.com/ayush/vidvault/internal/storage"
	"github.com/ayush/vidvault/internal/store"
	"github.com/ayush/vidvault/internal/thumbnail"
	"github.com/ayush/vidvault/internal/videos"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using system environment")
	}
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}
	if err := pgStore.PromoteAdmin(ctx, cfg.AdminUsername); err != nil {
		log.Fatalf("promote admin: %v", err)
	}

	// ── Redis sessions ───────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	sessions := auth.NewRedisSessions(rdb)

	// ── Blob storage ─────────────────────────────────────────
	uploads, thumbs, err := newBlobStores(ctx, cfg)
	if err != nil {
		log.Fatalf("blob storage: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	fetcher := thumbnail.NewFetcher(thumbs)
	authHandler := auth.NewHandler(pgStore, sessions, cfg.AdminUsername)
	videoHandler := videos.NewHandler(pgStore, uploads, thumbs, fetcher, cfg.MaxUploadBytes())
	adminHandler := admin.NewHandler(pgStore, sessions)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Auth routes (public)
	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)

	// Library routes (session required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Get("/", videoHandler.Index)
		r.Get("/calendar", videoHandler.Calendar)
		r.Get("/me", authHandler.Me)
		r.Get("/get_categories", videoHandler.GetCategories)
		r.Post("/add_category", videoHandler.AddCategory)
		r.Post("/add_youtube", videoHandler.AddYouTube)
		r.Post("/upload_video", videoHandler.Upload)
		r.Post("/delete_video/{id}", videoHandler.Delete)
		r.Get("/uploads/{filename}", videoHandler.ServeUpload)
		r.Get("/thumbnails/{filename}", videoHandler.ServeThumbnail)
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Use(middleware.RequireAdmin(pgStore))
		r.Get("/dashboard", adminHandler.Dashboard)
		r.Get("/impersonate/{id}", adminHandler.Impersonate)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Printf("vidvault listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}

// newBlobStores picks the storage backend: local directories by default,
// MinIO buckets when an endpoint is configured.
func newBlobStores(ctx context.Context, cfg *config.Config) (uploads, thumbs storage.Store, err error) {
	if cfg.MinioEndpoint == "" {
		uploads, err = storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		thumbs, err = storage.NewLocalStore(cfg.ThumbnailDir)
		if err != nil {
			return nil, nil, err
		}
		return uploads, thumbs, nil
	}

	uploads, err = storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioUploadBkt, cfg.MinioUseSSL)
	if err != nil {
		return nil, nil, err
	}
	thumbs, err = storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioThumbBkt, cfg.MinioUseSSL)
	if err != nil {
		return nil, nil, err
	}
	return uploads, thumbs, nil
}
