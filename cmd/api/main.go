package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/shopfront-api/internal/config"
	"github.com/georgemunganga/shopfront-api/internal/database"
	"github.com/georgemunganga/shopfront-api/internal/modules/auth"
	"github.com/georgemunganga/shopfront-api/internal/modules/catalog"
	"github.com/georgemunganga/shopfront-api/internal/modules/location"
	"github.com/georgemunganga/shopfront-api/internal/modules/sales"
	"github.com/georgemunganga/shopfront-api/internal/modules/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	log.Printf("connected to the database (%s driver)", cfg.DatabaseDriver)

	// Money goes out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// ── Identity ────────────────────────────────────────────
	hasher := user.NewHasher(cfg.BcryptCost)
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo, hasher, cfg.DefaultRole)

	tokens := auth.NewTokenIssuer(cfg.SecretKey, cfg.TokenTTL)
	guard := auth.NewGuard(tokens, userRepo, cfg.AdminRole)
	authService := auth.NewService(userService, userRepo, hasher, tokens)

	salesService := sales.NewService(sales.NewPostgresRepository(db))
	salesHandler := sales.NewHandler(salesService, guard, userService)

	auth.NewHandler(authService, guard).RegisterRoutes(router)
	user.NewHandler(userService, guard).Extend(salesHandler.UserRoutes).RegisterRoutes(router)

	// ── Catalog & Locations ─────────────────────────────────
	catalogService := catalog.NewService(
		catalog.NewPostgresRepository(db),
		catalog.NewCategoryPostgresRepository(db),
	)
	catalog.NewHandler(catalogService, guard).RegisterRoutes(router)

	locationService := location.NewService(location.NewPostgresRepository(db))
	location.NewHandler(locationService, guard).RegisterRoutes(router)

	// ── Cart & Sales ────────────────────────────────────────
	salesHandler.RegisterRoutes(router)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "shopfront API running",
			"version": "1.0",
			"endpoints": map[string]string{
				"auth":       "/api/auth",
				"products":   "/api/products",
				"users":      "/api/users",
				"sales":      "/api/sales",
				"categories": "/api/categories",
				"locations":  "/api/locations",
			},
		})
	})
	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("shopfront API server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
