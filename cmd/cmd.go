package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitebuddy-backend/internal/config"
	"bitebuddy-backend/internal/handlers"
	"bitebuddy-backend/internal/metrics"
	"bitebuddy-backend/internal/middleware"
	"bitebuddy-backend/internal/places"
	"bitebuddy-backend/internal/repository"
	"bitebuddy-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	swipeRepo := repository.NewSwipeRepository(db)
	matchRepo := repository.NewMatchRepository(db)

	// External places-search collaborator
	placesClient := places.NewClient(cfg.Places.APIKey, cfg.Places.BaseURL, cfg.Places.Timeout())

	// Initialize services
	userService := services.NewUserService(profileRepo, cfg.JWT.Secret, cfg.JWT.TTLDays)
	friendshipService := services.NewFriendshipService(friendshipRepo, profileRepo)
	sessionService := services.NewSessionService(sessionRepo, restaurantRepo, swipeRepo, matchRepo, placesClient)
	swipeService := services.NewSwipeService(sessionRepo, restaurantRepo, swipeRepo, matchRepo)
	wsHub := services.NewWSHub()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	friendshipHandler := handlers.NewFriendshipHandler(friendshipService, wsHub)
	sessionHandler := handlers.NewSessionHandler(sessionService, swipeService, wsHub)
	discoverHandler := handlers.NewDiscoverHandler(placesClient)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.Middleware)

		// Public routes
		r.Post("/auth/signup", userHandler.Signup)
		r.Post("/auth/login", userHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Post("/auth/logout", userHandler.Logout)
			r.Get("/auth/me", userHandler.Me)
			r.Put("/profile", userHandler.UpdateProfile)

			r.Route("/friends", func(r chi.Router) {
				r.Get("/", friendshipHandler.ListFriends)
				r.Get("/search", friendshipHandler.Search)
				r.Get("/requests", friendshipHandler.ListRequests)
				r.Get("/requests/sent", friendshipHandler.ListSentRequests)
				r.Post("/request", friendshipHandler.Request)
				r.Post("/respond", friendshipHandler.Respond)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", sessionHandler.List)
				r.Post("/", sessionHandler.Create)
				r.Get("/recent-matches", sessionHandler.RecentMatches)
				r.Route("/{session_id}", func(r chi.Router) {
					r.Get("/", sessionHandler.Detail)
					r.Post("/invite", sessionHandler.Invite)
					r.Post("/join", sessionHandler.Join)
					r.Post("/start", sessionHandler.Start)
					r.Get("/restaurants", sessionHandler.Restaurants)
					r.Post("/swipe", sessionHandler.Swipe)
					r.Get("/results", sessionHandler.Results)
				})
			})

			r.Get("/restaurants/discover", discoverHandler.Discover)
		})
	})

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", metrics.Handler())

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
