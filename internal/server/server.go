// Package server wires the application together: it owns the database
// connection, assembles the service and handler layers, mounts every route
// with its middleware, and runs the HTTP server with graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/weather-dashboard/internal/auth"
	"github.com/sakif/weather-dashboard/internal/config"
	"github.com/sakif/weather-dashboard/internal/geocode"
	"github.com/sakif/weather-dashboard/internal/handler"
	"github.com/sakif/weather-dashboard/internal/middleware"
	sqliteRepo "github.com/sakif/weather-dashboard/internal/repository/sqlite"
	"github.com/sakif/weather-dashboard/internal/service"
	"github.com/sakif/weather-dashboard/internal/weather"
)

// Rate limits per route group. The broad /api limit is a backstop; the
// weather group gets a tighter one because every request there costs an
// upstream API call.
const (
	apiLimitRequests = 100
	apiLimitWindow   = 15 * time.Minute

	weatherLimitRequests = 60
	weatherLimitWindow   = time.Minute
)

// Server is the composition root. It owns the database connection and
// closes it on shutdown.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	started time.Time
}

// New opens the database and wires every layer together.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		started: time.Now(),
	}
	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	tokens, err := auth.NewTokenService(
		s.config.JWTAccessSecret, s.config.JWTRefreshSecret,
		s.config.JWTAccessTTL, s.config.JWTRefreshTTL,
	)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	google := auth.NewGoogleProvider(
		s.config.GoogleClientID, s.config.GoogleClientSecret, s.config.GoogleCallbackURL,
	)
	owClient := weather.NewClient(s.config.OpenWeatherAPIKey)
	geoClient := geocode.NewClient(
		s.config.GeocodingProvider, s.config.OpenWeatherAPIKey, s.config.GeocodingAPIKey,
	)

	authService := service.NewAuthService(s.db, tokens, s.logger)
	userService := service.NewUserService(s.db, s.logger)
	weatherService := service.NewWeatherService(owClient, geoClient, s.logger)

	authHandler := handler.NewAuthHandler(
		google, authService, s.config.ClientOrigin,
		s.config.IsProduction(), tokens.RefreshTTL(), s.logger,
	)
	userHandler := handler.NewUserHandler(userService, s.logger)
	weatherHandler := handler.NewWeatherHandler(weatherService, s.logger)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(apiLimitRequests, apiLimitWindow))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/google", authHandler.HandleGoogleLogin)
			r.Get("/google/callback", authHandler.HandleGoogleCallback)
			r.Post("/refresh", authHandler.HandleRefresh)
			r.Post("/logout", authHandler.HandleLogout)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, s.db))
			r.Get("/me", userHandler.HandleMe)
			r.Put("/me", userHandler.HandleUpdateMe)
			r.Get("/locations", userHandler.HandleLocations)
			r.Post("/locations", userHandler.HandleAddLocation)
			r.Delete("/locations/{id}", userHandler.HandleRemoveLocation)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(weatherLimitRequests, weatherLimitWindow))
			r.Use(auth.OptionalAuth(tokens, s.db))
			r.Get("/weather", weatherHandler.HandleWeather)
			r.Get("/autocomplete", weatherHandler.HandleAutocomplete)
		})
	})

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// Router exposes the assembled handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.HTTPAddress(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("environment", s.config.Environment),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	s.logger.Info("server stopped")
	return nil
}
