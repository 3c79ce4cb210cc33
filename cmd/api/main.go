package main

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"smart-todo-backend/internal/ai"
	"smart-todo-backend/internal/api"
	"smart-todo-backend/internal/auth"
	"smart-todo-backend/internal/config"
	"smart-todo-backend/internal/db"
	"smart-todo-backend/internal/suggest"
	"smart-todo-backend/internal/tasks"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	logger.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	// The provider is optional; without one the engine answers from the
	// deterministic path alone.
	var provider ai.Provider
	if cfg.AIEnabled() {
		provider = ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
		logger.Info("ai provider configured",
			zap.String("provider", cfg.AIProvider),
			zap.String("model", cfg.AIModel),
			zap.Duration("timeout", cfg.AITimeout))
	} else {
		logger.Info("no ai provider configured, running deterministic only")
	}

	store := tasks.NewStore(database)
	engine := suggest.New(provider, cfg.AITimeout, logger)

	mux := http.NewServeMux()
	api.New(store, engine, logger).Register(mux)

	// Health stays outside the guard so probes never need a token.
	guard := auth.New([]byte(cfg.JWTSecret))
	root := http.NewServeMux()
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	root.Handle("/", guard.Wrap(mux))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(root)

	logger.Info("api server running", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, handler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
