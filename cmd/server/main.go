package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mvoronin/taskspace/internal/auth"
	"github.com/mvoronin/taskspace/internal/config"
	"github.com/mvoronin/taskspace/internal/db"
	"github.com/mvoronin/taskspace/internal/es"
	"github.com/mvoronin/taskspace/internal/events"
	"github.com/mvoronin/taskspace/internal/filter"
	"github.com/mvoronin/taskspace/internal/handlers"
	"github.com/mvoronin/taskspace/internal/hash"
	"github.com/mvoronin/taskspace/internal/httpserver"
	"github.com/mvoronin/taskspace/internal/logging"
	loggingmw "github.com/mvoronin/taskspace/internal/middleware/logging"
	"github.com/mvoronin/taskspace/internal/repo"
	"github.com/mvoronin/taskspace/internal/tokens"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL)
	slog.SetDefault(logger)

	database, err := db.Open(context.Background(), cfg)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}

	hasher, err := hash.New("blake2b")
	if err != nil {
		logger.Error("hasher init failed", "error", err)
		os.Exit(1)
	}

	todoFilter, err := filter.For("Todo")
	if err != nil {
		logger.Error("filter init failed", "error", err)
		os.Exit(1)
	}

	var prod *events.Producer
	if cfg.KAFKA_ADDRESS != "" {
		prod = events.NewProducer(cfg.KAFKA_ADDRESS)
	}

	var esClient *elasticsearch.Client
	if cfg.ES_URL != "" {
		esClient, err = es.NewClient(cfg)
		if err != nil {
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
			esClient = nil
		}
	}

	issuer := tokens.NewIssuer([]byte(cfg.JWT_SECRET), cfg.ACCESS_TOKEN_EXP, cfg.REFRESH_TOKEN_EXP)
	gate := auth.NewGate(issuer)
	queries := repo.New(database)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		UserHandler:      &handlers.UserHandler{DB: database, Q: queries, Hasher: hasher, Gate: gate, Producer: prod},
		AuthHandler:      &handlers.AuthHandler{DB: database, Q: queries, Hasher: hasher, Issuer: issuer, Producer: prod},
		WorkspaceHandler: &handlers.WorkspaceHandler{DB: database, Q: queries, Gate: gate, Producer: prod},
		TodoListHandler:  &handlers.TodoListHandler{DB: database, Q: queries, Gate: gate, Filter: todoFilter},
		TodoHandler:      &handlers.TodoHandler{DB: database, Q: queries, Gate: gate, Producer: prod, ES: esClient, ESIndex: cfg.ES_INDEX},
		SearchHandler:    &handlers.SearchHandler{Q: queries, Gate: gate, ES: esClient, Index: cfg.ES_INDEX},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
