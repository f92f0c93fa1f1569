package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stocknote/stocknote/internal/api/handlers"
	"github.com/stocknote/stocknote/internal/api/middleware"
	"github.com/stocknote/stocknote/internal/auth"
	"github.com/stocknote/stocknote/internal/capture"
	"github.com/stocknote/stocknote/internal/config"
	"github.com/stocknote/stocknote/internal/goals"
	"github.com/stocknote/stocknote/internal/imagestore"
	"github.com/stocknote/stocknote/internal/jobs"
	"github.com/stocknote/stocknote/internal/jobs/inmemory"
	"github.com/stocknote/stocknote/internal/logger"
	"github.com/stocknote/stocknote/internal/sheets"
	"github.com/stocknote/stocknote/internal/stocks"
	"github.com/stocknote/stocknote/internal/store"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	users := store.NewUsers(pool)
	txs := store.NewTransactions(pool)
	stockRepo := store.NewStocks(pool)
	syncMeta := store.NewSyncMeta(pool)

	analyzer, err := capture.NewAnalyzer(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create screenshot analyzer")
	}

	mirror := sheets.NewMirror(cfg.SheetRange)
	archive := imagestore.NewArchive(cfg.ImageBucket)
	if !archive.Enabled() {
		log.Warn().Msg("No image bucket configured - screenshot archival disabled")
	}

	captureService := capture.NewService(users, txs, mirror)
	goalsService := goals.NewService(users)

	searcher, err := stocks.NewSearcher(stockRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stock searcher")
	}

	// Job infrastructure for the stock-directory sync.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	syncer := stocks.NewSyncer(stockRepo, syncMeta)
	krx := stocks.NewKRXSource(cfg.KRXBaseURL)
	us := stocks.NewUSSource()

	jobHandler := func(ctx context.Context, job *jobs.SyncStocksJob) error {
		log.Info().
			Str("job_id", job.JobID).
			Str("market", job.Market).
			Msg("Processing stock sync job")

		var (
			count int
			err   error
		)
		switch job.Market {
		case "krx":
			count, err = syncer.Sync(ctx, stocks.MetaKeyKRX, krx)
		case "us":
			count, err = syncer.Sync(ctx, stocks.MetaKeyUS, us)
		default:
			return fmt.Errorf("unknown market %q", job.Market)
		}
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", job.JobID).
				Str("market", job.Market).
				Msg("Stock sync failed")
			return err
		}

		job.Count = count
		log.Info().
			Str("job_id", job.JobID).
			Str("market", job.Market).
			Int("count", count).
			Msg("Stock sync completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	goalsHandler := handlers.NewGoalsHandler(goalsService, log)
	captureHandler := handlers.NewCaptureHandler(analyzer, captureService, users, txs, archive, log)
	settingsHandler := handlers.NewSettingsHandler(users, log)
	stocksHandler := handlers.NewStocksHandler(searcher, jobQueue, jobStore, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret))

		r.Get("/api/goals", goalsHandler.GetSettings)
		r.Post("/api/goals", goalsHandler.SaveGoal)

		r.Post("/api/capture/analyze", captureHandler.Analyze)
		r.Post("/api/transactions", captureHandler.SaveTransaction)
		r.Get("/api/transactions", captureHandler.ListTransactions)

		r.Post("/api/settings/spreadsheet", settingsHandler.LinkSpreadsheet)

		r.Get("/api/stocks/search", stocksHandler.Search)

		r.Post("/api/admin/stocks/sync", stocksHandler.EnqueueSync)
		r.Get("/api/admin/stocks/sync", stocksHandler.ListSyncJobs)
		r.Get("/api/admin/stocks/sync/{jobID}", stocksHandler.GetSyncJob)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Job queue shutdown failed")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
