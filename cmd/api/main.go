package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/ledgerboard/internal/api/handlers"
	"github.com/dvloznov/ledgerboard/internal/api/middleware"
	"github.com/dvloznov/ledgerboard/internal/backup"
	"github.com/dvloznov/ledgerboard/internal/config"
	"github.com/dvloznov/ledgerboard/internal/infra/postgrest"
	"github.com/dvloznov/ledgerboard/internal/jobs"
	"github.com/dvloznov/ledgerboard/internal/jobs/inmemory"
	"github.com/dvloznov/ledgerboard/internal/ledger"
	"github.com/dvloznov/ledgerboard/internal/logger"
	"github.com/dvloznov/ledgerboard/internal/schedule"
	"github.com/dvloznov/ledgerboard/internal/staging"
)

func main() {
	log := logger.New("api")
	cfg := config.Load(log)

	// Flags override the environment
	var (
		port        = flag.String("port", cfg.Port, "HTTP server port")
		stagingPath = flag.String("staging", cfg.StagingPath, "path of the embedded staging database")
	)
	flag.Parse()

	ctx := context.Background()

	// Remote ledger gateway
	client := postgrest.NewClient(cfg.RemoteURL, cfg.RemoteKey, cfg.HTTPTimeout, log)
	gw := client.Ledger()

	// Local staging store
	store, err := staging.Open(*stagingPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open staging store")
	}
	defer store.Close()

	// Core engine and obligation processing
	engine := ledger.New(gw, log)
	processor := schedule.NewProcessor(engine, gw, log)
	importer := backup.NewImporter(engine, store, log)

	// Job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		obligation, ok := job.(*jobs.ObligationJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", obligation.JobID).
			Str("owner_id", obligation.OwnerID).
			Str("kind", string(obligation.Kind)).
			Str("obligation_id", obligation.ObligationID).
			Msg("Processing obligation job")

		switch obligation.Kind {
		case jobs.ObligationRecurring:
			_, err := processor.ProcessRecurringOccurrence(ctx, obligation.OwnerID, obligation.ObligationID, obligation.DueDate)
			return err
		case jobs.ObligationBill:
			_, err := processor.MarkBillAsPaid(ctx, obligation.OwnerID, obligation.ObligationID)
			return err
		}
		return fmt.Errorf("unexpected obligation kind: %q", obligation.Kind)
	}

	go func() {
		log.Info().Msg("Starting obligation job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Handlers
	ledgerHandler := handlers.NewLedgerHandler(engine, log)
	obligationsHandler := handlers.NewObligationsHandler(gw, processor, jobQueue, log)
	backupHandler := handlers.NewBackupHandler(engine, importer, store, gw.Txs, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/balance", ledgerHandler.GetBalance)
	mux.HandleFunc("POST /api/account", ledgerHandler.SetAccount)
	mux.HandleFunc("GET /api/transactions", ledgerHandler.ListTransactions)
	mux.HandleFunc("POST /api/transactions", ledgerHandler.AddTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", ledgerHandler.EditTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", ledgerHandler.DeleteTransaction)

	mux.HandleFunc("GET /api/recurring", obligationsHandler.ListRecurring)
	mux.HandleFunc("POST /api/recurring", obligationsHandler.CreateRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", obligationsHandler.DeleteRecurring)
	mux.HandleFunc("POST /api/recurring/{id}/process", obligationsHandler.ProcessRecurring)

	mux.HandleFunc("GET /api/bills", obligationsHandler.ListBills)
	mux.HandleFunc("POST /api/bills", obligationsHandler.CreateBill)
	mux.HandleFunc("DELETE /api/bills/{id}", obligationsHandler.DeleteBill)
	mux.HandleFunc("POST /api/bills/{id}/pay", obligationsHandler.PayBill)

	mux.HandleFunc("GET /api/export", backupHandler.Export)
	mux.HandleFunc("POST /api/import", backupHandler.Import)
	mux.HandleFunc("POST /api/flush", backupHandler.Flush)

	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", jobsHandler.GetJob)

	owned := middleware.Owner(mux)

	root := http.NewServeMux()
	root.Handle("/api/", owned)
	root.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(root),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
