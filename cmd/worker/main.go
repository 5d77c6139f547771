// The worker scans the configured owners' recurring payments on an interval
// and enqueues a processing job for every due occurrence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerboard/internal/config"
	"github.com/dvloznov/ledgerboard/internal/infra/postgrest"
	"github.com/dvloznov/ledgerboard/internal/jobs"
	"github.com/dvloznov/ledgerboard/internal/jobs/inmemory"
	"github.com/dvloznov/ledgerboard/internal/ledger"
	"github.com/dvloznov/ledgerboard/internal/logger"
	"github.com/dvloznov/ledgerboard/internal/schedule"
)

func main() {
	log := logger.New("worker")
	cfg := config.Load(log)

	var (
		owners   = flag.String("owners", os.Getenv("LEDGER_OWNERS"), "comma-separated owner ids to scan (or set LEDGER_OWNERS)")
		interval = flag.Duration("interval", cfg.WorkerInterval, "scan interval for due obligations")
	)
	flag.Parse()

	ownerIDs := splitOwners(*owners)
	if len(ownerIDs) == 0 {
		log.Fatal().Msg("No owners configured - set -owners or LEDGER_OWNERS")
	}

	client := postgrest.NewClient(cfg.RemoteURL, cfg.RemoteKey, cfg.HTTPTimeout, log)
	gw := client.Ledger()

	engine := ledger.New(gw, log)
	processor := schedule.NewProcessor(engine, gw, log)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hydrate each owner's aggregate once so processing sees the current
	// balance.
	for _, ownerID := range ownerIDs {
		if err := engine.Load(ctx, ownerID); err != nil {
			log.Error().Err(err).Str("owner_id", ownerID).Msg("Failed to load owner aggregate")
		}
	}

	handler := func(ctx context.Context, job jobs.Job) error {
		obligation, ok := job.(*jobs.ObligationJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", obligation.JobID).
			Str("owner_id", obligation.OwnerID).
			Str("obligation_id", obligation.ObligationID).
			Msg("Processing obligation job")

		_, err := processor.ProcessRecurringOccurrence(ctx, obligation.OwnerID, obligation.ObligationID, obligation.DueDate)
		return err
	}

	log.Info().
		Strs("owners", ownerIDs).
		Dur("interval", *interval).
		Msg("Starting obligation worker")

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	go scanLoop(ctx, processor, jobQueue, ownerIDs, *interval, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Worker exited")
}

// scanLoop enqueues one job per due recurring payment, once per interval.
// Each job carries the payment's NextDate at enqueue time; when a slow queue
// lets two ticks enqueue the same occurrence, processing skips the job whose
// due date the schedule has already moved past.
func scanLoop(ctx context.Context, processor *schedule.Processor, publisher jobs.Publisher, ownerIDs []string, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, ownerID := range ownerIDs {
				due, err := processor.DueRecurring(ctx, ownerID, now)
				if err != nil {
					log.Error().Err(err).Str("owner_id", ownerID).Msg("Failed to list due payments")
					continue
				}
				for _, payment := range due {
					job := &jobs.ObligationJob{
						OwnerID:      ownerID,
						Kind:         jobs.ObligationRecurring,
						ObligationID: payment.ID,
						DueDate:      payment.NextDate,
					}
					if err := publisher.PublishObligation(ctx, job); err != nil {
						log.Error().Err(err).Str("payment_id", payment.ID).Msg("Failed to enqueue obligation job")
						continue
					}
					log.Info().
						Str("job_id", job.JobID).
						Str("owner_id", ownerID).
						Str("payment_id", payment.ID).
						Msg("Due payment enqueued")
				}
			}
		}
	}
}

func splitOwners(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
