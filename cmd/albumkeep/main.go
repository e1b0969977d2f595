package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/albumkeep/albumkeep/internal"
	"github.com/albumkeep/albumkeep/internal/backup"
	"github.com/albumkeep/albumkeep/internal/dedup"
)

func main() {
	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
		return
	}

	store, err := dedup.OpenFileStore(config.Client.DedupPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening dedup store")
		return
	}
	defer store.Close()

	walker, err := backup.NewDirWalker(config.Client.SourceDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening source directory")
		return
	}

	uploader := backup.NewUploader(
		config.Client.ServerURL,
		config.Client.Username,
		config.Client.Password,
		config.Client.RequestTimeout,
	)

	progress := backup.NewAggregator(config.Client.RecentWindow)
	policy := backup.RetryPolicy{
		MaxRetries: config.Client.MaxRetries,
		DelayMin:   config.Client.RetryDelayMin,
		DelayMax:   config.Client.RetryDelayMax,
	}

	scheduler := backup.NewScheduler(
		uploader,
		store,
		progress,
		policy,
		config.Client.Concurrency,
		config.Client.BatchSize,
		nil,
	)

	log.Info().
		Str("server", config.Client.ServerURL).
		Str("source", config.Client.SourceDir).
		Int("alreadyUploaded", store.Len()).
		Msg("Starting backup run")

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		scheduler.RequestStop()
		<-signals
		log.Warn().Msg("Forced exit")
		os.Exit(1)
	}()

	done := make(chan struct{})
	go reportProgress(progress, done)

	summary := scheduler.Run(context.Background(), walker)
	close(done)

	log.Info().
		Int("groups", summary.Groups).
		Int("uploaded", summary.Uploaded).
		Int("failed", summary.Failed).
		Int("canceled", summary.Canceled).
		Int("skipped", summary.Skipped).
		Bool("stoppedEarly", summary.Stopped).
		Msg("Backup summary")

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func reportProgress(progress *backup.Aggregator, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := progress.Snapshot()
			if snap.Total == 0 {
				continue
			}
			log.Info().
				Int("done", snap.Done).
				Int("total", snap.Total).
				Float64("ratio", snap.Ratio).
				Msg("Progress")
		}
	}
}
