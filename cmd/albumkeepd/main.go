package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/albumkeep/albumkeep/internal"
	"github.com/albumkeep/albumkeep/internal/ingest"
	"github.com/albumkeep/albumkeep/internal/storage"
	"github.com/albumkeep/albumkeep/internal/websocket"
)

func main() {
	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
		return
	}

	db, err := internal.NewDB(config.Server.DBPath, config.Server.MigrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
		return
	}

	backend, err := storage.NewBackend(&storage.BackendConfig{
		Type:        storage.BackendType(config.Server.StorageBackend),
		LocalPath:   config.Server.UploadDir,
		S3Endpoint:  config.Server.S3Endpoint,
		S3Bucket:    config.Server.S3Bucket,
		S3AccessKey: config.Server.S3AccessKey,
		S3SecretKey: config.Server.S3SecretKey,
		S3Region:    config.Server.S3Region,
		S3UseSSL:    config.Server.S3UseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing storage backend")
		return
	}

	hub := websocket.NewHub()
	go hub.Run()

	repository := ingest.NewSQLRepository(db)
	service := ingest.NewService(
		repository,
		backend,
		hub,
		config.Server.MaxFileSizeBytes,
		config.Server.MaxFilesPerRequest,
		config.Server.Thumbnails,
	)
	endpoints := ingest.NewEndpoints(service, config.Server.UploadDir)
	wsHandler := websocket.NewHandler(hub)

	requestHandler := internal.NewRequestHandler(config, endpoints, wsHandler)

	server := &fasthttp.Server{
		Handler: requestHandler,
		// Headroom above the per-file cap so a full multi-file request fits.
		MaxRequestBodySize: int(config.Server.MaxFileSizeBytes) * 4,
	}

	addr := fmt.Sprintf(":%d", config.Server.Port)
	log.Info().
		Str("addr", addr).
		Str("uploadDir", config.Server.UploadDir).
		Bool("authEnabled", config.Server.AuthUsername != "").
		Msg("Ingestion server listening")

	if err := server.ListenAndServe(addr); err != nil {
		log.Fatal().Err(err).Msg("Error starting server")
	}
}
