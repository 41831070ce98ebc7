package main

import (
	"context"
	"log"

	"tryon-widget-be/internal/bootstrap"
	"tryon-widget-be/internal/config"
	"tryon-widget-be/internal/server"
	"tryon-widget-be/internal/tracer"
	"tryon-widget-be/pkg/database"
)

func main() {
	// 0. Tracing (no-op unless OTEL_ENABLED is set)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load configuration
	cfg := config.Load()

	// 2. Initialize database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap dependencies
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start background workers
	go func() {
		log.Println("Background: starting generation worker...")
		if err := container.GenerationWorker.Consume(context.Background()); err != nil {
			log.Printf("Background generation worker error: %v", err)
		}
	}()

	// 5. Serve
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
