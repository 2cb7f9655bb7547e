package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"donkey-remote-be/internal/bootstrap"
	"donkey-remote-be/internal/config"
	"donkey-remote-be/internal/server"
	"donkey-remote-be/internal/tracer"
)

func main() {
	// 1. Load Configuration (.env first, everything below reads cfg)
	cfg := config.Load()

	// 2. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.Otel)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, cfg)
	defer container.Close()

	// 4. Start Background Services
	if err := container.TelemetryService.Consume(ctx); err != nil {
		log.Printf("Background Telemetry Error: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
