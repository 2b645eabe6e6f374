package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chat-relay-be/internal/bootstrap"
	"chat-relay-be/internal/config"
	"chat-relay-be/internal/model"
	"chat-relay-be/internal/server"
	"chat-relay-be/internal/tracer"
	"chat-relay-be/pkg/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	// 2. Initialize Database
	gormDB, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		panic("unable to connect to database: " + err.Error())
	}
	// SQLite is the local setup, it has no separate migration step.
	if cfg.Database.Driver == database.DriverSQLite {
		if err := model.AutoMigrate(gormDB); err != nil {
			panic("auto migration failed: " + err.Error())
		}
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		panic(err)
	}
	defer container.Close()
	log := container.Logger

	// 4. Tracing
	shutdownTracer := tracer.InitTracer(log)
	defer func() { _ = shutdownTracer(context.Background()) }()

	// 5. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Error("Main", "Failed to start consumer service", map[string]interface{}{"error": err.Error()})
	}
	if err := container.TurnFeed.Start(ctx); err != nil {
		log.Error("Main", "Failed to start turn feed", map[string]interface{}{"error": err.Error()})
	}

	// 6. Run Server until a signal arrives
	srv := server.New(cfg, container)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("Main", "Shutting down", nil)
		if err := srv.Shutdown(); err != nil {
			log.Error("Main", "Server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	case err := <-errCh:
		if err != nil {
			log.Error("Main", "Server stopped", map[string]interface{}{"error": err.Error()})
		}
	}
}
