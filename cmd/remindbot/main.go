package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remindbot/internal/config"
	"remindbot/internal/dates"
	"remindbot/internal/llm"
	"remindbot/internal/memory"
	"remindbot/internal/scheduler"
	"remindbot/internal/sender"
	"remindbot/internal/server"
	"remindbot/internal/sms"
	"remindbot/internal/task"

	"github.com/joho/godotenv"
)

func main() {
	log.Println("Starting reminder assistant...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize the task store; without a database the bot still runs,
	// but reminders do not survive a restart.
	var store task.Store
	if cfg.Database.Host != "" {
		pg, err := task.NewPostgresStore(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer pg.Close()
		store = pg
	} else {
		log.Println("No database configured, using in-memory task store")
		store = task.NewMemoryStore()
	}

	resolver := dates.NewResolver(cfg.User.Timezone)
	engine := llm.New(cfg.OpenAI)
	// The engine writes the reminder copy; without an API key the sender
	// falls back to its plain template.
	twilio := sender.NewTwilio(cfg.Twilio, engine)
	recall := memory.New(cfg.Memory)
	handler := sms.NewHandler(store, resolver, engine, recall)

	sched := scheduler.New(store, twilio, scheduler.Config{
		Interval:        time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
		DeliveryTimeout: time.Duration(cfg.Scheduler.DeliveryTimeoutSeconds) * time.Second,
	})

	srv := server.New(handler, sched, twilio, resolver)

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		s := <-signals
		log.Printf("Received signal: %v", s)
		cancel()
	}()

	sched.Start(ctx)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Listen(addr); err != nil {
			log.Printf("Error running HTTP server: %v", err)
			cancel()
		}
	}()

	// Wait for shutdown
	<-ctx.Done()
	log.Println("Shutdown signal received")

	// Let an in-flight scan finish before the process exits
	sched.Stop()

	if err := srv.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Application shutdown complete")
}
