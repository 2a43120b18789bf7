package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"retro-platformer/internal/api"
	"retro-platformer/internal/config"
	"retro-platformer/internal/game"
	"retro-platformer/internal/ipc"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  RETRO PLATFORMER - GO ENGINE")
	log.Println("🎮  Endless side-scroller core")
	log.Println("🎮 ================================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	engine := game.NewEngine(cfg)

	// Persist gameplay events across restarts when a log path is set.
	if err := engine.StartEventLog(); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	}

	// Metrics hook must be in place before the first tick.
	api.ObserveEngine(engine)
	if err := api.StartDebugServer(cfg.API); err != nil {
		log.Printf("⚠️ Debug server failed to start: %v", err)
	}

	engine.Start()

	// The snapshot publisher feeds out-of-process renderers over the
	// local socket. It runs off its own ticker so a stalled subscriber
	// can never touch the simulation loop.
	var publisher *ipc.Publisher
	var feedStop chan struct{}
	var feedWG sync.WaitGroup
	if cfg.IPC.Enabled {
		publisher = ipc.NewPublisher(cfg.IPC)
		publisher.SetHello("retro-platformer", cfg.Engine.TickRate, cfg.World.Width, cfg.World.Height)
		if err := publisher.Start(); err != nil {
			log.Printf("⚠️ IPC publisher disabled: %v", err)
			publisher = nil
		} else {
			feedStop = make(chan struct{})
			feedWG.Add(1)
			go func() {
				defer feedWG.Done()
				interval := time.Second / time.Duration(max(cfg.IPC.PublishFPS, 1))
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-feedStop:
						return
					case <-ticker.C:
						publisher.Publish(engine.Snapshot())
					}
				}
			}()
		}
	} else {
		log.Println("📡 IPC publisher disabled by config")
	}

	server := api.NewServer(cfg, engine)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("❌ API server error: %v", err)
		}
	}()

	log.Println("✅ Server ready! Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Printf("⚠️ API shutdown: %v", err)
	}

	if feedStop != nil {
		close(feedStop)
		feedWG.Wait()
	}

	engine.Stop()
	engine.StopEventLog()

	if publisher != nil {
		publisher.Stop()
	}

	log.Println("👋 Goodbye!")
}
