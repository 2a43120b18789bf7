// =============================================================================
// RETRO PLATFORMER - STREAMER
// =============================================================================
// This standalone process handles ONLY rendering and encoding:
// - Receives game snapshots via IPC from the game server
// - Renders frames and pipes them to FFmpeg
// - Streams to an RTMP endpoint or records to a file
//
// This separation keeps the simulation loop free of encoder stalls, and a
// streamer crash or restart never touches a running game.
//
// USAGE:
//   1. Start the game server first: go run ./cmd/server
//   2. Then start this streamer: go run ./cmd/streamer
//
// Set STREAM_LOCAL=true to run a private in-process engine instead of
// subscribing to a server; useful for testing render output alone.
// =============================================================================
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retro-platformer/internal/config"
	"retro-platformer/internal/game"
	"retro-platformer/internal/ipc"
	"retro-platformer/internal/streaming"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}

	log.Println("================================")
	log.Println("  RETRO PLATFORMER - STREAMER")
	log.Println("  Frame renderer + FFmpeg")
	log.Println("================================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Video: %dx%d @ %d FPS, %dk bitrate",
		cfg.Stream.Width, cfg.Stream.Height, cfg.Stream.FPS, cfg.Stream.Bitrate)
	if cfg.Stream.OutputURL == "" {
		log.Println("STREAM_OUTPUT_URL not set, running render-only (no encoder)")
	} else {
		log.Printf("Output: %s", cfg.Stream.OutputURL)
	}

	var source streaming.SnapshotSource
	var engine *game.Engine
	var subscriber *ipc.Subscriber

	if os.Getenv("STREAM_LOCAL") == "true" {
		// Local mode: no server, run the simulation in this process.
		log.Println("Local mode: running an in-process engine")
		engine = game.NewEngine(cfg)
		engine.Start()
		source = &streaming.LocalEngineSource{Engine: engine}
	} else {
		// Subscribe to the game server's snapshot feed.
		subscriber = ipc.NewSubscriber(cfg.IPC.SocketPath)

		subscriber.OnConnect(func() {
			log.Println("Connected to game server")
		})
		subscriber.OnDisconnect(func() {
			log.Println("Disconnected from game server, retrying...")
		})

		log.Println("Connecting to game server...")
		if err := subscriber.Start(); err != nil {
			log.Fatalf("Failed to start IPC subscriber: %v", err)
		}

		// The hello frame carries the server's world size and tick
		// rate. Not fatal when missing; the stream starts on a blank
		// sky and picks up snapshots whenever the server appears.
		if hello := subscriber.WaitForHello(30 * time.Second); hello != nil {
			log.Printf("Game server: %s, world %dx%d @ %d TPS",
				hello.AppName, hello.Width, hello.Height, hello.TickRate)
		} else {
			log.Println("WARNING: No game server handshake yet")
			log.Println("Make sure the game server is running: go run ./cmd/server")
			log.Println("Continuing anyway (will retry connection)...")
		}

		source = streaming.NewIPCSource(subscriber)
	}

	streamer := streaming.NewStreamManager(source, cfg.Stream)
	if err := streamer.Start(); err != nil {
		log.Fatalf("Failed to start stream: %v", err)
	}

	music := streaming.NewMusicPlayer(cfg.Audio)
	music.Start()

	// Periodic health line so a stalled feed is visible in the logs.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			if subscriber != nil {
				received, reconnects, errors := subscriber.GetStats()
				log.Printf("IPC: snapshots=%d, reconnects=%d, errors=%d, connected=%v",
					received, reconnects, errors, subscriber.IsConnected())
			}

			stats := streamer.GetStats()
			log.Printf("Stream: rendered=%v, sent=%v, dropped=%v, uptime=%v, streaming=%v",
				stats["framesRendered"], stats["framesSent"], stats["framesDropped"],
				stats["uptime"], stats["streaming"])
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("")
	log.Println("Streamer ready! Press Ctrl+C to stop.")
	log.Println("")
	<-quit

	log.Println("Shutting down streamer...")

	streamer.Stop()
	music.Stop()
	if subscriber != nil {
		subscriber.Stop()
	}
	if engine != nil {
		engine.Stop()
	}

	log.Println("Streamer stopped!")
}
