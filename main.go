package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"hanamikoji-server/api"
	"hanamikoji-server/config"
	"hanamikoji-server/loghandler"
	"hanamikoji-server/room"
	"hanamikoji-server/snapshot"
	"hanamikoji-server/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found; using environment variables.")
	}

	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.Environment == "development" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stdout, level)))

	log.Printf("Configuration: Port=%d, Environment=%s, RoomTTLSeconds=%d, OrderRevealMS=%d, RoundPauseMS=%d",
		cfg.Port, cfg.Environment, cfg.RoomTTLSeconds, cfg.OrderRevealMS, cfg.RoundPauseMS)

	ctx := context.Background()

	// Snapshot store; rooms run without persistence when REDIS_URL is unset.
	var store snapshot.Store
	if cfg.RedisURL == "" {
		log.Print("REDIS_URL is not set; room snapshots and rejoin-after-restart are disabled.")
	} else if redisStore, err := snapshot.NewRedisStore(ctx, cfg.RedisURL); err != nil {
		log.Printf("Snapshot store unavailable, continuing without persistence: %v", err)
	} else {
		store = redisStore
	}

	registry := room.NewRegistry(cfg, store)

	hub := ws.NewHub(cfg, registry)
	go hub.Run(ctx)

	handler := api.NewHandler(cfg, registry)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	})
	http.HandleFunc("/health", handler.Health)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Hanamikoji server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
