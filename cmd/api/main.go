package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/chatroom-minigame/internal/api"
	"github.com/chatroom-minigame/internal/broadcast"
	"github.com/chatroom-minigame/internal/config"
	"github.com/chatroom-minigame/internal/registry"
	"github.com/chatroom-minigame/internal/service"
	"github.com/chatroom-minigame/internal/storage"
	"github.com/chatroom-minigame/internal/storage/cassandra"
	"github.com/chatroom-minigame/internal/transport"
	"github.com/chatroom-minigame/internal/words"
	"github.com/chatroom-minigame/pkg/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", logger.F("error", err.Error()))
		os.Exit(1)
	}

	store, cleanup, err := newStore(cfg, log)
	if err != nil {
		log.Error("failed to initialize storage", logger.F("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()
	log.Info("storage initialized", logger.F("backend", cfg.StorageBackend))

	sessions := storage.NewSessionStore(store)
	reg := registry.New()
	sockets := transport.NewWebSocket(log)
	caster := broadcast.New(reg, sockets, log)
	rooms := service.NewStaticRooms()
	picker := words.NewRandomPicker(time.Now().UnixNano())

	connections := service.NewConnectionService(reg, sockets, cfg.ConnectionTTL, log)
	catchmind := service.NewCatchmindService(sessions, rooms, caster, reg, picker, cfg.Game, log)
	wordchain := service.NewWordChainService(sessions, rooms, caster, reg, log)

	ws := api.NewWebsocketHandler(sockets, connections, catchmind, wordchain, log)
	handler := api.NewHandler(catchmind, wordchain, rooms, ws, log)

	router := chi.NewRouter()
	router.Use(api.RequestIDMiddleware)
	router.Use(chimiddleware.RealIP)
	router.Use(api.LoggingMiddleware(log))
	router.Use(chimiddleware.Recoverer)
	router.Mount("/", handler.Routes())

	server := &http.Server{
		Addr:    cfg.Address(),
		Handler: router,
	}

	// Background sweep for connections whose ttl lapsed without a clean
	// disconnect.
	pruneCtx, stopPrune := context.WithCancel(context.Background())
	defer stopPrune()
	go func() {
		ticker := time.NewTicker(cfg.PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case now := <-ticker.C:
				connections.Prune(now)
			}
		}
	}()

	go func() {
		log.Info("server starting", logger.F("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", logger.F("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", logger.F("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server exited")
}

// newStore selects the storage backend from config. The cleanup func closes
// backend resources on shutdown.
func newStore(cfg *config.Config, log *logger.Logger) (storage.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		store, err := storage.NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case config.BackendCassandra:
		client, err := cassandra.NewClient(cfg.Cassandra, log)
		if err != nil {
			return nil, nil, err
		}
		return cassandra.NewStore(client), func() { client.Close() }, nil
	default:
		return storage.NewMemoryStore(), func() {}, nil
	}
}
