package main

import (
	"net/http"

	"go.uber.org/zap"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/config"
	"chat-gateway/internal/fabric"
	"chat-gateway/internal/fabric/memory"
	"chat-gateway/internal/fabric/natsfab"
	"chat-gateway/internal/fabric/redisfab"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/store"
	"chat-gateway/internal/ws"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	st, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatal("Failed to open store", zap.Error(err))
	}

	fab, err := buildFabric(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to build fabric", zap.Error(err))
	}
	defer fab.Close()

	// Session middleware runs upstream when deployed behind the main app;
	// standalone deployments authenticate by bearer token.
	resolver := auth.Chain{auth.SessionResolver{}, auth.TokenResolver{}}

	gateway := ws.NewGateway(st, fab, resolver)

	http.HandleFunc("/ws/chat/group/{room_id}", gateway.ServeWS)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	logger.Infof("Chat gateway starting on :%s (fabric=%s)", cfg.Port, cfg.FabricKind)
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		logger.Log.Fatal("Server stopped", zap.Error(err))
	}
}

func buildFabric(cfg *config.Config) (fabric.Fabric, error) {
	switch cfg.FabricKind {
	case "memory":
		return memory.New(), nil
	case "nats":
		return natsfab.New(cfg.NatsURL)
	default:
		return redisfab.New(cfg.RedisURL)
	}
}
