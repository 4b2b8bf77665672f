package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucashml/medscribe/internal/config"
	"github.com/lucashml/medscribe/internal/db"
	"github.com/lucashml/medscribe/internal/httpapi"
	"github.com/lucashml/medscribe/internal/llmconfig"
	"github.com/lucashml/medscribe/internal/store/rabbitmq"
	"github.com/lucashml/medscribe/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	llm := llmconfig.NewService(cfg.LLMConfigPath, "OPENAI_API_KEY")

	// Redis is optional: without it BI stats skip the cache.
	var rds *redisstore.Store
	{
		store := redisstore.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := store.Ping(pingCtx); err != nil {
			log.Printf("redis unavailable, stats cache disabled err=%v", err)
			_ = store.Close()
		} else {
			rds = store
		}
		cancel()
	}

	// RabbitMQ is optional: without it only the sync analyze path serves.
	var rabbit *rabbitmq.Publisher
	if p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Printf("rabbitmq unavailable, async analyze disabled err=%v", err)
	} else {
		rabbit = p
		defer rabbit.Close()
	}

	router := httpapi.NewRouter(gdb, cfg, llm, rds, rabbit)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("medscribe server listening addr=%s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
