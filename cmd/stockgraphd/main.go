// stockgraphd serves natural-language questions over the stock knowledge
// graph.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/stockgraph/chatbot"
	"github.com/smallnest/stockgraph/graphstore"
	"github.com/smallnest/stockgraph/llm"
	"github.com/smallnest/stockgraph/log"
	"github.com/smallnest/stockgraph/server"
	"github.com/smallnest/stockgraph/session"
)

var (
	port     = flag.Int("port", 8080, "API server port")
	logLevel = flag.String("log-level", "info", "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()
	loadEnv()
	log.SetLevel(*logLevel)

	model, err := llm.NewOpenAIFromEnv()
	if err != nil {
		// Conversational turns still work without a model; data
		// questions will return a generation error.
		log.Warn("no language model configured: %v", err)
	}

	storeURL := getEnvOrDefault("FALKORDB_URL", "falkordb://localhost:6379/stocks")
	store, err := graphstore.NewFalkorDB(storeURL)
	if err != nil {
		log.Error("failed to connect graph store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions := buildSessionStore()

	var botModel llm.Model
	if model != nil {
		botModel = model
	}
	bot := chatbot.New(botModel, store, sessions)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: server.Router(server.New(bot, store)),
	}

	go func() {
		log.Info("stockgraphd listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error: %v", err)
	}
}

// buildSessionStore picks the session backend from SESSION_BACKEND:
// "redis" shares sessions across instances, anything else stays
// in-process.
func buildSessionStore() session.Store {
	if getEnvOrDefault("SESSION_BACKEND", "memory") != "redis" {
		return session.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr: getEnvOrDefault("SESSION_REDIS_ADDR", "localhost:6379"),
	})
	return session.NewRedisStore(client, "", 0)
}

// loadEnv loads a .env file from the working directory if one exists.
func loadEnv() {
	content, err := os.ReadFile(".env")
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			os.Setenv(strings.TrimSpace(key), strings.TrimSpace(value))
		}
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
