package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"agentchat/internal/chat"
	"agentchat/internal/config"
	"agentchat/internal/hub"
	"agentchat/internal/live"
	"agentchat/internal/llm"
	"agentchat/internal/scheduler"
	"agentchat/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	exp, err := config.LoadExperiment(cfg.ExperimentFilePath)
	if err != nil {
		log.Fatalf("failed to load experiment: %v", err)
	}

	recorder, err := newRecorder(cfg)
	if err != nil {
		log.Fatalf("failed to init recorder: %v", err)
	}

	llmClient := llm.NewOpenAI(
		cfg.OpenAIAPIKey,
		cfg.OpenAIBaseURL,
		exp.Model,
		cfg.OpenRouterReferrer,
		cfg.OpenRouterTitle,
		exp.ReasoningEffort,
	)

	profiles := exp.Profiles()
	h := hub.New(func(conversationID string) *chat.Controller {
		tone := exp.Tones[rand.Intn(len(exp.Tones))]
		sink := storage.NewExporter(recorder, conversationID, uuid.NewString())
		return chat.NewController(chat.Config{
			Emojis:       exp.Emojis,
			Tone:         tone,
			ModFrequency: exp.ModFrequency,
			Bots:         profiles,
			InitialTrust: exp.InitialTrust,
		}, llmClient, sink, nil)
	})

	sweep := scheduler.New(cfg.SessionTimeout, h.ExpireIdle)
	if err := sweep.Start(); err != nil {
		log.Fatalf("failed to start retention sweep: %v", err)
	}

	// WriteTimeout bounds a stuck response without cutting off a bot turn
	// that is still walking the completion retry ladder.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           live.NewServer(h).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("chatd listening on %s (model %s, %d bot(s))", cfg.HTTPAddr, exp.Model, len(profiles))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	sweep.Stop()
	h.Close()
}

func newRecorder(cfg *config.Config) (storage.Recorder, error) {
	switch cfg.RecorderBackend {
	case "sqlite":
		return storage.NewSQLiteRecorder(cfg.SQLitePath)
	default:
		return storage.NewFileRecorder(cfg.LogFilePath)
	}
}
